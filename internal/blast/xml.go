package blast

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jjtimmons/cox1/internal/errs"
)

// Hit is a database sequence found by the search, described by its first HSP.
type Hit struct {
	// Title is the hit's id and definition line
	Title string `json:"title"`

	// Accession of the subject in the database
	Accession string `json:"accession"`

	// Score is the raw HSP score
	Score float64 `json:"score"`

	// Bits is the normalized bit score
	Bits float64 `json:"bits"`

	Evalue float64 `json:"evalue"`

	// Identities is the number of identical positions in the alignment
	Identities int `json:"identities"`

	// AlignLen is the length of the alignment, gaps included
	AlignLen int `json:"alignLength"`

	// Query, Match and Subject are the three rows of the pairwise alignment
	Query   string `json:"query"`
	Match   string `json:"match"`
	Subject string `json:"subject"`
}

type blastOutput struct {
	XMLName    xml.Name    `xml:"BlastOutput"`
	Iterations []iteration `xml:"BlastOutput_iterations>Iteration"`
}

type iteration struct {
	Message string   `xml:"Iteration_message"`
	Hits    []xmlHit `xml:"Iteration_hits>Hit"`
}

type xmlHit struct {
	ID        string `xml:"Hit_id"`
	Def       string `xml:"Hit_def"`
	Accession string `xml:"Hit_accession"`
	Hsps      []hsp  `xml:"Hit_hsps>Hsp"`
}

type hsp struct {
	BitScore float64 `xml:"Hsp_bit-score"`
	Score    float64 `xml:"Hsp_score"`
	Evalue   float64 `xml:"Hsp_evalue"`
	Identity int     `xml:"Hsp_identity"`
	AlignLen int     `xml:"Hsp_align-len"`
	QSeq     string  `xml:"Hsp_qseq"`
	HSeq     string  `xml:"Hsp_hseq"`
	Midline  string  `xml:"Hsp_midline"`
}

// Parse reads hits, in report order, from a BLAST XML document. Only the
// first HSP of each hit is kept; hits without an HSP are dropped.
func Parse(r io.Reader) ([]Hit, error) {
	var out blastOutput
	if err := xml.NewDecoder(r).Decode(&out); err != nil {
		return nil, &errs.ParseError{Err: fmt.Errorf("blast xml: %w", err)}
	}

	var hits []Hit
	for _, it := range out.Iterations {
		for _, h := range it.Hits {
			if len(h.Hsps) < 1 {
				continue
			}
			first := h.Hsps[0]
			hits = append(hits, Hit{
				Title:      strings.TrimSpace(h.ID + " " + h.Def),
				Accession:  h.Accession,
				Score:      first.Score,
				Bits:       first.BitScore,
				Evalue:     first.Evalue,
				Identities: first.Identity,
				AlignLen:   first.AlignLen,
				Query:      first.QSeq,
				Match:      first.Midline,
				Subject:    first.HSeq,
			})
		}
	}
	return hits, nil
}

// ParseFile reads hits from a BLAST XML file.
func ParseFile(path string) ([]Hit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hits, err := Parse(f)
	var pe *errs.ParseError
	if errors.As(err, &pe) {
		pe.Path = path
	}
	return hits, err
}
