// Package sequence reads and writes FASTA files of nucleotide records and
// the aligned FASTA returned by the alignment service.
package sequence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/jjtimmons/cox1/internal/errs"
)

// Ext is the extension of per-species and combined sequence files.
const Ext = ".fasta"

// lineWidth is the residue count per line when writing FASTA.
const lineWidth = 60

// Record is a single FASTA entry.
type Record struct {
	// ID is the header up to the first space. In ">NC_012920.1 Homo sapiens" its "NC_012920.1"
	ID string `json:"id"`

	// Desc is the remainder of the header line
	Desc string `json:"desc,omitempty"`

	// Seq is the residues, gaps included for aligned records
	Seq string `json:"seq"`
}

// Stem returns the file name stem for a species' gene, ex:
// "Pan troglodytes", "COX1" -> "Pan_troglodytes_COX1".
func Stem(species, gene string) string {
	return strings.Join(strings.Fields(species), "_") + "_" + gene
}

// Path returns the FASTA path for a species' gene within dir.
func Path(dir, species, gene string) string {
	return filepath.Join(dir, Stem(species, gene)+Ext)
}

// Read parses every record in the FASTA file at path.
func Read(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, &errs.ParseError{Path: path, Err: err}
	}
	if len(records) < 1 {
		return nil, &errs.ParseError{Path: path, Err: fmt.Errorf("no FASTA records")}
	}
	return records, nil
}

// Parse reads FASTA records from r in file order.
func Parse(r io.Reader) ([]*Record, error) {
	template := linear.NewSeq("", nil, alphabet.DNAredundant)
	sc := seqio.NewScanner(fasta.NewReader(r, template))

	var records []*Record
	for sc.Next() {
		s, ok := sc.Seq().(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("unexpected sequence type %T", sc.Seq())
		}
		records = append(records, &Record{
			ID:   s.ID,
			Desc: s.Desc,
			Seq:  s.Seq.String(),
		})
	}
	if err := sc.Error(); err != nil {
		return nil, err
	}
	return records, nil
}

// Write creates (or truncates) path and writes records to it as FASTA.
func Write(path string, records []*Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err = Format(bw, records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return bw.Flush()
}

// Format writes records to w as FASTA.
func Format(w io.Writer, records []*Record) error {
	fw := fasta.NewWriter(w, lineWidth)
	for _, r := range records {
		s := linear.NewSeq(r.ID, alphabet.BytesToLetters([]byte(r.Seq)), alphabet.DNAredundant)
		s.Desc = r.Desc
		if _, err := fw.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// Prefix returns the first n symbols of s, or all of s if it is shorter.
func Prefix(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
