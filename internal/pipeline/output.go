package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jjtimmons/cox1/internal/blast"
)

// Output is the JSON summary of a similarity search.
type Output struct {
	// Query's name. In >NC_012920.1 FASTA its "NC_012920.1"
	Query string `json:"query"`

	Program  string `json:"program"`
	Database string `json:"database"`

	// Time, ex: "2018/01/01 20:41:00"
	Time string `json:"time"`

	// Execution is the number of seconds the search took
	Execution float64 `json:"execution"`

	Hits []blast.Hit `json:"hits"`
}

// writeJSON serializes a search's hits to filename.
func writeJSON(filename string, out Output) ([]byte, error) {
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize output: %w", err)
	}

	if err := os.WriteFile(filename, b, 0644); err != nil {
		return b, fmt.Errorf("failed to write the output: %w", err)
	}
	return b, nil
}

// WriteHits saves hits from a search of query, started at start, as JSON.
func (p *Pipeline) WriteHits(filename, query string, hits []blast.Hit, start time.Time) error {
	t := time.Now()
	_, err := writeJSON(filename, Output{
		Query:     query,
		Program:   p.Conf.BLAST.Program,
		Database:  p.Conf.BLAST.Database,
		Time:      t.Format("2006/01/02 15:04:05"),
		Execution: t.Sub(start).Seconds(),
		Hits:      hits,
	})
	return err
}
