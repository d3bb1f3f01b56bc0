// Package pipeline runs the stages of a COX1 comparison: fetch each
// species' record, combine them, align them remotely, inspect the
// alignment and run a remote similarity search.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jjtimmons/cox1/config"
	"github.com/jjtimmons/cox1/internal/blast"
	"github.com/jjtimmons/cox1/internal/errs"
	"github.com/jjtimmons/cox1/internal/sequence"
	"github.com/rs/zerolog"
)

// ErrTooFewSequences is returned by Align when the corpus can't be aligned.
var ErrTooFewSequences = errors.New("at least two sequences are needed for an alignment")

// RecordSource finds and fetches a species' gene record (see ncbi.Client).
type RecordSource interface {
	Search(ctx context.Context, species, gene string) (string, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Aligner aligns a multi-FASTA corpus (see clustal.Client).
type Aligner interface {
	Align(ctx context.Context, sequences []byte) ([]byte, error)
}

// Searcher runs a similarity search and returns its XML report (see blast.Client).
type Searcher interface {
	Search(ctx context.Context, program, database, query string) ([]byte, error)
}

// Pipeline holds the remote clients and settings shared by the stages.
type Pipeline struct {
	Source   RecordSource
	Aligner  Aligner
	Searcher Searcher

	Conf   *config.Config
	Out    io.Writer
	Logger zerolog.Logger

	// Progress, if set, is called after each species is fetched or skipped
	Progress func(species string)
}

// Fetch writes one FASTA file per species into the sequences directory,
// skipping species with no record, and returns the written paths.
func (p *Pipeline) Fetch(ctx context.Context, species []string) ([]string, error) {
	dir := p.Conf.Paths.Sequences
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sequence dir %s: %w", dir, err)
	}

	var paths []string
	for _, s := range species {
		path, err := p.fetchOne(ctx, s)
		if p.Progress != nil {
			p.Progress(s)
		}

		if errors.Is(err, errs.ErrNotFound) {
			p.Logger.Warn().Str("species", s).Str("gene", p.Conf.Gene).Msg("no record found, skipping")
			continue
		}
		if err != nil {
			return paths, fmt.Errorf("failed to fetch %s %s: %w", s, p.Conf.Gene, err)
		}

		p.Logger.Info().Str("species", s).Str("path", path).Msg("saved record")
		paths = append(paths, path)
	}
	return paths, nil
}

func (p *Pipeline) fetchOne(ctx context.Context, species string) (string, error) {
	id, err := p.Source.Search(ctx, species, p.Conf.Gene)
	if err != nil {
		return "", err
	}

	body, err := p.Source.Fetch(ctx, id)
	if err != nil {
		return "", err
	}

	path := sequence.Path(p.Conf.Paths.Sequences, species, p.Conf.Gene)
	records, err := sequence.Parse(bytes.NewReader(body))
	if err != nil || len(records) < 1 {
		if err == nil {
			err = fmt.Errorf("no FASTA records in response for %s", id)
		}
		return "", &errs.ParseError{Path: path, Err: err}
	}

	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Combine writes every record in the sequences directory to the combined file.
func (p *Pipeline) Combine() (int, error) {
	n, err := sequence.Combine(p.Conf.Paths.Sequences, sequence.Ext, p.Conf.Paths.Combined)
	if err != nil {
		return 0, err
	}
	p.Logger.Info().Int("records", n).Str("path", p.Conf.Paths.Combined).Msg("combined sequences")
	return n, nil
}

// Align sends the combined file to the alignment service and saves the
// aligned FASTA it returns, unchanged.
func (p *Pipeline) Align(ctx context.Context) error {
	in, out := p.Conf.Paths.Combined, p.Conf.Paths.Aligned

	records, err := sequence.Read(in)
	if err != nil {
		return err
	}
	if len(records) < 2 {
		return fmt.Errorf("%s has %d record(s): %w", in, len(records), ErrTooFewSequences)
	}

	corpus, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", in, err)
	}

	aligned, err := p.Aligner.Align(ctx, corpus)
	if err != nil {
		return fmt.Errorf("failed to align %s: %w", in, err)
	}

	if err := os.WriteFile(out, aligned, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	p.Logger.Info().Str("path", out).Msg("saved alignment")
	return nil
}

// Inspect reports the column count and each record's leading columns.
func (p *Pipeline) Inspect() error {
	aln, err := sequence.ReadAlignment(p.Conf.Paths.Aligned)
	if err != nil {
		return err
	}
	return sequence.Inspect(p.Out, aln, p.Conf.Clustal.Width)
}

// Search runs a similarity search for the first record in the file at in,
// saves the raw report, and reports the top hits.
func (p *Pipeline) Search(ctx context.Context, in string) ([]blast.Hit, error) {
	records, err := sequence.Read(in)
	if err != nil {
		return nil, err
	}
	query := records[0]
	if len(records) > 1 {
		p.Logger.Warn().
			Int("records", len(records)).
			Str("path", in).
			Str("query", query.ID).
			Msg("only searching with the first record")
	}

	conf := p.Conf.BLAST
	report, err := p.Searcher.Search(ctx, conf.Program, conf.Database, query.Seq)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s against %s: %w", query.ID, conf.Database, err)
	}

	out := p.Conf.Paths.BLAST
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(out, report, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", out, err)
	}

	return p.ReportFile(out)
}

// ReportFile reads a saved BLAST XML report and reports its top hits.
func (p *Pipeline) ReportFile(path string) ([]blast.Hit, error) {
	hits, err := blast.ParseFile(path)
	if err != nil {
		return nil, err
	}

	conf := p.Conf.BLAST
	parsed := len(hits)
	hits = blast.Filter(hits, conf.MinIdentity)
	p.Logger.Info().Int("hits", parsed).Int("kept", len(hits)).Str("path", path).Msg("parsed blast report")

	if err := blast.Report(p.Out, hits, conf.Hits, conf.Width); err != nil {
		return nil, err
	}
	return hits, nil
}
