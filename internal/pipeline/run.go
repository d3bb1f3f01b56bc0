package pipeline

import (
	"context"
	"errors"
	"fmt"
)

// Run executes every stage in order. Too few fetched sequences skips the
// alignment and inspection but still runs the search; none at all is an
// error. The search uses query, or the first combined record if it's empty.
func (p *Pipeline) Run(ctx context.Context, query string) error {
	paths, err := p.Fetch(ctx, p.Conf.Species)
	if err != nil {
		return err
	}
	if len(paths) < 1 {
		return fmt.Errorf("no %s records found for %d species", p.Conf.Gene, len(p.Conf.Species))
	}

	if _, err := p.Combine(); err != nil {
		return err
	}

	switch err := p.Align(ctx); {
	case errors.Is(err, ErrTooFewSequences):
		p.Logger.Warn().Err(err).Msg("skipping alignment")
	case err != nil:
		return err
	default:
		if err := p.Inspect(); err != nil {
			return err
		}
		fmt.Fprintln(p.Out)
	}

	if query == "" {
		query = p.Conf.Paths.Combined
	}
	_, err = p.Search(ctx, query)
	return err
}
