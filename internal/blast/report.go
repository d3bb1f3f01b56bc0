package blast

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jjtimmons/cox1/internal/sequence"
)

// Report writes the first n hits with their score, identity and the first
// width symbols of the query, match and subject rows.
func Report(w io.Writer, hits []Hit, n, width int) error {
	if n > len(hits) {
		n = len(hits)
	}

	for _, h := range hits[:n] {
		_, err := fmt.Fprintf(
			w,
			"****Alignment****\nsequence: %s\nscore: %s\nidentity: %d/%d\n%s\n%s\n%s\n\n",
			h.Title,
			strconv.FormatFloat(h.Score, 'f', -1, 64),
			h.Identities,
			h.AlignLen,
			sequence.Prefix(h.Query, width),
			sequence.Prefix(h.Match, width),
			sequence.Prefix(h.Subject, width),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
