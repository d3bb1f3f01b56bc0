package sequence

import (
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"
	"github.com/jjtimmons/cox1/internal/errs"
)

// Gap is the symbol used to pad aligned records.
var Gap = byte(alphabet.DNAgapped.Gap())

// Alignment is a set of records padded with Gap to the same length.
type Alignment struct {
	Records []*Record
}

// ReadAlignment parses an aligned FASTA file and checks that every
// record has the same number of columns.
func ReadAlignment(path string) (*Alignment, error) {
	records, err := Read(path)
	if err != nil {
		return nil, err
	}

	aln := &Alignment{Records: records}
	if err := aln.validate(); err != nil {
		return nil, &errs.ParseError{Path: path, Err: err}
	}
	return aln, nil
}

func (a *Alignment) validate() error {
	if len(a.Records) < 1 {
		return fmt.Errorf("empty alignment")
	}

	want := len(a.Records[0].Seq)
	for _, r := range a.Records[1:] {
		if len(r.Seq) != want {
			return fmt.Errorf(
				"ragged alignment: %s has %d columns, %s has %d",
				a.Records[0].ID, want, r.ID, len(r.Seq),
			)
		}
	}
	return nil
}

// Columns is the shared length of the aligned records.
func (a *Alignment) Columns() int {
	if len(a.Records) < 1 {
		return 0
	}
	return len(a.Records[0].Seq)
}

// Inspect writes the column count and the first width symbols of each record.
func Inspect(w io.Writer, a *Alignment, width int) error {
	if _, err := fmt.Fprintf(w, "Alignment length: %d\n", a.Columns()); err != nil {
		return err
	}
	for _, r := range a.Records {
		if _, err := fmt.Fprintf(w, "%s: %s\n", r.ID, Prefix(r.Seq, width)); err != nil {
			return err
		}
	}
	return nil
}
