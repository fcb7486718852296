package pipeline

import (
	"fmt"
	"io"
)

// WriteTextOutput renders PDF page results in the flat text layout the tool
// has always produced: a separator naming the page number, a blank line,
// then that page's text. Failed pages are omitted; the caller reports them
// in the run summary.
func WriteTextOutput(w io.Writer, results []PageResult) error {
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n\n===== PAGE %d =====\n\n", r.Page); err != nil {
			return err
		}
		if _, err := io.WriteString(w, r.Text); err != nil {
			return err
		}
	}
	return nil
}
