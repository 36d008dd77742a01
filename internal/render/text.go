package render

import (
	"bufio"
	"fmt"
	"io"
)

// Text writes the plain-text list:
//
//	Shopping list for: Ada Lovelace
//
//	Date: 2026-10-14
//
//	- flour (g) - 500
//	- sugar (g) - 50
//
//	Foodgram (2026)
func Text(w io.Writer, d Document) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Shopping list for: %s\n\n", d.Owner.FullName())
	fmt.Fprintf(bw, "Date: %s\n\n", d.Date.Format("2006-01-02"))
	for i, it := range d.Items {
		if i > 0 {
			bw.WriteByte('\n')
		}
		bw.WriteString(line(it))
	}
	fmt.Fprintf(bw, "\n\nFoodgram (%d)", d.Date.Year())

	return bw.Flush()
}
