// Package render formats a shopping list as a downloadable attachment.
//
// Renderers take the already aggregated and sorted items; they never
// reorder or regroup them. The date is part of the input, so the same list
// rendered with the same date is byte-identical.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sakif/foodgram/internal/model"
)

// Document is one shopping list ready for rendering.
type Document struct {
	Owner model.User
	Items []model.ShoppingItem
	Date  time.Time
}

// Format selects the attachment format.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps the ?format= query value to a Format. The empty string
// selects plain text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("render: unsupported format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Filename is the attachment name for username's list.
func (f Format) Filename(username string) string {
	return username + "_shopping_list." + string(f)
}

// Write renders d in format f to w.
func (f Format) Write(w io.Writer, d Document) error {
	if f == FormatPDF {
		return PDF(w, d)
	}
	return Text(w, d)
}

// line renders one item as "- name (unit) - amount".
func line(it model.ShoppingItem) string {
	return fmt.Sprintf("- %s (%s) - %d", it.IngredientName, it.MeasurementUnit, it.TotalAmount)
}
