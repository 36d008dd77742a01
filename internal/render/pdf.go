package render

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDF writes the list as a one-column A4 document with a two-column table
// of ingredient and amount.
//
// The core Helvetica font covers Windows-1252 only; text is run through
// fpdf's translator, so characters outside that code page are replaced.
func PDF(w io.Writer, d Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Shopping list", true)
	pdf.SetCreationDate(d.Date)
	pdf.SetModificationDate(d.Date)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Shopping list for: "+d.Owner.FullName()), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, "Date: "+d.Date.Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	const nameWidth, amountWidth, rowHeight = 120.0, 50.0, 8.0

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(nameWidth, rowHeight, "Ingredient", "1", 0, "L", true, 0, "")
	pdf.CellFormat(amountWidth, rowHeight, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, it := range d.Items {
		pdf.CellFormat(nameWidth, rowHeight, tr(it.IngredientName), "1", 0, "L", false, 0, "")
		pdf.CellFormat(amountWidth, rowHeight, tr(fmt.Sprintf("%d %s", it.TotalAmount, it.MeasurementUnit)), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Foodgram (%d)", d.Date.Year()), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render: building pdf: %w", err)
	}
	return pdf.Output(w)
}
