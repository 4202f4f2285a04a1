// Package docgen renders the multi-page marketing kit document.
package docgen

import (
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/propkit/marketing-kit-api/internal/core"
)

const (
	// MaxGridImages caps the photo grid regardless of how many photos were
	// uploaded.
	MaxGridImages = 6
	gridCols      = 3
	gridGapMM     = 4.0

	pageMarginMM = 12.0
	cellAspect   = 0.72 // grid cell height / width
)

// PDFRenderer renders the kit document with fpdf.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render writes the kit document to params.OutPath: a header with the address
// and summary, a bounded image grid, the long-form listing text, and the
// caption list when present.
func (r *PDFRenderer) Render(ctx context.Context, params core.DocumentParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(params.Address, true)
	pdf.SetMargins(pageMarginMM, pageMarginMM, pageMarginMM)
	pdf.SetAutoPageBreak(true, pageMarginMM)
	pdf.AddPage()

	renderHeader(pdf, params)
	renderImageGrid(pdf, params.ImagePaths)
	renderBody(pdf, params)

	if err := pdf.OutputFileAndClose(params.OutPath); err != nil {
		return fmt.Errorf("write pdf %s: %w", params.OutPath, err)
	}
	return nil
}

func renderHeader(pdf *fpdf.Fpdf, params core.DocumentParams) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.MultiCell(0, 10, params.Address, "", "L", false)

	if params.Copy.Summary != "" {
		pdf.SetFont("Helvetica", "I", 13)
		pdf.SetTextColor(90, 90, 90)
		pdf.MultiCell(0, 7, params.Copy.Summary, "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)
}

// capGrid bounds the grid to MaxGridImages, preserving input order.
func capGrid(imagePaths []string) []string {
	if len(imagePaths) > MaxGridImages {
		return imagePaths[:MaxGridImages]
	}
	return imagePaths
}

func renderImageGrid(pdf *fpdf.Fpdf, imagePaths []string) {
	imagePaths = capGrid(imagePaths)
	if len(imagePaths) == 0 {
		return
	}

	pageW, _ := pdf.GetPageSize()
	usable := pageW - 2*pageMarginMM
	cellW := (usable - gridGapMM*(gridCols-1)) / gridCols
	cellH := cellW * cellAspect

	startX := pageMarginMM
	x, y := startX, pdf.GetY()
	for i, path := range imagePaths {
		if i > 0 && i%gridCols == 0 {
			x = startX
			y += cellH + gridGapMM
		}
		pdf.ImageOptions(path, x, y, cellW, cellH, false,
			fpdf.ImageOptions{ReadDpi: true}, 0, "")
		x += cellW + gridGapMM
	}

	rows := (len(imagePaths) + gridCols - 1) / gridCols
	pdf.SetY(pdf.GetY() + float64(rows)*(cellH+gridGapMM))
	pdf.Ln(2)
}

func renderBody(pdf *fpdf.Fpdf, params core.DocumentParams) {
	if params.Copy.Description != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, params.Copy.Description, "", "L", false)
		pdf.Ln(4)
	}

	if len(params.Copy.Captions) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, "Social captions", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, caption := range params.Copy.Captions {
			pdf.MultiCell(0, 6, "- "+caption, "", "L", false)
		}
	}
}
