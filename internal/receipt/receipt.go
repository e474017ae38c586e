// Package receipt renders a sale as a printable PDF slip with a QR
// code that encodes the sale id for later lookup.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// Line is one printed row of the receipt.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// Receipt is everything Render needs to lay out the slip.
type Receipt struct {
	ShopName  string
	SaleID    string
	CreatedAt time.Time
	Lines     []Line
	Total     float64
}

// Render produces the PDF bytes for a receipt. The slip uses an 80mm
// thermal-roll width so it prints on common POS printers.
func Render(r Receipt) ([]byte, error) {
	const pageWidth = 80.0
	pageHeight := 70.0 + float64(len(r.Lines))*6

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	shopName := r.ShopName
	if shopName == "" {
		shopName = "Sales Receipt"
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 6, shopName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 7)
	pdf.CellFormat(70, 4, r.CreatedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	pdf.CellFormat(70, 4, "Sale "+r.SaleID, "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 8)
	for _, line := range r.Lines {
		pdf.CellFormat(34, 5, line.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(10, 5, fmt.Sprintf("x%d", line.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(26, 5, fmt.Sprintf("%.2f", line.UnitPrice*float64(line.Quantity)), "", 1, "R", false, 0, "")
	}

	pdf.Ln(1)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(44, 6, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(26, 6, fmt.Sprintf("%.2f", r.Total), "T", 1, "R", false, 0, "")

	qrPng, err := qrcode.Encode(r.SaleID, qrcode.Low, 256)
	if err != nil {
		return nil, err
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader("sale_qr", opts, bytes.NewReader(qrPng))

	qrSize := 22.0
	pdf.ImageOptions("sale_qr", (pageWidth-qrSize)/2, pdf.GetY()+3, qrSize, qrSize, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
