package reports

import (
	"bytes"
	"fmt"
	"time"

	"learnspace/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// SlipPayload is the QR content of an approval slip.
func SlipPayload(item models.BookingRequest) string {
	return fmt.Sprintf("%s|%s|%s|%s", item.ID, item.Room, item.Date, item.Time)
}

// SummaryPDF renders the totals and the queue listing.
func SummaryPDF(s Summary, items []models.BookingRequest, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "LearnSpace booking summary")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, "Generated "+generated.Format("2006-01-02 15:04 MST"))
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 12)
	for _, line := range []string{
		fmt.Sprintf("Total requests: %d", s.Total),
		fmt.Sprintf("Approved: %d", s.Approved),
		fmt.Sprintf("Pending: %d", s.Pending),
		fmt.Sprintf("Rejected: %d", s.Rejected),
	} {
		pdf.Cell(0, 8, line)
		pdf.Ln(7)
	}
	pdf.Ln(3)
	for _, rc := range s.ByRole {
		pdf.Cell(0, 8, fmt.Sprintf("%s: %d", rc.Name, rc.Value))
		pdf.Ln(7)
	}

	pdf.Ln(5)
	widths := []float64{38, 22, 30, 26, 30, 24}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"ID", "Room", "Requester", "Date", "Time", "Status"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, item := range items {
		for i, v := range []string{item.ID, item.Room, item.UserID, item.Date, item.Time, item.Status.String()} {
			pdf.CellFormat(widths[i], 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// SlipPDF renders a printable approval slip with a QR code.
func SlipPDF(item models.BookingRequest) ([]byte, error) {
	qrPNG, err := qrcode.Encode(SlipPayload(item), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Room booking approval")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	for _, line := range []string{
		"Request: " + item.ID,
		"Room: " + item.Room,
		"Requested by: " + item.UserID + " (" + string(item.Role) + ")",
		"Date: " + item.Date,
		"Time: " + item.Time,
		"Purpose: " + item.Message,
		"Status: " + item.Status.String(),
	} {
		pdf.Cell(0, 10, line)
		pdf.Ln(8)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render slip pdf: %w", err)
	}
	return buf.Bytes(), nil
}
