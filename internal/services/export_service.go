package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"byggmart/internal/common"
	"byggmart/internal/models"
	"byggmart/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

const (
	ExportBucket    = "invoice-basis"
	exportURLExpiry = 24 * time.Hour
)

// ExportResult is the handle to a rendered document artifact.
type ExportResult struct {
	ObjectName string `json:"object_name"`
	URL        string `json:"url"`
	ExpiresAt  string `json:"expires_at"`
}

// ExportService renders locked invoice basis documents to PDF and serves
// them through presigned object-store URLs.
type ExportService interface {
	ExportPDF(ctx context.Context, principal common.Principal, id uuid.UUID) (*ExportResult, error)
}

type exportService struct {
	repo    repositories.InvoiceBasisRepository
	storage StorageService
}

func NewExportService(repo repositories.InvoiceBasisRepository, storage StorageService) ExportService {
	return &exportService{repo: repo, storage: storage}
}

func (s *exportService) ExportPDF(ctx context.Context, principal common.Principal, id uuid.UUID) (*ExportResult, error) {
	if err := Authorize(principal.Role, ActionExportInvoiceBasis); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetByID(ctx, principal.OrgID, id)
	if err != nil {
		return nil, err
	}
	// Drafts still change; only the locked, signed form is worth exporting.
	if !doc.Locked {
		return nil, common.NewError(common.KindConflict, "invoice basis must be locked before export")
	}

	pdfBytes, err := renderInvoiceBasisPDF(doc)
	if err != nil {
		return nil, common.WrapInternal("failed to render invoice basis pdf", err)
	}

	objectName := fmt.Sprintf("%s/%s.pdf", doc.OrgID, doc.ID)
	if err := s.storage.Upload(ctx, ExportBucket, objectName, "application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes))); err != nil {
		return nil, common.WrapInternal("failed to upload invoice basis pdf", err)
	}

	url, err := s.storage.GetPresignedURL(ctx, ExportBucket, objectName, exportURLExpiry)
	if err != nil {
		return nil, common.WrapInternal("failed to presign invoice basis pdf", err)
	}

	return &ExportResult{
		ObjectName: objectName,
		URL:        url,
		ExpiresAt:  time.Now().Add(exportURLExpiry).Format(time.RFC3339),
	}, nil
}

func renderInvoiceBasisPDF(doc *models.InvoiceBasis) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "INVOICE BASIS")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice Number: %s", common.SafeString(doc.InvoiceNumber)))
	pdf.Ln(8)
	if doc.InvoiceDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Invoice Date: %s", doc.InvoiceDate.String()))
		pdf.Ln(8)
	}
	if doc.DueDate != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Due Date: %s", doc.DueDate.String()))
		pdf.Ln(8)
	}
	if doc.OCRRef != nil {
		pdf.Cell(0, 8, fmt.Sprintf("OCR: %s", *doc.OCRRef))
		pdf.Ln(8)
	}
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s - %s", doc.PeriodStart.String(), doc.PeriodEnd.String()))
	pdf.Ln(12)

	if doc.CustomerSnapshot != nil {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 8, "BILL TO:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 6, doc.CustomerSnapshot.Name)
		pdf.Ln(6)
		if doc.CustomerSnapshot.Address.Street != "" {
			pdf.Cell(0, 6, doc.CustomerSnapshot.Address.Street)
			pdf.Ln(6)
		}
		if doc.CustomerSnapshot.Address.City != "" {
			pdf.Cell(0, 6, fmt.Sprintf("%s %s", doc.CustomerSnapshot.Address.PostalCode, doc.CustomerSnapshot.Address.City))
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	headers := []string{"Description", "Qty", "Unit Price", "VAT %"}
	colWidths := []float64{90, 20, 30, 30}
	for i, header := range headers {
		pdf.CellFormat(colWidths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	for i := range doc.Lines {
		line := &doc.Lines[i]
		pdf.CellFormat(colWidths[0], 8, common.SafeString(line.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, line.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, line.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, line.VATRate.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}
	pdf.Ln(4)

	if doc.Totals != nil {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 8, fmt.Sprintf("Net: %s %s", doc.Totals.Net.StringFixed(2), doc.Totals.Currency))
		pdf.Ln(7)
		pdf.Cell(0, 8, fmt.Sprintf("VAT: %s %s", doc.Totals.VAT.StringFixed(2), doc.Totals.Currency))
		pdf.Ln(7)
		pdf.Cell(0, 8, fmt.Sprintf("Total: %s %s", doc.Totals.Gross.StringFixed(2), doc.Totals.Currency))
		pdf.Ln(10)
	}

	if doc.HashSignature != nil {
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.Cell(0, 6, fmt.Sprintf("Document signature: %s", *doc.HashSignature))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
