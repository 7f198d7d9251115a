package services

import (
	"bytes"
	"context"
	"fmt"

	"pam-backend/internal/models"
	"pam-backend/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/xuri/excelize/v2"
)

type stockStatusStore interface {
	StockStatus(ctx context.Context, siteID int) ([]*models.StockStatus, error)
}

// statusCache serves cached report rows; a miss returns ok=false and the
// caller falls through to the store.
type statusCache interface {
	GetStockStatus(ctx context.Context, siteID int) ([]*models.StockStatus, bool)
	SetStockStatus(ctx context.Context, siteID int, rows []*models.StockStatus)
}

type requestDocStore interface {
	Get(ctx context.Context, id int) (*models.MaterialRequest, error)
	Details(ctx context.Context, materialID int) ([]*models.MaterialDetail, error)
}

// ReportService builds the stock-status report and its PDF and Excel
// renditions.
type ReportService struct {
	stock    stockStatusStore
	requests requestDocStore
	items    itemStore
	access   accessChecker
	cache    statusCache
}

func NewReportService(stock stockStatusStore, requests requestDocStore, items itemStore, checker accessChecker, cache statusCache) *ReportService {
	return &ReportService{stock: stock, requests: requests, items: items, access: checker, cache: cache}
}

// StockStatus returns the per-item totals for a site, cached per site until
// the next ledger write.
func (s *ReportService) StockStatus(ctx context.Context, user *models.User, siteID int) ([]*models.StockStatus, error) {
	ok, err := s.access.HasSiteAccess(ctx, user, siteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	if s.cache != nil {
		if rows, hit := s.cache.GetStockStatus(ctx, siteID); hit {
			return rows, nil
		}
	}
	rows, err := s.stock.StockStatus(ctx, siteID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetStockStatus(ctx, siteID, rows)
	}
	return rows, nil
}

// StockStatusExcel renders the report as an xlsx workbook.
func (s *ReportService) StockStatusExcel(ctx context.Context, user *models.User, siteID int) ([]byte, error) {
	rows, err := s.StockStatus(ctx, user, siteID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Stock Status"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Item", "Unit", "Category", "Requested", "Ordered", "Received", "Consumed", "In Stock"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	for i, r := range rows {
		values := []interface{}{r.Item, r.Unit, r.CategoryName, r.Requested,
			r.Ordered, r.Received, r.Consumed, r.Received - r.Consumed}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// StockStatusPDF renders the report as a landscape A4 PDF.
func (s *ReportService) StockStatusPDF(ctx context.Context, user *models.User, siteID int) ([]byte, error) {
	rows, err := s.StockStatus(ctx, user, siteID)
	if err != nil {
		return nil, err
	}

	siteName := ""
	if len(rows) > 0 {
		siteName = rows[0].SiteName
	}

	pdf := gofpdf.New("L", "mm", "A4", "") // Landscape for more columns
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(277, 10, fmt.Sprintf("Stock Status - %s", siteName), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(277, 6, fmt.Sprintf("Generated: %s", timeutil.Now().Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(77, 7, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 7, "Category", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Requested", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Ordered", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Received", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Consumed", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		name := r.Item
		if len(name) > 45 {
			name = name[:42] + "..."
		}
		pdf.CellFormat(77, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, r.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, r.CategoryName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%g", r.Requested), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%g", r.Ordered), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%g", r.Received), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%g", r.Consumed), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RequestPDF renders a material request with its line items for the paper
// trail that accompanies approvals.
func (s *ReportService) RequestPDF(ctx context.Context, user *models.User, requestID int) ([]byte, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	ok, err := s.access.HasSiteAccess(ctx, user, req.SiteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	details, err := s.requests.Details(ctx, requestID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, fmt.Sprintf("Material Request %s", req.RefNo), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Date: %s    Status: %s", req.Date.Format("02-Jan-2006"), req.Status), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(110, 7, "Item", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Unit", "1", 0, "C", true, 0, "")
	pdf.CellFormat(50, 7, "Quantity", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, d := range details {
		name, unit := fmt.Sprintf("Item %d", d.ItemID), ""
		if item, err := s.items.Get(ctx, d.ItemID); err == nil && item != nil {
			name, unit = item.Name, item.Unit
		}
		if len(name) > 60 {
			name = name[:57] + "..."
		}
		pdf.CellFormat(110, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%g", d.Quantity), "1", 1, "R", false, 0, "")
	}

	if req.Remarks != "" {
		pdf.Ln(5)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 6, "Remarks", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, req.Remarks, "", "L", false)
	}
	if req.RejectionNote != "" {
		pdf.Ln(3)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 6, "Rejection Note", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, req.RejectionNote, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
