package report

import (
	"context"
	"fmt"
	"time"

	"github.com/bizdesk/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetSummary     = "Summary"
	sheetDailySales  = "Daily Sales"
	sheetTopProducts = "Top Products"
)

// Export is a rendered workbook ready to be downloaded or attached
type Export struct {
	Filename string
	Data     []byte
}

// ExportSummary renders the summary of the requested period as an XLSX workbook
func (s *ReportService) ExportSummary(ctx context.Context, companyID uuid.UUID, q SummaryQuery) (*Export, error) {
	summary, err := s.Summary(ctx, companyID, q)
	if err != nil {
		return nil, err
	}
	data, err := RenderWorkbook(summary)
	if err != nil {
		return nil, err
	}
	return &Export{Filename: WorkbookFilename(summary), Data: data}, nil
}

// WorkbookFilename names an exported summary after its period
func WorkbookFilename(summary *report.Summary) string {
	return fmt.Sprintf("summary-%s-%s.xlsx",
		summary.Period.From.Format(time.DateOnly), summary.Period.To.Format(time.DateOnly))
}

// RenderWorkbook writes the Summary, Daily Sales and Top Products sheets
func RenderWorkbook(summary *report.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetDailySales, sheetTopProducts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	t := summary.Totals
	summaryRows := [][]any{
		{"Company", summary.CompanyName},
		{"Currency", summary.Currency},
		{"From", summary.Period.From.Format(time.DateOnly)},
		{"To", summary.Period.To.Format(time.DateOnly)},
		{},
		{"Metric", "Value"},
		{"Sales total", t.SalesTotal.InexactFloat64()},
		{"Purchases total", t.PurchasesTotal.InexactFloat64()},
		{"Gross margin", t.GrossMargin.InexactFloat64()},
		{"Invoices", t.InvoiceCount},
		{"Orders", t.OrderCount},
		{"Paid", t.PaidAmount.InexactFloat64()},
		{"Outstanding", t.OutstandingAmount.InexactFloat64()},
		{"Low stock products", summary.LowStockCount},
	}
	if err := writeRows(f, sheetSummary, summaryRows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetSummary, "A6", "B6", header); err != nil {
		return nil, err
	}

	daily := [][]any{{"Date", "Invoices", "Total"}}
	for _, d := range summary.DailySales {
		daily = append(daily, []any{d.Date.Format(time.DateOnly), d.InvoiceCount, d.Total.InexactFloat64()})
	}
	if err := writeRows(f, sheetDailySales, daily); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetDailySales, "A1", "C1", header); err != nil {
		return nil, err
	}

	top := [][]any{{"Rank", "Product", "Quantity", "Revenue"}}
	for i, p := range summary.TopProducts {
		top = append(top, []any{i + 1, p.ProductName, p.Quantity, p.Revenue.InexactFloat64()})
	}
	if err := writeRows(f, sheetTopProducts, top); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetTopProducts, "A1", "D1", header); err != nil {
		return nil, err
	}

	for _, sheet := range []string{sheetSummary, sheetDailySales, sheetTopProducts} {
		if err := f.SetColWidth(sheet, "A", "D", 20); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
