// Package export writes a user's receipt history as an XLSX workbook with
// one sheet of receipts and one sheet of items.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"frigo/internal/domain"
)

const (
	ReceiptsSheet = "Receipts"
	ItemsSheet    = "Items"
)

// receiptColumns defines the Receipts sheet header row.
var receiptColumns = []string{
	"Receipt ID",
	"Store",
	"Store Address",
	"Receipt Date",
	"Total",
	"Status",
	"Parser",
	"OCR Confidence",
	"Parsing Confidence",
	"Image Quality",
	"Item Count",
	"Confirmed At",
	"Created At",
}

// itemColumns defines the Items sheet header row.
var itemColumns = []string{
	"Receipt ID",
	"Line",
	"Name",
	"Quantity",
	"Unit",
	"Unit Price",
	"Total Price",
	"Discount",
	"Product Code",
	"Confidence",
	"Needs Review",
	"Raw Line",
}

// Writer builds the workbook in memory.
type Writer struct {
	file        *excelize.File
	receiptRow  int
	itemRow     int
	wroteHeader bool
}

// NewWriter creates an empty workbook with the Receipts and Items sheets.
func NewWriter() (*Writer, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ReceiptsSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(ItemsSheet); err != nil {
		return nil, fmt.Errorf("creating items sheet: %w", err)
	}
	return &Writer{file: f, receiptRow: 1, itemRow: 1}, nil
}

// WriteHeader writes both header rows.
func (w *Writer) WriteHeader() error {
	if w.wroteHeader {
		return nil
	}
	if err := w.setRow(ReceiptsSheet, w.receiptRow, toRow(receiptColumns)); err != nil {
		return err
	}
	if err := w.setRow(ItemsSheet, w.itemRow, toRow(itemColumns)); err != nil {
		return err
	}
	w.receiptRow++
	w.itemRow++
	w.wroteHeader = true
	return nil
}

// WriteReceipts appends one row per receipt and one row per item.
func (w *Writer) WriteReceipts(receipts []domain.Receipt) error {
	for i := range receipts {
		r := &receipts[i]
		if err := w.setRow(ReceiptsSheet, w.receiptRow, receiptToRow(r)); err != nil {
			return err
		}
		w.receiptRow++

		for j := range r.Items {
			if err := w.setRow(ItemsSheet, w.itemRow, itemToRow(r.ID.String(), &r.Items[j])); err != nil {
				return err
			}
			w.itemRow++
		}
	}
	return nil
}

// WriteTo serializes the workbook to out.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	return w.file.WriteTo(out)
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.file.Close()
}

func (w *Writer) setRow(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(cols []string) []interface{} {
	row := make([]interface{}, len(cols))
	for i, c := range cols {
		row[i] = c
	}
	return row
}

func receiptToRow(r *domain.Receipt) []interface{} {
	row := make([]interface{}, len(receiptColumns))
	row[0] = r.ID.String()
	row[1] = r.StoreName
	row[2] = derefString(r.StoreAddress)
	row[3] = formatDate(r.ReceiptDate)
	row[4] = formatMoney(r.TotalAmount)
	row[5] = string(r.Status)
	row[6] = string(r.ParserUsed)
	row[7] = r.OCRConfidence
	row[8] = r.ParsingConfidence
	row[9] = r.ImageQuality
	row[10] = len(r.Items)
	row[11] = formatTime(r.ConfirmedAt)
	row[12] = r.CreatedAt.Format(time.RFC3339)
	return row
}

func itemToRow(receiptID string, it *domain.ReceiptItem) []interface{} {
	row := make([]interface{}, len(itemColumns))
	row[0] = receiptID
	row[1] = it.LineNumber
	row[2] = it.Name
	row[3] = it.Quantity
	row[4] = string(it.Unit)
	row[5] = formatMoney(it.UnitPrice)
	row[6] = strconv.FormatFloat(it.TotalPrice, 'f', 2, 64)
	row[7] = formatMoney(it.Discount)
	row[8] = derefString(it.ProductCode)
	row[9] = it.Confidence
	row[10] = formatBool(it.NeedsReview)
	row[11] = it.RawLine
	return row
}

func formatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BuildFilename returns the Content-Disposition filename for an export.
// Format: receipts_{YYYY-MM-DD}.xlsx
func BuildFilename(now time.Time) string {
	return fmt.Sprintf("receipts_%s.xlsx", now.Format("2006-01-02"))
}
