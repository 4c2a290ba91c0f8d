package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"frigo/internal/domain"
)

func readBack(t *testing.T, w *Writer) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	_, err := w.WriteTo(&buf)
	require.NoError(t, err)
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteHeader(t *testing.T) {
	w, err := NewWriter()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteHeader())

	f := readBack(t, w)
	rows, err := f.GetRows(ReceiptsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, receiptColumns, rows[0])

	rows, err = f.GetRows(ItemsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Raw Line", rows[0][len(itemColumns)-1])
}

func TestWriteReceipts(t *testing.T) {
	total := 7.29
	unit := 1.80
	discount := 0.50
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	receipt := domain.Receipt{
		ID:          uuid.New(),
		StoreName:   "Carrefour",
		ReceiptDate: &date,
		TotalAmount: &total,
		Status:      domain.ReceiptStatusPending,
		ParserUsed:  domain.ParserCarrefour,
		CreatedAt:   time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Items: []domain.ReceiptItem{
			{Name: "Poulet", Quantity: 1, Unit: domain.UnitPiece, TotalPrice: 5.99, LineNumber: 2},
			{Name: "Yaourt Nature", Quantity: 1, Unit: domain.UnitPiece, UnitPrice: &unit, TotalPrice: 1.30, Discount: &discount, LineNumber: 4, NeedsReview: true},
		},
	}

	w, err := NewWriter()
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteReceipts([]domain.Receipt{receipt}))

	f := readBack(t, w)

	t.Run("receipt row", func(t *testing.T) {
		rows, err := f.GetRows(ReceiptsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, receipt.ID.String(), rows[1][0])
		assert.Equal(t, "Carrefour", rows[1][1])
		assert.Equal(t, "2024-03-15", rows[1][3])
		assert.Equal(t, "7.29", rows[1][4])
		assert.Equal(t, "pending", rows[1][5])
		assert.Equal(t, "2", rows[1][10])
	})

	t.Run("item rows", func(t *testing.T) {
		rows, err := f.GetRows(ItemsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Poulet", rows[1][2])
		assert.Equal(t, "5.99", rows[1][6])
		assert.Equal(t, "Yaourt Nature", rows[2][2])
		assert.Equal(t, "1.80", rows[2][5])
		assert.Equal(t, "0.50", rows[2][7])
		assert.Equal(t, "Yes", rows[2][10])
	})
}

func TestBuildFilename(t *testing.T) {
	assert.Equal(t, "receipts_2024-03-15.xlsx", BuildFilename(time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)))
}
