// Package report renders a user's ledger as a spreadsheet.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"stockit/models"
	"stockit/utils"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName     = "Transactions"
	ContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileExtension = ".xlsx"
)

var columns = []string{"Date", "Type", "Symbol", "Company", "Quantity", "Price", "Total amount"}

var columnWidths = []struct {
	from, to string
	width    float64
}{
	{"A", "A", 20},
	{"D", "D", 28},
	{"F", "G", 14},
}

// TransactionsXLSX renders transactions, in the order given, into a single
// sheet workbook.
func TransactionsXLSX(ctx context.Context, transactions []models.Transaction) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "report.TransactionsXLSX"

	slog.Debug("generate start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", len(transactions)))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("%s: rename sheet: %w", op, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: header style: %w", op, err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return nil, fmt.Errorf("%s: date style: %w", op, err)
	}

	for i, title := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("%s: header cell: %w", op, err)
		}
		if err := f.SetCellStr(sheetName, cell, title); err != nil {
			return nil, fmt.Errorf("%s: write header: %w", op, err)
		}
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil, fmt.Errorf("%s: header cell: %w", op, err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("%s: apply header style: %w", op, err)
	}

	for i, tx := range transactions {
		if err := writeRow(f, i+2, tx); err != nil {
			return nil, fmt.Errorf("%s: write row %d: %w", op, i+2, err)
		}
	}
	if len(transactions) > 0 {
		last := fmt.Sprintf("A%d", len(transactions)+1)
		if err := f.SetCellStyle(sheetName, "A2", last, dateStyle); err != nil {
			return nil, fmt.Errorf("%s: apply date style: %w", op, err)
		}
	}

	for _, w := range columnWidths {
		if err := f.SetColWidth(sheetName, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("%s: column width: %w", op, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("generate completed", slog.String("rqID", rqID), slog.String("op", op))
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, tx models.Transaction) error {
	if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), tx.TransactionDate.UTC()); err != nil {
		return err
	}
	if err := f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), string(tx.Type)); err != nil {
		return err
	}
	if err := f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), tx.Symbol); err != nil {
		return err
	}
	if err := f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), tx.CompanyName); err != nil {
		return err
	}
	if err := f.SetCellInt(sheetName, fmt.Sprintf("E%d", row), tx.Quantity); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), tx.Price.InexactFloat64()); err != nil {
		return err
	}
	return f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), tx.TotalAmount.InexactFloat64())
}
