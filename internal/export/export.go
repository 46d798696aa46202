// Package export writes collected product records to disk as CSV or as a
// styled spreadsheet, chosen by the destination extension.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/domain"
)

var versionSuffix = regexp.MustCompile(`^(.+?)_(\d+)$`)

// Writer implements the exporter contract used by the scrape runner.
type Writer struct {
	logger *zap.Logger
}

func NewWriter(logger *zap.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write persists records to dest, creating parent directories as needed.
// With autoVersion set, an existing file is kept and a numbered sibling is
// written instead (catalog.xlsx -> catalog_001.xlsx). Returns the path
// actually written.
func (w *Writer) Write(records []domain.Product, dest string, autoVersion bool) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no records to export")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	if autoVersion {
		dest = versionedPath(dest)
	}

	rows := make([]domain.Book, len(records))
	for i, rec := range records {
		rows[i] = domain.Book{ID: i + 1, Product: rec}
	}

	var err error
	if strings.EqualFold(filepath.Ext(dest), ".xlsx") {
		err = writeExcel(rows, dest)
	} else {
		err = writeCSV(rows, dest)
	}
	if err != nil {
		return "", err
	}

	w.logger.Info("export written", zap.String("path", dest), zap.Int("records", len(rows)))
	return dest, nil
}

func writeCSV(rows []domain.Book, dest string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

var excelColumns = []struct {
	header string
	width  float64
}{
	{"id", 5},
	{"source_url", 50},
	{"title", 50},
	{"description", 100},
	{"price", 10},
	{"rating", 10},
	{"availability", 14},
	{"category", 20},
	{"image_url", 50},
}

func writeExcel(rows []domain.Book, dest string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Products"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("excel header style: %w", err)
	}

	for i, col := range excelColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cell := name + "1"
		if err := f.SetCellValue(sheet, cell, col.header); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(excelColumns))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, row := range rows {
		values := []any{
			row.ID, row.SourceURL, row.Title, row.Description,
			row.Price, row.Rating, row.Availability, row.Category, row.ImageURL,
		}
		for j, v := range values {
			name, _ := excelize.ColumnNumberToName(j + 1)
			if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", name, i+2), v); err != nil {
				return err
			}
		}
	}

	// Keep the header visible while scrolling.
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	if err := f.SaveAs(dest); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

// versionedPath returns dest unchanged when it does not exist, otherwise the
// first free numbered sibling: name.csv -> name_001.csv -> name_002.csv.
func versionedPath(dest string) string {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}

	dir := filepath.Dir(dest)
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(filepath.Base(dest), ext)
	if m := versionSuffix.FindStringSubmatch(base); m != nil {
		base = m[1]
	}

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
