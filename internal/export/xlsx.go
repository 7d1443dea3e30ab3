package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"prebook/internal/availability"
	"prebook/internal/domain"
	"prebook/internal/models"
)

const sheetName = "예약"

// Exporter пишет месячный календарь броней в xlsx: строки — слоты
// сетки, колонки — дни месяца.
type Exporter struct {
	repo   domain.Repository
	engine *availability.Engine
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, engine *availability.Engine, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		engine: engine,
		path:   path,
		logger: logger,
	}
}

// MonthWorkbook builds the month grid workbook in memory.
func (e *Exporter) MonthWorkbook(ctx context.Context, year, month int) (*excelize.File, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	from := first.Format(models.DateLayout)
	to := last.Format(models.DateLayout)

	bookings, err := e.repo.GetBookingsByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting bookings: %v", err)
	}
	blocks, err := e.repo.GetBlocksByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting blocks: %v", err)
	}

	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%d년 %d월", year, month))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	days := last.Day()
	dateCols := e.writeDateHeaders(f, first, days)
	e.writeGridHeaders(f)
	e.writeCells(f, bookings, blocks, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	lastCol, _ := excelize.ColumnNumberToName(days + 1)
	_ = f.SetColWidth(sheetName, "B", lastCol, 22)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// SaveMonth writes the workbook under the configured exports directory
// and returns the file path.
func (e *Exporter) SaveMonth(ctx context.Context, year, month int) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.MonthWorkbook(ctx, year, month)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%04d-%02d.xlsx", year, month)
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeDateHeaders(f *excelize.File, first time.Time, days int) map[string]int {
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	dateCols := make(map[string]int, days)
	for day := 0; day < days; day++ {
		date := first.AddDate(0, 0, day)
		col := day + 2
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, date.Format("01.02"))
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
		dateCols[date.Format(models.DateLayout)] = col
	}
	return dateCols
}

func (e *Exporter) writeGridHeaders(f *excelize.File) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	for i, label := range e.engine.Grid() {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		_ = f.SetCellValue(sheetName, cell, label)
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func (e *Exporter) writeCells(f *excelize.File, bookings []*models.Booking, blocks []*models.Block, dateCols map[string]int) {
	grid := e.engine.Grid()
	rowByTime := make(map[string]int, len(grid))
	for i, label := range grid {
		rowByTime[label] = i + 3
	}

	wrapStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	blockStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top"},
	})
	pendingStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
	confirmedStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})

	for _, block := range blocks {
		col, okCol := dateCols[block.Date]
		row, okRow := rowByTime[block.Time]
		if !okCol || !okRow {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		text := "차단"
		if block.Reason != "" {
			text += "\n" + block.Reason
		}
		_ = f.SetCellValue(sheetName, cell, text)
		_ = f.SetCellStyle(sheetName, cell, cell, blockStyle)
	}

	for _, b := range bookings {
		if b.Status == models.StatusCancelled || b.Status == models.StatusRejected {
			continue
		}
		col, okCol := dateCols[b.Date]
		row, okRow := rowByTime[b.Time]
		if !okCol || !okRow {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col, row)
		text := fmt.Sprintf("%s\n%s\n%s", b.CustomerName, e.engine.ServiceName(b.ServiceType), statusLabel(b.Status))
		_ = f.SetCellValue(sheetName, cell, text)

		style := wrapStyle
		switch b.Status {
		case models.StatusConfirmed:
			style = confirmedStyle
		case models.StatusPending, models.StatusDepositWait:
			style = pendingStyle
		}
		_ = f.SetCellStyle(sheetName, cell, cell, style)
	}
}

func statusLabel(status models.BookingStatus) string {
	switch status {
	case models.StatusPending:
		return "대기"
	case models.StatusDepositWait:
		return "예약금 대기"
	case models.StatusConfirmed:
		return "확정"
	default:
		return string(status)
	}
}
