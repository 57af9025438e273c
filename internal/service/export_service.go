package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-timetable/config"
	"school-timetable/internal/model"
	"school-timetable/internal/repository"
	pkgerrors "school-timetable/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel：单个 Sheet，每天一列，每个 slot 序号一行，末行为课间休息
//   - ICS：每个有效时间段一个按周重复的 VEVENT，外加每天一个休息事件
//   - 时间表不存在时返回 ErrNotFound，由 Handler 映射为 404
type ExportService interface {
	// ExportExcel 导出为 Excel，返回内容与建议文件名
	ExportExcel(ctx context.Context, className string) (*bytes.Buffer, string, error)
	// ExportICS 导出为 iCalendar；weekOf 为首周内任意日期，零值表示本周
	ExportICS(ctx context.Context, className string, weekOf time.Time) (string, string, error)
}

type exportService struct {
	repo     *repository.Repository
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
// 时区在 config.Validate 中已校验，这里加载失败时退回 UTC
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	loc, err := time.LoadLocation(cfg.Export.Timezone)
	if err != nil {
		logger.Warn("导出时区无效，使用 UTC", zap.String("timezone", cfg.Export.Timezone), zap.Error(err))
		loc = time.UTC
	}
	return &exportService{repo: repo, location: loc, now: time.Now, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportExcel 导出时间表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 标题行：班级名 (部门)
//   - 表头：Slot | Monday | Tuesday ...（按文档中的天顺序）
//   - 单元格：时间段 / 课程 / 教师 / 教室，逐行换行
//   - 末行：Break，合并所有天的列

func (s *exportService) ExportExcel(ctx context.Context, className string) (*bytes.Buffer, string, error) {
	tt, err := s.load(ctx, className)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Timetable"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol := colName(len(tt.Days))
	f.SetColWidth(sheetName, "A", "A", 8)
	if len(tt.Days) > 0 {
		f.SetColWidth(sheetName, "B", lastCol, 22)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s (%s)", tt.ClassName, tt.Department))
	if len(tt.Days) > 0 {
		f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	}
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheetName, "A2", "Slot")
	maxSlots := 0
	for i, d := range tt.Days {
		f.SetCellValue(sheetName, cell(colName(i+1), 2), d.Name)
		if len(d.Slots) > maxSlots {
			maxSlots = len(d.Slots)
		}
	}
	f.SetCellStyle(sheetName, "A2", cell(lastCol, 2), headerStyle)

	// 数据行
	row := 3
	for n := 0; n < maxSlots; n++ {
		f.SetCellValue(sheetName, cell("A", row), fmt.Sprintf("#%d", n+1))
		for i, d := range tt.Days {
			text := "-"
			if n < len(d.Slots) {
				text = slotCellText(d.Slots[n])
			}
			f.SetCellValue(sheetName, cell(colName(i+1), row), text)
		}
		row++
	}
	if maxSlots > 0 && len(tt.Days) > 0 {
		f.SetCellStyle(sheetName, "B3", cell(lastCol, row-1), cellStyle)
	}

	// 课间休息
	f.SetCellValue(sheetName, cell("A", row), "Break")
	if len(tt.Days) > 0 {
		f.SetCellValue(sheetName, cell("B", row), timeRange(tt.BreakTime.Start, tt.BreakTime.End))
		f.MergeCell(sheetName, cell("B", row), cell(lastCol, row))
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("class_name", className), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("timetable_%s.xlsx", fileSafe(tt.ClassName)), nil
}

// ── 内部辅助方法 ──

func (s *exportService) load(ctx context.Context, className string) (*model.Timetable, error) {
	if strings.TrimSpace(className) == "" {
		return nil, pkgerrors.Validation("timetable.export", "className")
	}
	tt, err := s.repo.Timetable.FindByClassName(ctx, className)
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			s.logger.Error("导出时查询时间表失败", zap.String("class_name", className), zap.Error(err))
		}
		return nil, err
	}
	return tt, nil
}

// slotCellText 时间段 / 课程 / 教师 / 教室，空项省略
func slotCellText(sl model.Slot) string {
	var parts []string
	if r := timeRange(sl.StartTime, sl.EndTime); r != "" {
		parts = append(parts, r)
	}
	for _, v := range []string{sl.Course, sl.Teacher, sl.Room} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "\n")
}

func timeRange(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return start + "-" + end
}

// fileSafe 替换文件名中的路径分隔符与空白
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', '"':
			return '_'
		}
		return r
	}, name)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
