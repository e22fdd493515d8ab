package history

import (
	"io"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	exportSheet = "Fiyat Geçmişi"

	// exportDateFormat excelize 내장 숫자 서식 22 (m/d/yy h:mm)
	exportDateFormat = 22
)

var exportHeader = []any{"Zaman", "Toplam (TL)", "Kaynak"}

// WriteXLSX 관측치를 오래된 순서 그대로 XLSX 시트 한 장에 기록합니다.
// 첫 행은 헤더이며 시각은 loc 기준으로 표시합니다(nil 이면 UTC).
func WriteXLSX(w io.Writer, productKey string, points []Point, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "XLSX 시트 이름을 설정하지 못했습니다")
	}
	_ = f.SetDocProps(&excelize.DocProperties{Title: productKey, Creator: "bikonomi"})

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "XLSX 헤더를 기록하지 못했습니다")
	}

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: exportDateFormat})
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "XLSX 서식을 만들지 못했습니다")
	}

	for i, p := range points {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Wrap(err, apperrors.Internal, "XLSX 셀 좌표를 계산하지 못했습니다")
		}

		row := []any{p.Time.In(loc), p.Total, string(p.Kind)}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return apperrors.Wrapf(err, apperrors.Internal, "XLSX %d행을 기록하지 못했습니다", i+2)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, dateStyle); err != nil {
			return apperrors.Wrap(err, apperrors.Internal, "XLSX 서식을 적용하지 못했습니다")
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 20)
	_ = f.SetColWidth(exportSheet, "B", "C", 14)

	if _, err := f.WriteTo(w); err != nil {
		return apperrors.Wrap(err, apperrors.System, "XLSX 파일을 쓰지 못했습니다")
	}

	return nil
}
