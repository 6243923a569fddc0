package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"rdo-fidel/backend/config"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
	ErrExportNoEvents     = errors.New("报告中没有带时间段的作业或事件")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 按区域分 Sheet：报告头、出勤、天气、作业、事件、照片
//   - 日历导出把作业和事件按时间段生成 VEVENT，便于导入排程工具
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportReport 导出已定稿报告为 Excel
	ExportReport(ctx context.Context, reportID string) (*bytes.Buffer, string, error)
	// ExportCalendar 导出作业和事件为 iCalendar
	ExportCalendar(ctx context.Context, reportID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	reports ReportService
	loc     *time.Location
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		reports: NewReportService(cfg, repo, logger),
		loc:     cfg.Weather.Location(),
		logger:  logger,
	}
}

// 表头样式
var headerFill = excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1}

// ═══════════════════════════════════════════════════════════
// ExportReport 导出报告为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportReport(ctx context.Context, reportID string) (*bytes.Buffer, string, error) {
	d, err := s.reports.Detail(ctx, reportID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      headerFill,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	sheets := []struct {
		name  string
		write func(f *excelize.File, sheet string, d *repository.ReportDetail) int
	}{
		{"RDO", s.writeHeader},
		{"Efetivo", writePresence},
		{"Clima", writeWeather},
		{"Atividades", writeActivities},
		{"Ocorrências", writeIncidents},
		{"Fotos", writeAttachments},
	}
	for i, sh := range sheets {
		idx, err := f.NewSheet(sh.name)
		if err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sh.name), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		cols := sh.write(f, sh.name, d)
		if cols > 0 {
			f.SetCellStyle(sh.name, "A1", cell(colName(cols-1), 1), headerStyle)
			f.SetColWidth(sh.name, "A", colName(cols-1), 18)
		}
	}
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("RDO_%s_%s.xlsx", d.Report.Number, d.Report.ReportDate.Format(dateLayout))
	return buf, filename, nil
}

// writeRow 在第 row 行从 A 列开始写入
func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(colName(i), row), v)
	}
}

// writeHeader 报告头为两列键值表
func (s *exportService) writeHeader(f *excelize.File, sheet string, d *repository.ReportDetail) int {
	r := d.Report
	pts := "Não"
	if r.PTSRequired {
		pts = "Sim: " + r.PTSActivity
	}
	signed := "Não"
	if len(r.SupervisorSignature) > 0 {
		signed = "Sim"
	}
	rows := [][2]interface{}{
		{"Campo", "Valor"},
		{"Obra", r.SiteName},
		{"Número", r.Number},
		{"Data", r.ReportDate.Format("02/01/2006")},
		{"Supervisor", r.SupervisorID},
		{"Encarregado", r.ForemanID},
		{"Equipe", r.TeamID},
		{"PTS", pts},
		{"Colaboradores", r.Collaborators},
		{"Atividades", r.ActivityCount},
		{"HH trabalhadas", r.TotalHours},
		{"HH perdidas", r.LostHours},
		{"Clima aproximado", r.WeatherApproximated},
		{"Fonte do clima", r.WeatherSource},
		{"Assinatura do supervisor", signed},
		{"Observações", r.Notes},
		{"Finalizado em", r.FinalizedAt.In(s.loc).Format("02/01/2006 15:04")},
	}
	for i, kv := range rows {
		writeRow(f, sheet, i+1, kv[0], kv[1])
	}
	return 2
}

func writePresence(f *excelize.File, sheet string, d *repository.ReportDetail) int {
	writeRow(f, sheet, 1, "Nome", "Função", "Status", "Confirmação", "Método", "Detalhe", "Equipe destino", "Observação")
	for i, p := range d.Presence {
		writeRow(f, sheet, i+2,
			p.MemberName, p.Role, p.Status, p.ConfirmationState, p.ConfirmationMethod,
			p.Detail, p.DestinationTeamID, p.HardwareNote,
		)
	}
	return 8
}

func writeWeather(f *excelize.File, sheet string, d *repository.ReportDetail) int {
	writeRow(f, sheet, 1, "Período", "Condição", "Temp (°C)", "Mín", "Máx", "Umidade (%)", "Vento (km/h)", "Direção", "Chuva (mm)", "Descrição")
	for i, w := range d.Weather {
		writeRow(f, sheet, i+2,
			w.Period, w.Condition, orDash(w.Temperature), orDash(w.TempMin), orDash(w.TempMax),
			orDash(w.Humidity), orDash(w.WindSpeed), w.WindDirection, orDash(w.Precipitation), w.Description,
		)
	}
	return 10
}

func writeActivities(f *excelize.File, sheet string, d *repository.ReportDetail) int {
	writeRow(f, sheet, 1, "Disciplina", "Subdisciplina", "Serviço", "Descrição", "Início", "Fim", "Duração (h)", "Colaborador", "HH")
	row := 2
	for _, a := range d.Activities {
		writeRow(f, sheet, row,
			a.Discipline, a.SubDiscipline, a.Service, a.Description, a.StartTime, a.EndTime, orDash(a.DurationHours), "Total", a.TotalHours,
		)
		row++
		for _, m := range a.Assignments {
			f.SetCellValue(sheet, cell("H", row), m.MemberName)
			f.SetCellValue(sheet, cell("I", row), m.Hours)
			row++
		}
	}
	return 9
}

func writeIncidents(f *excelize.File, sheet string, d *repository.ReportDetail) int {
	writeRow(f, sheet, 1, "Classificação", "Tipo", "Descrição", "Responsável", "Início", "Fim", "Duração (h)", "Afetado", "HH perdidas")
	row := 2
	for _, in := range d.Incidents {
		writeRow(f, sheet, row,
			in.Classification, in.Type, in.Description, in.ResponsibleID, in.StartTime, in.EndTime, orDash(in.DurationHours), "Total", in.LostHours,
		)
		row++
		for _, m := range in.Members {
			f.SetCellValue(sheet, cell("H", row), m.MemberName)
			f.SetCellValue(sheet, cell("I", row), m.Hours)
			row++
		}
	}
	return 9
}

func writeAttachments(f *excelize.File, sheet string, d *repository.ReportDetail) int {
	writeRow(f, sheet, 1, "Arquivo", "Tipo", "Tamanho (bytes)", "Legenda", "Ocorrência", "Armazenamento")
	for i, a := range d.Attachments {
		incident := ""
		if a.IncidentID != nil {
			incident = *a.IncidentID
		}
		writeRow(f, sheet, i+2, a.FileName, a.ContentType, a.Size, a.Caption, incident, a.StorageKey)
	}
	return 6
}

func orDash(v *float64) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar 作业与事件导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 开始/结束时间落在报告日期上；跨零点的时间段结束于次日。
// 未设置时间段的记录跳过。

func (s *exportService) ExportCalendar(ctx context.Context, reportID string) (*bytes.Buffer, string, error) {
	d, err := s.reports.Detail(ctx, reportID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//rdo-server//RDO//PT")
	cal.SetXWRCalName(fmt.Sprintf("RDO %s - %s", d.Report.Number, d.Report.SiteName))

	day := time.Date(d.Report.ReportDate.Year(), d.Report.ReportDate.Month(), d.Report.ReportDate.Day(), 0, 0, 0, 0, s.loc)
	stamp := d.Report.FinalizedAt
	events := 0

	for _, a := range d.Activities {
		start, end, ok := spanOn(day, a.StartTime, a.EndTime)
		if !ok {
			continue
		}
		ev := cal.AddEvent(a.ActivityID + "@rdo")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(joinNonEmpty(" / ", a.Discipline, a.Service, a.Description))
		ev.SetDescription(fmt.Sprintf("HH: %.2f; colaboradores: %d", a.TotalHours, len(a.Assignments)))
		ev.SetLocation(d.Report.SiteName)
		ev.AddProperty(ics.ComponentPropertyCategories, "ATIVIDADE")
		events++
	}
	for _, in := range d.Incidents {
		start, end, ok := spanOn(day, in.StartTime, in.EndTime)
		if !ok {
			continue
		}
		ev := cal.AddEvent(in.IncidentID + "@rdo")
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		ev.SetSummary(joinNonEmpty(" - ", strings.ToUpper(in.Classification), in.Type))
		ev.SetDescription(fmt.Sprintf("%s; HH perdidas: %.2f", in.Description, in.LostHours))
		ev.SetLocation(d.Report.SiteName)
		ev.AddProperty(ics.ComponentPropertyCategories, "OCORRENCIA")
		events++
	}
	if events == 0 {
		return nil, "", ErrExportNoEvents
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("RDO_%s_%s.ics", d.Report.Number, d.Report.ReportDate.Format(dateLayout))
	return buf, filename, nil
}

// spanOn 把 "HH:MM" 时间段落到日期上
func spanOn(day time.Time, start, end string) (time.Time, time.Time, bool) {
	s, err := report.ParseTimeOfDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	e, err := report.ParseTimeOfDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	from := s.On(day)
	return from, from.Add(time.Duration(report.DurationMinutes(s, e)) * time.Minute), true
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
