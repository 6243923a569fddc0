package report

import (
	"context"
	"fmt"
)

// ReportWriter 定稿写入的持久化操作。实现方不保证跨表原子性。
type ReportWriter interface {
	WriteReportHeader(ctx context.Context, header Header) (string, error)
	WritePresenceRecords(ctx context.Context, reportID string, records []PresenceRecord) error
	WriteWeatherSummary(ctx context.Context, reportID string, summaries []WeatherPeriodSummary) error
	WriteActivity(ctx context.Context, reportID string, activity Activity) (string, error)
	WriteActivityAssignments(ctx context.Context, activityID string, assignments []Allocation) error
	WriteIncident(ctx context.Context, reportID string, incident Incident) (string, error)
	WriteIncidentAssignments(ctx context.Context, incidentID string, affected []Allocation) error
	WriteAttachments(ctx context.Context, reportID string, photos []Attachment) error
	DeleteReport(ctx context.Context, reportID string) error
}

// 写入步骤
const (
	StepHeader      = "header"
	StepPresence    = "presence"
	StepWeather     = "weather"
	StepActivity    = "activity"
	StepIncident    = "incident"
	StepAttachments = "attachments"
)

// Submit 按顺序写入报告。报告头之后任一步失败都会执行补偿删除并返回 *PartialWriteError。
// 报告头写入按 ReportID 幂等，重试不会产生新编号。
func Submit(ctx context.Context, w ReportWriter, p *Payload) error {
	reportID, err := w.WriteReportHeader(ctx, p.Header)
	if err != nil {
		return fmt.Errorf("%w: 写入报告头: %w", ErrPersistence, err)
	}

	var completed []string
	completed = append(completed, StepHeader)

	fail := func(step string, cause error) error {
		pw := &PartialWriteError{
			ReportID:  reportID,
			Step:      step,
			Completed: completed,
			Err:       cause,
		}
		if delErr := w.DeleteReport(context.WithoutCancel(ctx), reportID); delErr != nil {
			pw.CompensationErr = delErr
		} else {
			pw.Compensated = true
		}
		return pw
	}

	if err := w.WritePresenceRecords(ctx, reportID, p.Roster); err != nil {
		return fail(StepPresence, err)
	}
	completed = append(completed, StepPresence)

	if err := w.WriteWeatherSummary(ctx, reportID, p.Weather); err != nil {
		return fail(StepWeather, err)
	}
	completed = append(completed, StepWeather)

	for i, a := range p.Activities {
		step := fmt.Sprintf("%s[%d]", StepActivity, i)
		activityID, err := w.WriteActivity(ctx, reportID, a)
		if err != nil {
			return fail(step, err)
		}
		if err := w.WriteActivityAssignments(ctx, activityID, a.Assignments); err != nil {
			return fail(step, err)
		}
		completed = append(completed, step)
	}

	for i, in := range p.Incidents {
		step := fmt.Sprintf("%s[%d]", StepIncident, i)
		incidentID, err := w.WriteIncident(ctx, reportID, in)
		if err != nil {
			return fail(step, err)
		}
		if err := w.WriteIncidentAssignments(ctx, incidentID, in.Affected); err != nil {
			return fail(step, err)
		}
		completed = append(completed, step)
	}

	if err := w.WriteAttachments(ctx, reportID, p.Photos); err != nil {
		return fail(StepAttachments, err)
	}
	return nil
}
