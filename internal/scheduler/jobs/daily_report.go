package jobs

import (
	"context"
	"time"

	"github.com/wonny/quantfolio/internal/report"
	"github.com/wonny/quantfolio/pkg/logger"
)

// DefaultReportSchedule weekdays 18:00 (after US/EU close data is available)
const DefaultReportSchedule = "0 0 18 * * 1-5"

// DailyReportJob writes the daily market report
type DailyReportJob struct {
	generator *report.Generator
	schedule  string
	logger    *logger.Logger
	now       func() time.Time
}

// NewDailyReportJob creates a new daily report job
func NewDailyReportJob(generator *report.Generator, schedule string, log *logger.Logger) *DailyReportJob {
	if schedule == "" {
		schedule = DefaultReportSchedule
	}
	return &DailyReportJob{
		generator: generator,
		schedule:  schedule,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *DailyReportJob) Name() string {
	return "daily_report"
}

// Schedule returns the cron schedule
func (j *DailyReportJob) Schedule() string {
	return j.schedule
}

// Run generates today's report
func (j *DailyReportJob) Run(ctx context.Context) error {
	path, r, err := j.generator.Generate(ctx, j.now())
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"path":    path,
		"rows":    len(r.Rows),
		"skipped": len(r.Skipped),
	}).Info("Daily report job completed")

	return nil
}
