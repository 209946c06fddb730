package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/quantfolio/internal/report"
	"github.com/wonny/quantfolio/internal/scheduler"
	"github.com/wonny/quantfolio/internal/scheduler/jobs"
	"github.com/wonny/quantfolio/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run daily_report`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- daily_report: 평일 오후 6시 (REPORT_SCHEDULE)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// initScheduler registers every job against the shared app dependencies
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log.Component("scheduler"),
		scheduler.WithRetry(3, time.Minute),
		scheduler.WithJobTimeout(10*time.Minute),
	)

	generator := report.NewGenerator(a.prices, a.cfg.Report, a.log.Component("report"))
	if a.redis.Enabled() {
		generator.WithSnapshots(redis.NewCache(a.redis, ""), redis.TTLReport)
	}

	if err := sched.AddJob(jobs.NewDailyReportJob(generator, a.cfg.Report.Schedule, a.log.Component("daily_report"))); err != nil {
		return nil, fmt.Errorf("add daily report job: %w", err)
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Quantfolio Scheduler ===")

	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	stats := sched.GetJobStats()
	for _, name := range sched.GetAllJobs() {
		fmt.Printf("  - %s (%s)\n", name, stats[name].Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit

	fmt.Println("\n🛑 Shutting down scheduler...")
	sched.Stop()
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return err
	}

	stats := sched.GetJobStats()
	t := newTable("Job", "Schedule")
	for _, name := range sched.GetAllJobs() {
		t.AppendRow([]interface{}{name, stats[name].Schedule})
	}
	t.Render()
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return err
	}

	PrintInfo(fmt.Sprintf("Running %s...", args[0]))
	result, err := sched.RunNow(cmd.Context(), args[0])
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", result.JobName, result.Duration.Round(time.Millisecond)))
	return nil
}
