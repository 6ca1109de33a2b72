package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/cuongbtq/render-jobs/internal/api/handler"
	"github.com/cuongbtq/render-jobs/internal/api/router"
	"github.com/cuongbtq/render-jobs/internal/config"
	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/scheduler"
	"github.com/cuongbtq/render-jobs/internal/validator"
	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

type serveCommand struct{}

// Execute runs the HTTP facade until SIGINT or SIGTERM
func (cmd *serveCommand) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.cfg
	a.logger.Info("Starting render client",
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("registry_mode", cfg.Registry.Mode),
	)

	var refresher *scheduler.Refresher
	if cfg.Jobs.AutoRefresh {
		refresher = scheduler.NewRefresher(a.orchestrator, cfg.Jobs.RefreshInterval, a.logger.WithComponent("scheduler").Logger)
		refresher.Start(ctx)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(&handler.Dependencies{
		Logger:               a.logger.WithComponent("api").Logger,
		Service:              a.orchestrator,
		Session:              a.session,
		DefaultReward:        cfg.Jobs.DefaultReward,
		DefaultDeadlineHours: cfg.Jobs.DefaultDeadlineHours,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		if refresher != nil {
			refresher.Stop()
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server...")

	if refresher != nil {
		refresher.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info("Server exited gracefully")
	return nil
}

type validateCommand struct {
	Args struct {
		Task string `positional-arg-name:"task" description:"Render task YAML file" required:"yes"`
	} `positional-args:"yes"`
}

// Execute prints the validation report of a task file without touching any remote service
func (cmd *validateCommand) Execute(_ []string) error {
	spec, report, err := cmd.validate()
	if err != nil {
		return err
	}

	printReport(report)
	fmt.Printf("Estimated render time: ~%d min per frame\n", validator.EstimateRenderMinutes(spec))

	if !report.Valid {
		return fmt.Errorf("task %s is not valid", cmd.Args.Task)
	}
	return nil
}

// validate checks the task with the configured thresholds, or the defaults when no config file exists
func (cmd *validateCommand) validate() (domain.RenderTaskSpec, domain.ValidationReport, error) {
	spec, err := loadTask(cmd.Args.Task)
	if err != nil {
		return spec, domain.ValidationReport{}, err
	}

	cfg, err := loadConfig()
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return spec, domain.ValidationReport{}, err
	}

	return spec, initValidator(&cfg.Validation).Validate(spec), nil
}

type submitCommand struct {
	Reward   float64 `short:"r" long:"reward" description:"Reward offered for the job (defaults to jobs.default_reward)"`
	Deadline int     `short:"d" long:"deadline" description:"Deadline in hours (defaults to jobs.default_deadline_hours)"`
	Wallet   string  `short:"w" long:"wallet" env:"RENDER_WALLET_ADDRESS" description:"Wallet address paying the reward"`

	Args struct {
		Task    string `positional-arg-name:"task" description:"Render task YAML file" required:"yes"`
		Payload string `positional-arg-name:"payload" description:"Packed scene archive" required:"yes"`
	} `positional-args:"yes"`
}

// Execute uploads the payload and registers the job
func (cmd *submitCommand) Execute(_ []string) error {
	spec, err := loadTask(cmd.Args.Task)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(cmd.Args.Payload)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	creds, err := a.session.Connect(cmd.Wallet)
	if err != nil {
		return fmt.Errorf("no wallet configured: %w", err)
	}

	sub := domain.Submission{
		Payload:       payload,
		Spec:          spec,
		RewardAmount:  cmd.Reward,
		DeadlineHours: cmd.Deadline,
	}
	if sub.RewardAmount == 0 {
		sub.RewardAmount = a.cfg.Jobs.DefaultReward
	}
	if sub.DeadlineHours == 0 {
		sub.DeadlineHours = a.cfg.Jobs.DefaultDeadlineHours
	}

	fmt.Printf("Uploading %s (%s)...\n", cmd.Args.Payload, domain.FormatSize(int64(len(payload))))

	job, err := a.orchestrator.Submit(ctx, sub, creds)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			printReport(verr.Report)
		}
		return err
	}

	fmt.Printf("Job %s submitted\n", job.JobID)
	fmt.Printf("  content hash: %s\n", job.ContentHash)
	fmt.Printf("  reward:       %.2f\n", job.RewardAmount)
	fmt.Printf("  deadline:     %s\n", job.Deadline().Format(time.RFC3339))
	return nil
}

// errHistoryNotPersisted is returned for job actions that need history from an earlier run
var errHistoryNotPersisted = errors.New("job history is not persisted between runs, enable the database section to fetch or cancel jobs from the command line")

type statusCommand struct {
	NoRefresh bool   `long:"no-refresh" description:"Print the stored history without querying the registry"`
	Fetch     string `long:"fetch" value-name:"JOB_ID" description:"Download the result of a completed job"`
	Cancel    string `long:"cancel" value-name:"JOB_ID" description:"Cancel a pending job"`
	Wallet    string `short:"w" long:"wallet" env:"RENDER_WALLET_ADDRESS" description:"Wallet address used for cancellation"`
}

// Execute reconciles the tracked jobs and prints them
func (cmd *statusCommand) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if (cmd.Fetch != "" || cmd.Cancel != "") && !a.cfg.Database.Enabled {
		return errHistoryNotPersisted
	}

	if !cmd.NoRefresh {
		updated, err := a.orchestrator.RefreshAll(ctx)
		if err != nil {
			return fmt.Errorf("refresh interrupted: %w", err)
		}
		fmt.Printf("%d job(s) updated\n", updated)
	}

	if cmd.Cancel != "" {
		creds, err := a.session.Connect(cmd.Wallet)
		if err != nil {
			return fmt.Errorf("no wallet configured: %w", err)
		}
		cancelled, err := a.orchestrator.Cancel(ctx, cmd.Cancel, creds)
		if err != nil {
			return err
		}
		fmt.Printf("Job %s cancelled: %t\n", cmd.Cancel, cancelled)
	}

	if cmd.Fetch != "" {
		path, err := a.orchestrator.FetchResult(ctx, cmd.Fetch)
		if err != nil {
			return err
		}
		fmt.Printf("Result of %s saved to %s\n", cmd.Fetch, path)
	}

	printJobs(a.orchestrator.Jobs())
	return nil
}

func loadTask(path string) (domain.RenderTaskSpec, error) {
	var spec domain.RenderTaskSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, fmt.Errorf("failed to read task file: %w", err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("failed to parse task file: %w", err)
	}
	return spec, nil
}

func printReport(report domain.ValidationReport) {
	for _, issue := range report.Issues {
		fmt.Printf("  issue:   %s\n", issue)
	}
	for _, warning := range report.Warnings {
		fmt.Printf("  warning: %s\n", warning)
	}
	if report.Valid && len(report.Warnings) == 0 {
		fmt.Println("  no problems found")
	}
}

func printJobs(jobs []domain.Job) {
	if len(jobs) == 0 {
		fmt.Println("No jobs tracked")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tSTATUS\tREWARD\tSUBMITTED\tRESULT")
	// newest first
	for i := len(jobs) - 1; i >= 0; i-- {
		j := jobs[i]
		result := j.ResultPath
		if result == "" {
			result = j.ResultHash
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
			j.JobID, j.Status, j.RewardAmount, j.SubmittedAt.Local().Format(time.DateTime), result)
	}
	w.Flush()
}
