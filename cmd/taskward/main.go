// Package main implements the taskward batch CLI: the deadline scan that
// sends due-date reminders, the overdue sweep, on-demand notification
// sends, and schema migrations.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/taskward/taskward/internal/config"
	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/notify"
	"github.com/taskward/taskward/internal/platform/logger"
	"github.com/taskward/taskward/internal/platform/postgres"
	"github.com/taskward/taskward/internal/scanner"
	"github.com/taskward/taskward/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "check-deadlines":
		err = runCheckDeadlines(os.Args[2:])
	case "send-notifications":
		err = runSendNotifications(os.Args[2:])
	case "migrate":
		err = runMigrate(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: taskward <command> [flags]

Commands:
  check-deadlines     scan for tasks due within a window and send reminders
  send-notifications  send a specific notification type on demand
  migrate             run schema migrations (up, down, status)

Run "taskward <command> -h" for command flags.
`)
}

// int64List is a repeatable flag collecting integer IDs, so
// "--user-id 3 --user-id 7" selects both users.
type int64List []int64

func (l *int64List) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}

func (l *int64List) Set(value string) error {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", value)
	}
	*l = append(*l, id)
	return nil
}

// app bundles the shared wiring every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB

	tasks   store.TaskStore
	sentLog store.NotificationLogStore
	queue   *notify.Queue
	runner  *notify.Runner

	dispatcher *notify.Dispatcher
}

// setupApp loads configuration, sets up logging, connects to the database
// and wires the notification pipeline. dryRun swaps the real mail sender
// for one that only logs, and disables sent-notification recording so a
// dry run leaves no trace in the log.
func setupApp(dryRun bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: log,
		db:     db,
		tasks:  postgres.NewPostgresTaskStore(db, log),
		queue:  notify.NewQueue(cfg.Notify.QueueSize, log),
	}

	var sender notify.EmailSender
	switch {
	case dryRun:
		sender = notify.NewLogSender(log)
	case cfg.Notify.SMTPAddr != "":
		sender = notify.NewSMTPSender(cfg.Notify.SMTPAddr, cfg.Notify.FromAddress)
	default:
		log.Warn("no smtp_addr configured, reminders will only be logged")
		sender = notify.NewLogSender(log)
	}

	// The scanner always reads the sent-notification log so a dry run
	// previews exactly what a real run would send; only a real run records
	// deliveries back into it.
	a.sentLog = postgres.NewPostgresNotificationLogStore(db, log)
	var recordLog store.NotificationLogStore
	if !dryRun {
		recordLog = a.sentLog
	}

	resolver := notify.NewActorResolver(
		postgres.NewPostgresUserStore(db, log),
		postgres.NewPostgresAdminStore(db, log),
	)
	a.dispatcher = notify.NewDispatcher(a.tasks, resolver, sender, recordLog, log)

	a.runner = notify.NewRunner(a.queue, notify.RunnerConfig{
		WorkerCount:    cfg.Notify.WorkerCount,
		MaxAttempts:    cfg.Notify.MaxAttempts,
		AttemptTimeout: time.Duration(cfg.Notify.AttemptTimeoutSeconds) * time.Second,
		RetryBackoff:   time.Duration(cfg.Notify.RetryBackoffSeconds) * time.Second,
	}, log)

	return a, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
}

// drain closes the queue and waits for the runner to finish delivering
// everything still buffered in it.
func (a *app) drain() {
	a.queue.Close()
	a.runner.Wait()
}

func openDatabase(cfg *config.Config, log *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug("database connection established")
	return db, nil
}

func runCheckDeadlines(args []string) error {
	fs := flag.NewFlagSet("check-deadlines", flag.ExitOnError)
	hours := fs.Int("hours", 0, "look-ahead window in hours (default from config)")
	dryRun := fs.Bool("dry-run", false, "log reminders instead of sending them")
	force := fs.Bool("force", false, "resend reminders already sent for this window")
	sweep := fs.Bool("sweep-overdue", false, "also escalate past-due tasks and send overdue notices")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setupApp(*dryRun)
	if err != nil {
		return err
	}
	defer a.close()

	window := time.Duration(*hours) * time.Hour
	if *hours <= 0 {
		window = time.Duration(a.cfg.Notify.WindowHours) * time.Hour
	}

	ctx := context.Background()
	now := time.Now().UTC()

	// Workers drain the queue while the scan is still enqueueing.
	a.runner.Start()

	var sweepSummary scanner.Summary
	if *sweep {
		sweeper := scanner.NewOverdueSweeper(a.tasks, a.dispatcher, a.queue, a.logger)
		sweepSummary, err = sweeper.Sweep(ctx, now)
		if err != nil {
			return err
		}
	}

	scan := scanner.NewDeadlineScanner(a.tasks, a.dispatcher, a.queue, a.sentLog, a.logger)
	summary, err := scan.Scan(ctx, now, window, *force)
	if err != nil {
		return err
	}

	a.drain()

	if *sweep {
		fmt.Printf("overdue sweep:\n%s", sweepSummary.Table())
	}
	fmt.Printf("deadline scan (%s window):\n%s", window, summary.Table())
	if summary.Errored > 0 || sweepSummary.Errored > 0 {
		return fmt.Errorf("%d task(s) could not be processed", summary.Errored+sweepSummary.Errored)
	}
	return nil
}

func runSendNotifications(args []string) error {
	fs := flag.NewFlagSet("send-notifications", flag.ExitOnError)
	kind := fs.String("type", notify.KindDue, "notification type: due, overdue or weekly-summary")
	hours := fs.Int("hours", 0, "look-ahead window in hours for due reminders (default from config)")
	var userIDs, adminIDs int64List
	fs.Var(&userIDs, "user-id", "limit notifications to this user (repeatable)")
	fs.Var(&adminIDs, "admin-id", "limit notifications to this admin (repeatable)")
	dryRun := fs.Bool("dry-run", false, "log notifications instead of sending them")
	force := fs.Bool("force", false, "resend notifications already sent for this window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	recipients, err := recipientRefs(userIDs, adminIDs)
	if err != nil {
		return err
	}

	a, err := setupApp(*dryRun)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	now := time.Now().UTC()

	a.runner.Start()

	var summary scanner.Summary
	switch *kind {
	case notify.KindDue:
		window := time.Duration(*hours) * time.Hour
		if *hours <= 0 {
			window = time.Duration(a.cfg.Notify.WindowHours) * time.Hour
		}
		scan := scanner.NewDeadlineScanner(a.tasks, a.dispatcher, a.queue, a.sentLog, a.logger)
		scan.LimitRecipients(recipients)
		summary, err = scan.Scan(ctx, now, window, *force)

	case notify.KindOverdue:
		sweeper := scanner.NewOverdueSweeper(a.tasks, a.dispatcher, a.queue, a.logger)
		sweeper.LimitRecipients(recipients)
		summary, err = sweeper.Sweep(ctx, now)

	case notify.KindWeeklySummary:
		if len(recipients) == 0 {
			recipients, err = summaryRecipients(ctx, a)
			if err != nil {
				return err
			}
		}
		builder := scanner.NewSummaryBuilder(a.tasks, a.dispatcher, a.queue, a.logger)
		summary, err = builder.Build(ctx, recipients)

	default:
		return fmt.Errorf("unknown notification type %q", *kind)
	}
	if err != nil {
		return err
	}

	a.drain()

	fmt.Printf("%s notifications:\n%s", *kind, summary.Table())
	if summary.Errored > 0 {
		return fmt.Errorf("%d notification(s) could not be processed", summary.Errored)
	}
	return nil
}

// recipientRefs turns the --user-id and --admin-id flag values into actor
// references.
func recipientRefs(userIDs, adminIDs int64List) ([]domain.ActorRef, error) {
	refs := make([]domain.ActorRef, 0, len(userIDs)+len(adminIDs))
	for _, id := range userIDs {
		ref, err := domain.NewActorRef(domain.ActorKindUser, id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	for _, id := range adminIDs {
		ref, err := domain.NewActorRef(domain.ActorKindAdmin, id)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// summaryRecipients resolves the default weekly summary audience: every
// assignable with open tasks.
func summaryRecipients(ctx context.Context, a *app) ([]domain.ActorRef, error) {
	var recipients []domain.ActorRef

	tasks, err := a.tasks.List(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing open tasks: %w", err)
	}

	seen := make(map[domain.ActorRef]struct{})
	for _, task := range tasks {
		if task.Status == domain.TaskStatusCompleted {
			continue
		}
		if _, ok := seen[task.Assignable]; ok {
			continue
		}
		seen[task.Assignable] = struct{}{}
		recipients = append(recipients, task.Assignable)
	}
	return recipients, nil
}
