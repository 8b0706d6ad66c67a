// Command eventful-agent is a headless Eventful client: it logs in,
// keeps the read cache synchronized over the realtime channel,
// schedules local reminders and persists a snapshot across restarts.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"

	eventful "github.com/eventful-app/eventful-go"
	"github.com/eventful-app/eventful-go/api"
	"github.com/eventful-app/eventful-go/cache"
	"github.com/eventful-app/eventful-go/client"
	"github.com/eventful-app/eventful-go/realtime"
	"github.com/eventful-app/eventful-go/reminder"
	"github.com/eventful-app/eventful-go/session"
	"github.com/eventful-app/eventful-go/syncer"
	"github.com/eventful-app/eventful-go/telemetry"
)

var cli struct {
	APIURL   string `help:"Eventful API endpoint." default:"https://api.eventful.app" env:"EVENTFUL_API_URL"`
	Username string `help:"Account username." required:"" env:"EVENTFUL_USERNAME"`
	Password string `help:"Account password." required:"" env:"EVENTFUL_PASSWORD"`

	Snapshot         string        `help:"Path of the offline cache snapshot." default:"eventful-snapshot.db" env:"EVENTFUL_SNAPSHOT"`
	ReminderInterval time.Duration `help:"How often to recompute reminder triggers." default:"5m"`
	MetricsAddr      string        `help:"Listen address for /metrics, empty to disable." default:""`
	OTLPEndpoint     string        `help:"OTLP gRPC endpoint for metric export, empty to disable." env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info" enum:"debug,info,warn,error"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("eventful-agent"),
		kong.Description("Headless Eventful client keeping a synchronized local cache."),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricsConfig{
		ServiceName:      "eventful-agent",
		OTLPEndpoint:     cli.OTLPEndpoint,
		EnablePrometheus: cli.MetricsAddr != "",
	})
	if err != nil {
		return fmt.Errorf("initialising metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownMetrics(shutdownCtx)
	}()

	if cli.MetricsAddr != "" {
		go serveMetrics(logger)
	}

	sess := session.New()
	cch := cache.New(cache.WithLogger(logger))
	apiClient := api.NewClient(api.WithBaseURL(cli.APIURL))
	app := client.New(apiClient, cch, sess, client.WithLogger(logger))

	snapshot, err := cache.OpenSnapshot(cli.Snapshot, cache.WithSnapshotLogger(logger))
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer func() { _ = snapshot.Close() }()

	if restored, err := snapshot.Restore(ctx, cch, client.SnapshotDecoders()); err != nil {
		logger.Warn("snapshot restore failed", "error", err)
	} else if restored > 0 {
		logger.Info("restored cache snapshot", "entries", restored)
	}

	user, err := app.LogIn(ctx, api.Credentials{Username: cli.Username, Password: cli.Password})
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	conn, err := dialChannel(ctx, apiClient, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	notifier := &logNotifier{logger: logger}
	sched := reminder.New(notifier, reminder.WithLogger(logger))

	sync := syncer.New(cch, sess,
		syncer.WithLogger(logger),
		syncer.WithNotificationHandler(func(ctx context.Context, p eventful.NotificationPayload) {
			if p.Notification != nil {
				logger.Info("notification", "title", p.Notification.Title, "body", p.Notification.Body)
			}
		}),
	)
	binding := sync.Bind(conn)
	defer binding.Close()

	room, err := conn.JoinUser(user.ID)
	if err != nil {
		return fmt.Errorf("joining user room: %w", err)
	}
	defer func() { _ = room.Leave() }()

	logger.Info("agent running", "user", user.ID, "api", cli.APIURL)

	ticker := time.NewTicker(cli.ReminderInterval)
	defer ticker.Stop()

	runReminders(ctx, app, sched, logger)

	for {
		select {
		case <-ctx.Done():
			return shutdown(app, snapshot, logger)
		case <-ticker.C:
			if !conn.Connected() {
				logger.Error("realtime channel lost, exiting for restart")
				return shutdown(app, snapshot, logger)
			}
			runReminders(ctx, app, sched, logger)
		}
	}
}

func dialChannel(ctx context.Context, apiClient *api.Client, logger *slog.Logger) (*realtime.Conn, error) {
	header := http.Header{}
	for _, cookie := range apiClient.Cookies() {
		header.Add("Cookie", cookie.String())
	}

	conn, err := realtime.Dial(ctx, apiClient.ChannelURL(), header, realtime.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("connecting realtime channel: %w", err)
	}
	return conn, nil
}

func runReminders(ctx context.Context, app *client.Client, sched *reminder.Scheduler, logger *slog.Logger) {
	events, err := app.Events(ctx)
	if err != nil {
		logger.Warn("fetching events for reminders failed", "error", err)
		return
	}
	reminders, err := app.Reminders(ctx)
	if err != nil {
		logger.Warn("fetching reminder rules failed", "error", err)
		return
	}

	scheduled, err := sched.Run(ctx, events, reminders)
	if err != nil {
		logger.Warn("reminder run failed", "error", err)
		return
	}
	logger.Debug("reminders scheduled", "count", scheduled)
}

// shutdown captures the cache before exit so the next start can render
// from the last known state.
func shutdown(app *client.Client, snapshot *cache.Snapshot, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := snapshot.Capture(ctx, app.Cache()); err != nil {
		logger.Warn("snapshot capture failed", "error", err)
	}
	if err := snapshot.Prune(app.Cache()); err != nil {
		logger.Warn("snapshot prune failed", "error", err)
	}

	logger.Info("agent stopped")
	return nil
}

func serveMetrics(logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.PrometheusHandler())

	logger.Info("serving metrics", "addr", cli.MetricsAddr)
	if err := http.ListenAndServe(cli.MetricsAddr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}

// logNotifier is a stand-in delivery collaborator for headless runs:
// triggers are logged instead of surfaced by an OS notification center.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) CancelAll(ctx context.Context) error {
	n.logger.Debug("cancelling scheduled notifications")
	return nil
}

func (n *logNotifier) Schedule(ctx context.Context, ln eventful.LocalNotification) error {
	n.logger.Info("notification scheduled",
		"id", ln.Identifier,
		"title", ln.Title,
		"in", time.Duration(ln.Seconds)*time.Second,
	)
	return nil
}
