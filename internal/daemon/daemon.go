package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/username/workdays-api/internal/holiday"
	"go.uber.org/zap"
)

// Refresher forces a holiday fetch; *holiday.Source implements it
type Refresher interface {
	Refresh(ctx context.Context) holiday.Snapshot
}

// Options configures the HTTP listener and the warm-up schedule
type Options struct {
	Listen          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RefreshCron     string // Empty disables scheduled warm-up
}

// Daemon represents the daemon process
type Daemon struct {
	server          *http.Server
	refresher       Refresher
	refreshCron     string
	shutdownTimeout time.Duration
	scheduler       *cron.Cron
	logger          *zap.Logger
	ctx             context.Context
	cancel          context.CancelFunc

	mu          sync.Mutex // Protect against concurrent refreshes
	refreshing  bool
	lastRefresh time.Time
	lastResult  holiday.Snapshot
}

// NewDaemon creates a new daemon instance
func NewDaemon(handler http.Handler, refresher Refresher, opts Options, logger *zap.Logger) (*Daemon, error) {
	if opts.RefreshCron != "" {
		if _, err := cron.ParseStandard(opts.RefreshCron); err != nil {
			return nil, fmt.Errorf("invalid refresh schedule '%s': %w", opts.RefreshCron, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		server: &http.Server{
			Addr:         opts.Listen,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
		},
		refresher:       refresher,
		refreshCron:     opts.RefreshCron,
		shutdownTimeout: opts.ShutdownTimeout,
		scheduler:       cron.New(),
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
	}, nil
}

// Start listens on the configured address and serves until stopped
func (d *Daemon) Start() error {
	ln, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.server.Addr, err)
	}
	return d.Serve(ln)
}

// Serve warms the holiday cache, starts the refresh schedule and serves HTTP
// on ln until Stop, SIGINT or SIGTERM.
func (d *Daemon) Serve(ln net.Listener) error {
	d.logger.Info("Daemon started",
		zap.String("listen", ln.Addr().String()),
		zap.String("refresh_cron", d.refreshCron))

	// Initial warm-up so the first request does not pay for the fetch
	go d.runRefresh()

	if d.refreshCron != "" {
		if _, err := d.scheduler.AddFunc(d.refreshCron, d.runRefresh); err != nil {
			return fmt.Errorf("failed to schedule refresh: %w", err)
		}
		d.scheduler.Start()
		defer func() {
			<-d.scheduler.Stop().Done()
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- d.server.Serve(ln)
	}()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-d.ctx.Done():
		d.logger.Info("Daemon stopping")

	case sig := <-sigChan:
		d.logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		d.Stop()

	case err := <-serveErr:
		d.Stop()
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.shutdownTimeout)
	defer cancel()

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	d.logger.Info("Daemon stopped")
	return nil
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

// runRefresh forces one holiday fetch; overlapping runs are skipped
func (d *Daemon) runRefresh() {
	d.mu.Lock()
	if d.refreshing {
		d.mu.Unlock()
		d.logger.Warn("Holiday refresh already running, skipping")
		return
	}
	d.refreshing = true
	d.mu.Unlock()

	snap := d.refresher.Refresh(d.ctx)

	d.mu.Lock()
	d.refreshing = false
	d.lastRefresh = time.Now()
	d.lastResult = snap
	d.mu.Unlock()

	d.logger.Info("Holiday cache refreshed",
		zap.Int("count", snap.Holidays.Len()),
		zap.Bool("from_fallback", snap.FromFallback),
		zap.Time("last_fetch", snap.LastFetch))
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"running":      d.ctx.Err() == nil,
		"refresh_cron": d.refreshCron,
	}

	if !d.lastRefresh.IsZero() {
		status["last_refresh"] = d.lastRefresh
		status["holidays"] = d.lastResult.Holidays.Len()
		status["from_fallback"] = d.lastResult.FromFallback
	}

	if entries := d.scheduler.Entries(); len(entries) > 0 {
		status["next_refresh"] = entries[0].Next
	}

	return status
}
