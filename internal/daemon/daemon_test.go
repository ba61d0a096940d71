package daemon

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/workdays-api/internal/holiday"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(ctx context.Context) holiday.Snapshot {
	r.calls.Add(1)
	return holiday.Snapshot{
		Holidays:  holiday.NewSet([]string{"2025-01-01"}),
		LastFetch: time.Now(),
		Valid:     true,
	}
}

func okHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func TestNewDaemon_InvalidSchedule(t *testing.T) {
	_, err := NewDaemon(okHandler(), &countingRefresher{}, Options{RefreshCron: "every hour"}, zap.NewNop())
	assert.Error(t, err)
}

func TestDaemon_ServeAndStop(t *testing.T) {
	refresher := &countingRefresher{}
	d, err := NewDaemon(okHandler(), refresher, Options{
		ShutdownTimeout: time.Second,
		RefreshCron:     "@every 1s",
	}, zap.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- d.Serve(ln)
	}()

	// warm-up plus at least one scheduled run
	require.Eventually(t, func() bool {
		return refresher.calls.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	status := d.GetStatus()
	assert.Equal(t, true, status["running"])
	assert.Equal(t, "@every 1s", status["refresh_cron"])
	assert.Equal(t, 1, status["holidays"])
	assert.Contains(t, status, "next_refresh")

	d.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}

	assert.Equal(t, false, d.GetStatus()["running"])
}

func TestDaemon_WithoutSchedule(t *testing.T) {
	refresher := &countingRefresher{}
	d, err := NewDaemon(okHandler(), refresher, Options{ShutdownTimeout: time.Second}, zap.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- d.Serve(ln)
	}()

	require.Eventually(t, func() bool {
		return refresher.calls.Load() == 1
	}, 5*time.Second, 20*time.Millisecond)

	assert.NotContains(t, d.GetStatus(), "next_refresh")

	d.Stop()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), refresher.calls.Load())
}
