package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func holidayServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["2025-01-01","2025-01-06"]`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, cmdArgs ...string) (string, error) {
	t.Helper()
	logger = zap.NewNop()
	configPath = ""

	cmd := calcCmd()
	if cmdArgs[0] == "holidays" {
		cmd = holidaysCmd()
	}
	cmd.SetArgs(cmdArgs[1:])

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalcCommand(t *testing.T) {
	t.Setenv("WORKDAYS_HOLIDAYS_URL", holidayServer(t).URL)

	out, err := run(t, "calc", "--days", "1", "--date", "2025-01-03T15:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-07T15:00:00Z", strings.TrimSpace(out))

	out, err = run(t, "calc", "--hours", "4", "--date", "2025-01-15T14:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15T19:00:00Z", strings.TrimSpace(out))
}

func TestCalcCommand_Invalid(t *testing.T) {
	t.Setenv("WORKDAYS_HOLIDAYS_URL", holidayServer(t).URL)

	_, err := run(t, "calc")
	assert.Error(t, err)

	_, err = run(t, "calc", "--days", "1", "--date", "2025-01-03")
	assert.Error(t, err)
}

func TestHolidaysCommand(t *testing.T) {
	t.Setenv("WORKDAYS_HOLIDAYS_URL", holidayServer(t).URL)

	out, err := run(t, "holidays")
	require.NoError(t, err)
	assert.Equal(t, "2 holidays (remote)\n2025-01-01\n2025-01-06\n", out)
}

func TestHolidaysCommand_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("WORKDAYS_HOLIDAYS_URL", srv.URL)

	out, err := run(t, "holidays")
	require.NoError(t, err)
	assert.Contains(t, out, "(fallback)")
}

func TestInitFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := initFileLogger(path, "debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))
	l.Info("hello")
	require.NoError(t, l.Sync())
	assert.FileExists(t, path)
}
