package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/middleware"
)

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestLogging_Success(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter())

	h := func(handler.Context) handler.Response {
		return response.JSONWithStatus(map[string]string{"ok": "yes"}, http.StatusCreated)
	}
	rec := serve(t, h, httptest.NewRequest(http.MethodPost, "/api/bills?x=1", nil),
		middleware.LoggingWithLogger[handler.Context](log))

	assert.Equal(t, http.StatusCreated, rec.Code)
	entry := lastRecord(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "POST", entry["method"])
	assert.Equal(t, "/api/bills", entry["path"])
	assert.EqualValues(t, http.StatusCreated, entry["status_code"])
}

func TestLogging_ErrorStatus(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter())

	h := func(handler.Context) handler.Response {
		return response.Error(response.ErrNotFound)
	}
	rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/missing", nil),
		middleware.LoggingWithLogger[handler.Context](log))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	entry := lastRecord(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.EqualValues(t, http.StatusNotFound, entry["status_code"])
}

func TestLogging_Skip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithJSONFormatter())

	mw := middleware.LoggingWithConfig[handler.Context](middleware.LoggingConfig{
		Logger: log,
		Skip:   func(ctx handler.Context) bool { return ctx.Request().URL.Path == "/live" },
	})
	serve(t, func(handler.Context) handler.Response { return response.NoContent() },
		httptest.NewRequest(http.MethodGet, "/live", nil), mw)
	assert.Empty(t, buf.String())
}
