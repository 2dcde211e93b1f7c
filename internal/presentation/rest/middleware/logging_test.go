package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

func captureLogs(t *testing.T, buf *bytes.Buffer) []otelinfra.LogEntry {
	t.Helper()
	var entries []otelinfra.LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry otelinfra.LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		handler   echo.HandlerFunc
		wantErr   bool
		wantLevel string
		wantCode  float64
	}{
		{
			name:      "正常系: 成功リクエスト",
			handler:   func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantLevel: "INFO",
			wantCode:  http.StatusOK,
		},
		{
			name:      "正常系: 応答済みの5xxは警告",
			handler:   func(c echo.Context) error { return c.String(http.StatusInternalServerError, "boom") },
			wantLevel: "WARN",
			wantCode:  http.StatusInternalServerError,
		},
		{
			name:      "異常系: ハンドラーのエラー",
			handler:   func(c echo.Context) error { return errors.New("handler failed") },
			wantErr:   true,
			wantLevel: "ERROR",
			wantCode:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLogger(noop.NewTracerProvider().Tracer("test"))
			logger.SetOutput(&buf)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/shops/village/buy", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/shops/:shop_id/buy")
			c.SetParamNames("shop_id")
			c.SetParamValues("village")
			c.Set(PlayerIDKey, "alice")

			err := LoggingMiddleware(logger)(tt.handler)(c)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			entries := captureLogs(t, &buf)
			require.Len(t, entries, 2)
			assert.Equal(t, "DEBUG", entries[0].Level)

			last := entries[1]
			assert.Equal(t, tt.wantLevel, last.Level)
			assert.Equal(t, "village", last.Fields["shop_id"])
			assert.Equal(t, "alice", last.Fields["player_id"])
			assert.Equal(t, "/api/v1/shops/:shop_id/buy", last.Fields["route"])
			assert.Equal(t, tt.wantCode, last.Fields["status_code"])
		})
	}
}
