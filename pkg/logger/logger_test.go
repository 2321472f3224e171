package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		logAt     func(Logger)
		expectLog bool
	}{
		{
			name:      "debug suppressed at info level",
			level:     InfoLevel,
			logAt:     func(l Logger) { l.Debug("hidden") },
			expectLog: false,
		},
		{
			name:      "info emitted at info level",
			level:     InfoLevel,
			logAt:     func(l Logger) { l.Info("visible") },
			expectLog: true,
		},
		{
			name:      "warn emitted at error level is suppressed",
			level:     ErrorLevel,
			logAt:     func(l Logger) { l.Warn("hidden") },
			expectLog: false,
		},
		{
			name:      "error always emitted",
			level:     ErrorLevel,
			logAt:     func(l Logger) { l.Error("visible") },
			expectLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger(Config{Level: tt.level, Format: "json", Output: &buf})

			tt.logAt(log)

			if tt.expectLog {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestWithFieldsImmutable(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(Config{Level: InfoLevel, Format: "json", Service: "marketplace", Output: &buf})

	derived := base.WithFields(StringField("component", "composer"))
	derived.Info("message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "marketplace", entry["service"])
	assert.Equal(t, "composer", entry["component"])

	// The base logger must not have picked up the derived field. A fresh map
	// is needed here: Unmarshal merges into a populated one.
	buf.Reset()
	base.Info("second")
	var second map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &second))
	_, hasComponent := second["component"]
	assert.False(t, hasComponent)
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, LogField{Key: "creation_id", Value: "crtn-1"}, CreationIDField("crtn-1"))
	assert.Equal(t, LogField{Key: "count", Value: "7"}, IntField("count", 7))
	assert.Equal(t, LogField{Key: "flag", Value: "true"}, BoolField("flag", true))
	assert.Equal(t, LogField{Key: "dur", Value: "2s"}, DurationField("dur", 2*time.Second))
	assert.Equal(t, "error", ErrorField(nil).Key)
	assert.Equal(t, "<nil>", ErrorField(nil).Value)
	assert.Equal(t, "42", Field("answer", 42).Value)
}

func TestCorrelationIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetCorrelationIDFromContext(ctx))

	ctx = WithCorrelationIDContext(ctx, "abc-123")
	assert.Equal(t, "abc-123", GetCorrelationIDFromContext(ctx))
}

func TestEnsureHTTPCorrelationID(t *testing.T) {
	t.Run("generates when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req, id := EnsureHTTPCorrelationID(req)

		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, req.Header.Get(CorrelationIDHeader))
		assert.Equal(t, id, GetCorrelationIDFromContext(req.Context()))
	})

	t.Run("keeps valid incoming ID", func(t *testing.T) {
		incoming := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, incoming)

		_, id := EnsureHTTPCorrelationID(req)
		assert.Equal(t, incoming, id)
	})

	t.Run("replaces invalid incoming ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "not-a-uuid")

		_, id := EnsureHTTPCorrelationID(req)
		assert.NotEqual(t, "not-a-uuid", id)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
	})
}

func TestHTTPMiddlewareLogsRequestAndResponse(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: InfoLevel, Format: "json", Output: &buf})

	handler := log.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/composer/clarify", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var response map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &response))
	assert.Equal(t, "418", response["http_status"])
	assert.Equal(t, "/api/composer/clarify", response["http_path"])
	assert.NotEmpty(t, response["correlation_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warn"))
	assert.Equal(t, InfoLevel, ParseLevel("unknown"))
}
