package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aq2208/gpos-checkout/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const bodyLimit = 8 * 1024

var redactedKeys = map[string]struct{}{
	"password":      {},
	"authorization": {},
	"token":         {},
	"access_token":  {},
	"secret":        {},
	"client_secret": {},
}

type bodyLogWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bodyLogWriter) Write(b []byte) (int, error) {
	if remain := bodyLimit - w.buf.Len(); remain > 0 {
		if len(b) > remain {
			w.buf.Write(b[:remain])
		} else {
			w.buf.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

func redactJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return raw
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	b, err := json.Marshal(scrub(v))
	if err != nil {
		return raw
	}
	return b
}

func scrub(x any) any {
	switch v := x.(type) {
	case map[string]any:
		for k, val := range v {
			if _, ok := redactedKeys[strings.ToLower(k)]; ok {
				v[k] = "***redacted***"
				continue
			}
			v[k] = scrub(val)
		}
	case []any:
		for i := range v {
			v[i] = scrub(v[i])
		}
	}
	return x
}

// Logging logs each request and response and injects a request-scoped slog.Logger.
func Logging(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
			c.Request.Header.Set("X-Request-Id", reqID)
		}
		c.Header("X-Request-Id", reqID)

		l := base.With("req_id", reqID, "method", c.Request.Method, "route", c.FullPath(), "remote", c.ClientIP())
		logging.With(c, l)
		c.Request = c.Request.WithContext(logging.WithCtx(c.Request.Context(), l))

		var reqBody string
		if strings.Contains(c.GetHeader("Content-Type"), "application/json") && c.Request.Body != nil {
			raw, _ := io.ReadAll(io.LimitReader(c.Request.Body, bodyLimit+1))
			_ = c.Request.Body.Close()
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			if len(raw) > bodyLimit {
				reqBody = string(raw[:bodyLimit]) + "...truncated..."
			} else {
				reqBody = string(redactJSON(raw))
			}
		}

		blw := &bodyLogWriter{ResponseWriter: c.Writer, buf: &bytes.Buffer{}}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		attrs := []any{"status", status, "dur_ms", time.Since(start).Milliseconds(), "resp_bytes", c.Writer.Size()}
		if p, ok := PrincipalFrom(c); ok {
			attrs = append(attrs, "shop_id", p.ShopID, "user_id", p.UserID)
		}
		if reqBody != "" {
			attrs = append(attrs, "req_body", reqBody)
		}
		if strings.Contains(c.Writer.Header().Get("Content-Type"), "application/json") {
			resp := string(redactJSON(blw.buf.Bytes()))
			if blw.buf.Len() >= bodyLimit {
				resp = blw.buf.String() + "...truncated..."
			}
			attrs = append(attrs, "resp_body", resp)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}

		switch {
		case status >= http.StatusInternalServerError:
			l.Error("http_request", attrs...)
		case status >= http.StatusBadRequest:
			l.Warn("http_request", attrs...)
		default:
			l.Info("http_request", attrs...)
		}
	}
}
