package apilog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// maxCapture bounds how much of a request or response body is kept.
const maxCapture = 64 << 10

// redacted fields never reach the log.
var redacted = []string{"password", "token"}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if room := maxCapture - r.body.Len(); room > 0 {
		r.body.Write(b[:min(len(b), room)])
	}
	return r.ResponseWriter.Write(b)
}

func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// ClientIP prefers proxy headers and reports "unknown" without them.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// jsonBody returns b when it is a JSON document, with credential fields
// masked. Anything else is dropped.
func jsonBody(b []byte) json.RawMessage {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return json.RawMessage(b)
	}
	masked := false
	for _, k := range redacted {
		if _, ok := obj[k]; ok {
			obj[k] = json.RawMessage(`"***"`)
			masked = true
		}
	}
	if !masked {
		return json.RawMessage(b)
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	return out
}

func errorText(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return resp.Error
	}
	return strings.TrimSpace(string(body))
}

// Middleware records every call under /api/.
func (l *Log) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		var reqBody json.RawMessage
		if r.Method != http.MethodGet && r.Body != nil {
			raw, _ := io.ReadAll(io.LimitReader(r.Body, maxCapture))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
			reqBody = jsonBody(raw)
		}

		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		e := Entry{
			Timestamp:    start.UTC(),
			Method:       r.Method,
			URL:          r.URL.RequestURI(),
			Status:       rec.status,
			Duration:     time.Since(start).Milliseconds(),
			UserAgent:    r.UserAgent(),
			IP:           ClientIP(r),
			RequestBody:  reqBody,
			ResponseBody: jsonBody(rec.body.Bytes()),
		}
		if rec.status >= 500 {
			e.Error = errorText(rec.body.Bytes())
		}
		l.Add(e)
	})
}
