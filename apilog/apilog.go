// Package apilog keeps an in-memory record of recent API calls for the admin
// dashboard. It is diagnostic only and does not survive a restart.
package apilog

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is how many calls are kept.
const DefaultCapacity = 1000

type Entry struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Method       string          `json:"method"`
	URL          string          `json:"url"`
	Status       int             `json:"status"`
	Duration     int64           `json:"duration"`
	UserAgent    string          `json:"userAgent,omitempty"`
	IP           string          `json:"ip,omitempty"`
	RequestBody  json.RawMessage `json:"requestBody,omitempty"`
	ResponseBody json.RawMessage `json:"responseBody,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func (e Entry) failed() bool {
	return e.Error != "" || e.Status >= 400
}

func (e Entry) path() string {
	u, err := url.Parse(e.URL)
	if err != nil {
		return e.URL
	}
	return u.Path
}

// Log is a fixed-size ring of entries, read newest first.
type Log struct {
	mu    sync.RWMutex
	buf   []Entry
	head  int // next write position
	count int
}

func New(capacity int) *Log {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]Entry, capacity)}
}

// Add records e, evicting the oldest entry when full. Missing id and
// timestamp are filled in.
func (l *Log) Add(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.head] = e
	l.head = (l.head + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
}

// each visits entries newest first until fn returns false.
func (l *Log) each(fn func(Entry) bool) {
	for i := 0; i < l.count; i++ {
		idx := (l.head - 1 - i + len(l.buf)) % len(l.buf)
		if !fn(l.buf[idx]) {
			return
		}
	}
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Entries returns up to limit entries, newest first.
func (l *Log) Entries(limit int) []Entry {
	return l.Filter("", limit)
}

// Filter returns up to limit entries whose URL contains endpoint. A limit
// below one returns nothing.
func (l *Log) Filter(endpoint string, limit int) []Entry {
	limit = max(limit, 0)
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, min(limit, l.count))
	l.each(func(e Entry) bool {
		if len(out) >= limit {
			return false
		}
		if endpoint == "" || strings.Contains(e.URL, endpoint) {
			out = append(out, e)
		}
		return true
	})
	return out
}

func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	clear(l.buf)
	l.head, l.count = 0, 0
}

type Stats struct {
	Total       int            `json:"total"`
	ByMethod    map[string]int `json:"byMethod"`
	ByStatus    map[int]int    `json:"byStatus"`
	ByEndpoint  map[string]int `json:"byEndpoint"`
	AvgDuration int64          `json:"avgDuration"`
	Errors      int            `json:"errors"`
	ErrorRate   string         `json:"errorRate"`
}

func (l *Log) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s := Stats{
		ByMethod:   map[string]int{},
		ByStatus:   map[int]int{},
		ByEndpoint: map[string]int{},
		ErrorRate:  "0%",
	}
	var totalDuration int64
	l.each(func(e Entry) bool {
		s.Total++
		s.ByMethod[e.Method]++
		s.ByStatus[e.Status]++
		s.ByEndpoint[e.path()]++
		totalDuration += e.Duration
		if e.failed() {
			s.Errors++
		}
		return true
	})
	if s.Total > 0 {
		s.AvgDuration = int64(math.Round(float64(totalDuration) / float64(s.Total)))
		s.ErrorRate = fmt.Sprintf("%.2f%%", float64(s.Errors)/float64(s.Total)*100)
	}
	return s
}
