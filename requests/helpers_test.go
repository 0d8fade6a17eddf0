package requests

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"learnspace/notify"
	"learnspace/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.UnixMilli(1700000000000)

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []notify.Message
	async []notify.Message
	err   error
}

func (f *fakeNotifier) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeNotifier) Go(_ string, msg notify.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.async = append(f.async, msg)
}

// flakyStore fails reads and writes of the listed collections.
type flakyStore struct {
	store.Store
	failRead  map[string]bool
	failWrite map[string]bool
}

func (f *flakyStore) Read(ctx context.Context, name string) ([]json.RawMessage, error) {
	if f.failRead[name] {
		return nil, errors.New("read refused")
	}
	return f.Store.Read(ctx, name)
}

func (f *flakyStore) Write(ctx context.Context, name string, records []json.RawMessage) error {
	if f.failWrite[name] {
		return errors.New("write refused")
	}
	return f.Store.Write(ctx, name, records)
}

func newTestService(t *testing.T, s store.Store) (*Service, *fakeNotifier) {
	t.Helper()
	n := &fakeNotifier{}
	engine := NewEngine(s, nil, zap.NewNop())
	return NewService(s, engine, n, nil, zap.NewNop(), WithClock(func() time.Time { return fixedNow })), n
}

func seed(t *testing.T, s store.Store, name string, records ...string) {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(records))
	for _, r := range records {
		raw = append(raw, json.RawMessage(r))
	}
	require.NoError(t, s.Write(context.Background(), name, raw))
}

func rawStrings(t *testing.T, s store.Store, name string) []string {
	t.Helper()
	raw, err := s.Read(context.Background(), name)
	require.NoError(t, err)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, string(r))
	}
	return out
}
