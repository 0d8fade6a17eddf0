package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type brokenStore struct{}

func (brokenStore) Read(context.Context, string) ([]json.RawMessage, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Write(context.Context, string, []json.RawMessage) error {
	return errors.New("connection refused")
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	empty, err := Load[item](ctx, s, "things")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, Save(ctx, s, "things", []item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}))

	got, err := Load[item](ctx, s, "things")
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, got)
}

func TestMemoryReadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Write(ctx, "things", []json.RawMessage{json.RawMessage(`{"id":1}`)}))

	got, err := s.Read(ctx, "things")
	require.NoError(t, err)
	got[0][1] = 'X'

	again, err := s.Read(ctx, "things")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(again[0]))
}

func TestPrependPutsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Write(ctx, "things", []json.RawMessage{json.RawMessage(`{"id":1,"extra":true}`)}))

	require.NoError(t, Prepend(ctx, s, "things", item{ID: 2}))

	raw, err := s.Read(ctx, "things")
	require.NoError(t, err)
	require.Len(t, raw, 2)
	assert.JSONEq(t, `{"id":2,"name":""}`, string(raw[0]))
	assert.Equal(t, `{"id":1,"extra":true}`, string(raw[1]))
}

func TestPrependKeepsCollectionOnReadFailure(t *testing.T) {
	err := Prepend(context.Background(), brokenStore{}, "things", item{ID: 1})
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)

	missing, err := s.Read(ctx, "rooms")
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, Save(ctx, s, "rooms", []item{{ID: 7, Name: "Lab"}}))

	body, err := os.ReadFile(filepath.Join(dir, "rooms.json"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "\n  {")

	got, err := Load[item](ctx, s, "rooms")
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: 7, Name: "Lab"}}, got)

	require.NoError(t, s.Write(ctx, "rooms", nil))
	body, err = os.ReadFile(filepath.Join(dir, "rooms.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestFileStoreRejectsCorruptCollection(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte("{not json"), 0644))
	s, err := NewFile(dir)
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "users")
	assert.Error(t, err)
}

func TestFallbackUsesSecondaryWhenPrimaryFails(t *testing.T) {
	ctx := context.Background()
	secondary := NewMemory()
	f := NewFallback(brokenStore{}, secondary, zap.NewNop())

	require.NoError(t, Save(ctx, f, "things", []item{{ID: 3}}))

	got, err := Load[item](ctx, f, "things")
	require.NoError(t, err)
	assert.Equal(t, []item{{ID: 3}}, got)

	direct, err := Load[item](ctx, secondary, "things")
	require.NoError(t, err)
	assert.Equal(t, got, direct)
}

func TestFallbackPrefersPrimary(t *testing.T) {
	ctx := context.Background()
	primary := NewMemory()
	secondary := NewMemory()
	f := NewFallback(primary, secondary, zap.NewNop())

	require.NoError(t, Save(ctx, f, "things", []item{{ID: 4}}))

	fromSecondary, err := Load[item](ctx, secondary, "things")
	require.NoError(t, err)
	assert.Empty(t, fromSecondary)
}

func TestFallbackReportsBothFailures(t *testing.T) {
	f := NewFallback(brokenStore{}, brokenStore{}, zap.NewNop())

	_, err := f.Read(context.Background(), "things")
	assert.Error(t, err)
	assert.Error(t, f.Write(context.Background(), "things", nil))
}
