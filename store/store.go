// Package store persists named collections of JSON records. Every backend
// follows the same read-whole / replace-whole pattern: Read returns the full
// ordered collection and Write replaces it. A collection that was never
// written reads as empty.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

type Store interface {
	Read(ctx context.Context, name string) ([]json.RawMessage, error)
	Write(ctx context.Context, name string, records []json.RawMessage) error
}

// Load decodes a collection into typed records.
func Load[T any](ctx context.Context, s Store, name string) ([]T, error) {
	raw, err := s.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", name, i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Save encodes typed records and replaces the collection.
func Save[T any](ctx context.Context, s Store, name string, items []T) error {
	raw, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.Write(ctx, name, raw)
}

// Prepend puts item at the head of the collection. Existing records are kept
// byte for byte. A failed read aborts the write so a transient error cannot
// wipe the collection.
func Prepend[T any](ctx context.Context, s Store, name string, item T) error {
	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	list, err := s.Read(ctx, name)
	if err != nil {
		return err
	}
	next := make([]json.RawMessage, 0, len(list)+1)
	next = append(next, b)
	next = append(next, list...)
	return s.Write(ctx, name, next)
}

// Encode marshals each item to its own raw record.
func Encode[T any](items []T) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return raw, nil
}

func decodeArray(name string, body []byte) ([]json.RawMessage, error) {
	if len(body) == 0 {
		return nil, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("collection %s is not a JSON array: %w", name, err)
	}
	return raw, nil
}

func encodeArray(records []json.RawMessage) ([]byte, error) {
	if records == nil {
		records = []json.RawMessage{}
	}
	return json.Marshal(records)
}

func clone(records []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	for i, r := range records {
		out[i] = append(json.RawMessage(nil), r...)
	}
	return out
}
