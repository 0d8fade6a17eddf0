package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Fallback tries Primary first and uses Secondary when it fails, the way the
// service falls back from the database to local JSON files. The two backends
// are not kept in sync; whichever accepted the last write holds the newest
// snapshot.
type Fallback struct {
	Primary   Store
	Secondary Store
	Logger    *zap.Logger
}

func NewFallback(primary, secondary Store, logger *zap.Logger) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary, Logger: logger}
}

func (f *Fallback) Read(ctx context.Context, name string) ([]json.RawMessage, error) {
	records, err := f.Primary.Read(ctx, name)
	if err == nil {
		return records, nil
	}
	f.Logger.Warn("primary store read failed, using fallback",
		zap.String("collection", name), zap.Error(err))

	records, ferr := f.Secondary.Read(ctx, name)
	if ferr != nil {
		return nil, fmt.Errorf("read %s: %w", name, errors.Join(err, ferr))
	}
	return records, nil
}

func (f *Fallback) Write(ctx context.Context, name string, records []json.RawMessage) error {
	err := f.Primary.Write(ctx, name, records)
	if err == nil {
		return nil
	}
	f.Logger.Warn("primary store write failed, using fallback",
		zap.String("collection", name), zap.Error(err))

	if ferr := f.Secondary.Write(ctx, name, records); ferr != nil {
		return fmt.Errorf("write %s: %w", name, errors.Join(err, ferr))
	}
	return nil
}
