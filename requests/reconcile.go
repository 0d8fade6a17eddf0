package requests

import (
	"context"
	"encoding/json"

	"learnspace/live"
	"learnspace/models"
	"learnspace/store"

	"go.uber.org/zap"
)

// Engine keeps role-local lists in step with admin decisions. It diffs two
// snapshots of the admin queue and, for every mirrored record whose status
// changed, rewrites the status of the originating role-local record.
type Engine struct {
	store  store.Store
	events live.Publisher
	logger *zap.Logger
}

func NewEngine(s store.Store, events live.Publisher, logger *zap.Logger) *Engine {
	if events == nil {
		events = live.Nop{}
	}
	return &Engine{store: s, events: events, logger: logger}
}

// Reconcile propagates status changes between previous and next, persists
// next as the admin queue and returns it. Role-local storage failures are
// logged and skipped; they never stop later records or the queue write.
func (e *Engine) Reconcile(ctx context.Context, previous, next []models.BookingRequest) []models.BookingRequest {
	before := make(map[string]models.Status, len(previous))
	for _, p := range previous {
		if _, seen := before[p.ID]; !seen {
			before[p.ID] = p.Status
		}
	}

	for _, n := range next {
		old, ok := before[n.ID]
		if !ok || old == n.Status {
			continue
		}
		src, ref, ok := n.Origin()
		if !ok {
			continue
		}
		e.patchOrigin(ctx, src, ref, n.Status)
	}

	if err := store.Save(ctx, e.store, models.AdminRequests, next); err != nil {
		e.logger.Error("failed to persist admin queue", zap.Error(err))
	} else {
		e.events.Publish(ctx, live.UpdateEvent(models.AdminRequests))
	}
	return next
}

// Apply is the change hook for a whole new queue snapshot. The stored queue
// is the previous snapshot; an unreadable queue counts as empty.
func (e *Engine) Apply(ctx context.Context, next []models.BookingRequest) []models.BookingRequest {
	previous, err := store.Load[models.BookingRequest](ctx, e.store, models.AdminRequests)
	if err != nil {
		e.logger.Warn("admin queue unreadable, reconciling against empty", zap.Error(err))
		previous = nil
	}
	return e.Reconcile(ctx, previous, next)
}

// patchOrigin sets the status of the role-local records with id ref. Records
// are edited in place at the field level so anything else they carry
// survives, and the collection is left untouched when nothing matches.
func (e *Engine) patchOrigin(ctx context.Context, src models.Source, ref int64, status models.Status) {
	coll := src.Collection()
	log := e.logger.With(zap.String("collection", coll), zap.Int64("ref", ref))

	records, err := e.store.Read(ctx, coll)
	if err != nil {
		log.Warn("role-local read failed, skipping", zap.Error(err))
		return
	}

	value, err := json.Marshal(status.RoleString())
	if err != nil {
		log.Error("encode role status", zap.Error(err))
		return
	}

	matched := false
	for i, raw := range records {
		id, ok := recordID(raw)
		if !ok || id != ref {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		fields["status"] = value
		patched, err := json.Marshal(fields)
		if err != nil {
			log.Error("encode role-local record", zap.Error(err))
			continue
		}
		records[i] = patched
		matched = true
	}
	if !matched {
		log.Debug("no role-local record for reference")
		return
	}

	if err := e.store.Write(ctx, coll, records); err != nil {
		log.Warn("role-local write failed", zap.Error(err))
		return
	}
	log.Info("role-local status updated", zap.String("status", status.RoleString()))
	e.events.Publish(ctx, live.UpdateEvent(coll))
}

// recordID reads the numeric id of a raw role-local record. A quoted id never
// matches a numeric reference.
func recordID(raw json.RawMessage) (int64, bool) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe.ID) == 0 {
		return 0, false
	}
	return models.ParseNumericID(probe.ID)
}

func recordOwner(raw json.RawMessage) string {
	var peek struct {
		Owner string `json:"owner"`
	}
	if err := json.Unmarshal(raw, &peek); err != nil {
		return ""
	}
	return peek.Owner
}

// recordStatus reads the role-local status of a raw record.
func recordStatus(raw json.RawMessage) models.Status {
	var probe struct {
		Status models.RoleStatus `json:"status"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return models.StatusPending
	}
	return models.Status(probe.Status)
}
