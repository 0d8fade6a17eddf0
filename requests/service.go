// Package requests implements the booking request workflow: role submissions
// mirrored into the admin queue, admin decisions, and reconciliation of those
// decisions back into each requester's own list.
package requests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"learnspace/live"
	"learnspace/models"
	"learnspace/notify"
	"learnspace/store"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrNotFound    = errors.New("request not found")
	ErrNotPending  = errors.New("request is no longer pending")
	ErrInvalid     = errors.New("invalid request")
	ErrDuplicate   = errors.New("request id already exists")
	ErrUnavailable = errors.New("request store unavailable")
)

// Notifier sends emails. Send is synchronous so the caller can surface the
// failure; Go is fire-and-forget.
type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
	Go(kind string, msg notify.Message)
}

type Service struct {
	store    store.Store
	engine   *Engine
	notifier Notifier
	events   live.Publisher
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time

	idMu   sync.Mutex
	lastID int64
}

type Option func(*Service)

// WithClock replaces time.Now, which drives submission ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(s store.Store, engine *Engine, notifier Notifier, events live.Publisher, logger *zap.Logger, opts ...Option) *Service {
	if events == nil {
		events = live.Nop{}
	}
	svc := &Service{
		store:    s,
		engine:   engine,
		notifier: notifier,
		events:   events,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// nextID returns the clock in milliseconds, bumped past the last id handed
// out so two submissions in the same millisecond stay distinct.
func (s *Service) nextID() int64 {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// List returns the admin queue, newest first. An unreadable queue is empty.
func (s *Service) List(ctx context.Context) []models.BookingRequest {
	items, err := store.Load[models.BookingRequest](ctx, s.store, models.AdminRequests)
	if err != nil {
		s.logger.Warn("admin queue unreadable", zap.Error(err))
		return []models.BookingRequest{}
	}
	return items
}

func (s *Service) Get(ctx context.Context, id string) (models.BookingRequest, error) {
	for _, item := range s.List(ctx) {
		if item.ID == id {
			return item, nil
		}
	}
	return models.BookingRequest{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// CreateInput is a direct queue record. Empty fields take defaults.
type CreateInput struct {
	ID      string        `json:"id"`
	Room    string        `json:"room"`
	UserID  string        `json:"userId"`
	Role    models.Role   `json:"role" validate:"omitempty,oneof=Student Faculty Organizer"`
	Date    string        `json:"date"`
	Time    string        `json:"time"`
	Message string        `json:"message"`
	Status  models.Status `json:"status"`
	Email   string        `json:"email" validate:"omitempty,email"`
}

// Create prepends a record to the admin queue. Direct records carry no
// back-reference, so decisions on them never touch a role-local list.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.BookingRequest, error) {
	if err := s.validate.Struct(in); err != nil {
		return models.BookingRequest{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	now := s.now().UnixMilli()
	item := models.BookingRequest{
		ID:        firstNonEmpty(in.ID, strconv.FormatInt(now, 10)),
		Room:      firstNonEmpty(in.Room, "TBD"),
		UserID:    firstNonEmpty(in.UserID, "User"),
		Role:      models.Role(firstNonEmpty(string(in.Role), string(models.RoleFaculty))),
		Date:      in.Date,
		Time:      in.Time,
		Message:   in.Message,
		Status:    in.Status,
		Email:     in.Email,
		CreatedAt: now,
	}

	current, err := store.Load[models.BookingRequest](ctx, s.store, models.AdminRequests)
	if err != nil {
		return models.BookingRequest{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	for _, existing := range current {
		if existing.ID == item.ID {
			return models.BookingRequest{}, fmt.Errorf("%w: %s", ErrDuplicate, item.ID)
		}
	}

	if err := store.Prepend(ctx, s.store, models.AdminRequests, item); err != nil {
		return models.BookingRequest{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.events.Publish(ctx, live.UpdateEvent(models.AdminRequests))
	return item, nil
}

// Patch holds the fields an admin may edit on a queue record. Nil fields are
// left alone.
type Patch struct {
	Status  *string `json:"status"`
	Message *string `json:"message"`
	Date    *string `json:"date"`
	Time    *string `json:"time"`
	Email   *string `json:"email"`
}

// Update applies patch to one queue record. A status change to approved or
// rejected is reconciled into the originating role-local list and emailed to
// the requester, like a decision.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Decision, error) {
	current, err := store.Load[models.BookingRequest](ctx, s.store, models.AdminRequests)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	idx := indexOf(current, id)
	if idx < 0 {
		return Decision{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	item := current[idx]
	if patch.Status != nil {
		st, err := models.ParseQueueStatus(*patch.Status)
		if err != nil {
			return Decision{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		item.Status = st
	}
	if patch.Message != nil {
		item.Message = *patch.Message
	}
	if patch.Date != nil {
		item.Date = *patch.Date
	}
	if patch.Time != nil {
		item.Time = *patch.Time
	}
	if patch.Email != nil {
		item.Email = *patch.Email
	}

	s.engine.Reconcile(ctx, current, replaceAt(current, idx, item))

	d := Decision{Request: item}
	if item.Status != current[idx].Status && item.Status != models.StatusPending {
		d.NotifyErr = s.sendStatus(ctx, item)
	}
	return d, nil
}

// sendStatus emails the requester about a decision. The error is logged and
// handed back for the caller to surface.
func (s *Service) sendStatus(ctx context.Context, item models.BookingRequest) error {
	err := s.notifier.Send(ctx, notify.StatusMessage(item, item.Status))
	if err != nil {
		s.logger.Warn("status email failed", zap.String("id", item.ID), zap.Error(err))
	}
	return err
}

// Delete removes a record from the admin queue. It never cascades into the
// role-local lists, and deleting an absent id is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := store.Load[models.BookingRequest](ctx, s.store, models.AdminRequests)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	next := make([]models.BookingRequest, 0, len(current))
	for _, item := range current {
		if item.ID != id {
			next = append(next, item)
		}
	}
	if len(next) == len(current) {
		return nil
	}
	if err := store.Save(ctx, s.store, models.AdminRequests, next); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.events.Publish(ctx, live.UpdateEvent(models.AdminRequests))
	return nil
}

// Decision is the outcome of an admin approve/reject. NotifyErr is set when
// the status email could not be sent; the decision itself still stands.
type Decision struct {
	Request   models.BookingRequest
	NotifyErr error
}

// Decide approves or rejects a queue record, reconciles the decision into the
// requester's list and emails the requester.
func (s *Service) Decide(ctx context.Context, id string, status models.Status) (Decision, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return Decision{}, fmt.Errorf("%w: decision must be approved or rejected", ErrInvalid)
	}

	current, err := store.Load[models.BookingRequest](ctx, s.store, models.AdminRequests)
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	idx := indexOf(current, id)
	if idx < 0 {
		return Decision{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	item := current[idx]
	item.Status = status
	s.engine.Reconcile(ctx, current, replaceAt(current, idx, item))

	return Decision{Request: item, NotifyErr: s.sendStatus(ctx, item)}, nil
}

// ApplySnapshot replaces the admin queue with next and reconciles every
// status change against the stored queue.
func (s *Service) ApplySnapshot(ctx context.Context, next []models.BookingRequest) []models.BookingRequest {
	return s.engine.Apply(ctx, next)
}

// TeacherRequests lists the faculty role-local records owned by owner. An
// empty owner lists every record.
func (s *Service) TeacherRequests(ctx context.Context, owner string) []models.TeacherRequest {
	items, err := store.Load[models.TeacherRequest](ctx, s.store, models.TeacherRequests)
	if err != nil {
		s.logger.Warn("teacher list unreadable", zap.Error(err))
		return []models.TeacherRequest{}
	}
	return ownedBy(items, owner, func(r models.TeacherRequest) string { return r.Owner })
}

// OrganiserRequests lists the organiser role-local records owned by owner.
func (s *Service) OrganiserRequests(ctx context.Context, owner string) []models.OrganiserRequest {
	items, err := store.Load[models.OrganiserRequest](ctx, s.store, models.OrganiserRequests)
	if err != nil {
		s.logger.Warn("organiser list unreadable", zap.Error(err))
		return []models.OrganiserRequest{}
	}
	return ownedBy(items, owner, func(r models.OrganiserRequest) string { return r.Owner })
}

func ownedBy[T any](items []T, owner string, ownerOf func(T) string) []T {
	if owner == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if ownerOf(item) == owner {
			out = append(out, item)
		}
	}
	return out
}

// Cancel withdraws a role-local request that is still pending. Its queue
// mirror is left for the admin to see. A non-empty owner only reaches that
// account's records; anyone else's look absent.
func (s *Service) Cancel(ctx context.Context, src models.Source, id int64, owner string) error {
	coll := src.Collection()
	if coll == "" {
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, src)
	}
	records, err := s.store.Read(ctx, coll)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	idx := -1
	for i, raw := range records {
		if rid, ok := recordID(raw); ok && rid == id && (owner == "" || recordOwner(raw) == owner) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if st := recordStatus(records[idx]); st != models.StatusPending {
		return fmt.Errorf("%w: %d is %s", ErrNotPending, id, st.RoleString())
	}

	next := make([]json.RawMessage, 0, len(records)-1)
	next = append(next, records[:idx]...)
	next = append(next, records[idx+1:]...)
	if err := s.store.Write(ctx, coll, next); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.events.Publish(ctx, live.UpdateEvent(coll))
	return nil
}

func indexOf(items []models.BookingRequest, id string) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// replaceAt returns a copy of items with items[i] swapped for item, so the
// caller keeps the untouched snapshot for diffing.
func replaceAt(items []models.BookingRequest, i int, item models.BookingRequest) []models.BookingRequest {
	next := make([]models.BookingRequest, len(items))
	copy(next, items)
	next[i] = item
	return next
}
