// Package rooms lists bookable rooms and lets an admin set their status by
// hand. Status is never derived from bookings.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"learnspace/live"
	"learnspace/models"
	"learnspace/store"
	"learnspace/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("room not found")
	ErrInvalidStatus = errors.New("status must be free, reserved or occupied")
)

type Service struct {
	store  store.Store
	events live.Publisher
	logger *zap.Logger
}

func NewService(s store.Store, events live.Publisher, logger *zap.Logger) *Service {
	if events == nil {
		events = live.Nop{}
	}
	return &Service{store: s, events: events, logger: logger}
}

// List returns every room, seeding the defaults into an empty collection.
// If the collection cannot be read the defaults are served without a write.
func (s *Service) List(ctx context.Context) []models.Room {
	rooms, err := store.Load[models.Room](ctx, s.store, models.Rooms)
	if err != nil {
		s.logger.Warn("rooms unreadable, serving defaults", zap.Error(err))
		return defaults()
	}
	if len(rooms) > 0 {
		return rooms
	}

	rooms = defaults()
	if err := store.Save(ctx, s.store, models.Rooms, rooms); err != nil {
		s.logger.Warn("failed to seed rooms", zap.Error(err))
	} else {
		s.logger.Info("seeded default rooms", zap.Int("count", len(rooms)))
	}
	return rooms
}

// SetStatus toggles one room's status. An unreadable collection is an error;
// the defaults are never written over it.
func (s *Service) SetStatus(ctx context.Context, id string, status models.RoomStatus) (models.Room, error) {
	if !status.Valid() {
		return models.Room{}, ErrInvalidStatus
	}
	rooms, err := store.Load[models.Room](ctx, s.store, models.Rooms)
	if err != nil {
		return models.Room{}, fmt.Errorf("load rooms: %w", err)
	}
	if len(rooms) == 0 {
		rooms = defaults()
	}
	for i := range rooms {
		if rooms[i].ID != id {
			continue
		}
		rooms[i].Status = status
		if err := store.Save(ctx, s.store, models.Rooms, rooms); err != nil {
			return models.Room{}, fmt.Errorf("save rooms: %w", err)
		}
		s.events.Publish(ctx, live.UpdateEvent(models.Rooms))
		return rooms[i], nil
	}
	return models.Room{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func defaults() []models.Room {
	out := make([]models.Room, len(models.DefaultRooms))
	for i, r := range models.DefaultRooms {
		r.Facilities = append([]string(nil), r.Facilities...)
		out[i] = r
	}
	return out
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GET /api/rooms
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

// PUT /api/rooms/:id/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Status models.RoomStatus `json:"status"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	room, err := h.svc.SetStatus(r.Context(), ps.ByName("id"), body.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondWithJSON(w, http.StatusOK, room)
	}
}
