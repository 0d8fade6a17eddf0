package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"learnspace/models"
	"learnspace/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// respondErr maps service errors onto HTTP statuses.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotPending), errors.Is(err, ErrDuplicate):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	}
}

// GET /api/requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.svc.List(r.Context()))
}

// POST /api/requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if in.UserID == "" {
		in.UserID = utils.GetUserIDFromRequest(r)
	}
	item, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "id": item.ID, "request": item})
}

// PUT /api/requests/:id
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var patch Patch
	if err := utils.DecodeJSON(r, &patch); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	d, err := h.svc.Update(r.Context(), ps.ByName("id"), patch)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeDecision(w, d)
}

// DELETE /api/requests/:id
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.svc.Delete(r.Context(), ps.ByName("id")); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// POST /api/requests/:id/decision
func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Status string `json:"status"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	status, err := models.ParseQueueStatus(body.Status)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	d, err := h.svc.Decide(r.Context(), ps.ByName("id"), status)
	if err != nil {
		respondErr(w, err)
		return
	}
	writeDecision(w, d)
}

func writeDecision(w http.ResponseWriter, d Decision) {
	resp := utils.M{"ok": true, "request": d.Request}
	if d.NotifyErr != nil {
		resp["warning"] = "Status saved but the email was not sent: " + d.NotifyErr.Error()
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// PUT /api/admin/requests
func (h *Handler) ReplaceQueue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	next, err := decodeSnapshot(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "data": h.svc.ApplySnapshot(r.Context(), next)})
}

// POST /api/teacher/requests
func (h *Handler) SubmitTeacher(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var form TeacherForm
	if err := utils.DecodeJSON(r, &form); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	form.Owner = utils.GetUserIDFromRequest(r)
	if form.FacultyID == "" {
		form.FacultyID = form.Owner
	}
	sub, err := h.svc.SubmitTeacher(r.Context(), form)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "request": sub.Request, "mirror": sub.Mirror})
}

// GET /api/teacher/requests
func (h *Handler) ListTeacher(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.svc.TeacherRequests(r.Context(), scope(r)))
}

// POST /api/organiser/requests
func (h *Handler) SubmitOrganiser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var form OrganiserForm
	if err := utils.DecodeJSON(r, &form); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	form.Owner = utils.GetUserIDFromRequest(r)
	sub, err := h.svc.SubmitOrganiser(r.Context(), form)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"ok": true, "request": sub.Request, "mirror": sub.Mirror})
}

// GET /api/organiser/requests
func (h *Handler) ListOrganiser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.svc.OrganiserRequests(r.Context(), scope(r)))
}

// scope is the owner role-local routes are limited to. Admins see every
// record.
func scope(r *http.Request) string {
	if models.Role(utils.GetRoleFromRequest(r)) == models.RoleAdmin {
		return ""
	}
	return utils.GetUserIDFromRequest(r)
}

// CancelHandler serves DELETE /api/{teacher,organiser}/requests/:id.
func (h *Handler) CancelHandler(src models.Source) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid request id")
			return
		}
		if err := h.svc.Cancel(r.Context(), src, id, scope(r)); err != nil {
			respondErr(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
	}
}

// decodeSnapshot reads a whole admin queue. Status values must use the queue
// spelling; stored data is decoded leniently, but an admin edit is not.
func decodeSnapshot(r *http.Request) ([]models.BookingRequest, error) {
	var raw []json.RawMessage
	if err := utils.DecodeJSON(r, &raw); err != nil {
		return nil, errors.New("body must be an array of requests")
	}
	next := make([]models.BookingRequest, 0, len(raw))
	for i, rec := range raw {
		var peek struct {
			Status *string `json:"status"`
		}
		if err := json.Unmarshal(rec, &peek); err != nil {
			return nil, fmt.Errorf("request %d is not an object", i)
		}
		if peek.Status != nil {
			if _, err := models.ParseQueueStatus(*peek.Status); err != nil {
				return nil, fmt.Errorf("request %d: %v", i, err)
			}
		}
		var item models.BookingRequest
		if err := json.Unmarshal(rec, &item); err != nil {
			return nil, fmt.Errorf("request %d: %v", i, err)
		}
		next = append(next, item)
	}
	return next, nil
}
