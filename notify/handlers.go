package notify

import (
	"net/http"

	"learnspace/models"
	"learnspace/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	emailjs    *EmailJS
	dispatcher *Dispatcher
}

func NewHandler(emailjs *EmailJS, dispatcher *Dispatcher) *Handler {
	return &Handler{emailjs: emailjs, dispatcher: dispatcher}
}

// GetConfig handles GET /api/email/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, h.emailjs.PublicConfig())
}

type statusEmailBody struct {
	ToEmail string `json:"to_email"`
	Status  string `json:"status"`
	Room    string `json:"room"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

// SendStatus handles POST /api/email.
func (h *Handler) SendStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body statusEmailBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	status, err := models.ParseQueueStatus(body.Status)
	if err != nil || status == models.StatusPending {
		utils.RespondWithError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	msg := StatusMessage(models.BookingRequest{
		Room:    body.Room,
		UserID:  body.UserID,
		Role:    models.Role(body.Role),
		Date:    body.Date,
		Time:    body.Time,
		Message: body.Message,
		Email:   body.ToEmail,
	}, status)
	delete(msg.Params, "request_id")

	if err := h.dispatcher.Send(r.Context(), msg); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SendNewRequest handles POST /api/email/new-request. It accepts both the
// faculty and organiser field spellings.
func (h *Handler) SendNewRequest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body map[string]interface{}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}

	msg := NewRequestMessage(NewRequest{
		FacultyName: utils.FirstString(body, "faculty_name", "facultyName", "organizerName"),
		FacultyID:   utils.FirstString(body, "faculty_id", "facultyId", "eventName"),
		RoomNo:      utils.FirstString(body, "room_no", "roomNo", "hallName", "hall"),
		Date:        utils.FirstString(body, "date"),
		TimeSlot:    utils.FirstString(body, "time_slot", "time"),
		Purpose:     utils.FirstString(body, "purpose", "description"),
	})

	if err := h.dispatcher.Send(r.Context(), msg); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
