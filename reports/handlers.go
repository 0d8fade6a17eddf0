package reports

import (
	"errors"
	"net/http"
	"time"

	"learnspace/models"
	"learnspace/requests"
	"learnspace/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	src Source
	now func() time.Time
}

func NewHandler(src Source) *Handler {
	return &Handler{src: src, now: time.Now}
}

func writePDF(w http.ResponseWriter, name string, body []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// GET /api/admin/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, Summarize(h.src.List(r.Context())))
}

// GET /api/admin/summary.pdf
func (h *Handler) SummaryPDF(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	items := h.src.List(r.Context())
	body, err := SummaryPDF(Summarize(items), items, h.now())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	writePDF(w, "booking-summary.pdf", body)
}

// GET /api/requests/:id/slip
func (h *Handler) Slip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	item, err := h.src.Get(r.Context(), ps.ByName("id"))
	if errors.Is(err, requests.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item.Status != models.StatusApproved {
		utils.RespondWithError(w, http.StatusConflict, "Only approved requests have a slip")
		return
	}
	body, err := SlipPDF(item)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	writePDF(w, "slip-"+item.ID+".pdf", body)
}
