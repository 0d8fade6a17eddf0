package apilog

import (
	"net/http"

	"learnspace/utils"

	"github.com/julienschmidt/httprouter"
)

// GET /api/admin/logs?limit=50&endpoint=...&stats=true
func (l *Log) HandleList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()
	if q.Get("stats") == "true" {
		utils.RespondWithJSON(w, http.StatusOK, l.Stats())
		return
	}
	limit := utils.QueryInt(r, "limit", 50)
	utils.RespondWithJSON(w, http.StatusOK, l.Filter(q.Get("endpoint"), limit))
}

// DELETE /api/admin/logs
func (l *Log) HandleClear(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	l.Clear()
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Logs cleared"})
}
