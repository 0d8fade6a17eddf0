package users

import (
	"errors"
	"net/http"

	"learnspace/globals"
	"learnspace/middleware"
	"learnspace/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type Handler struct {
	svc    *Service
	auth   *middleware.Auth
	secure bool
	logger *zap.Logger
}

// NewHandler builds the auth and account handlers. secure marks the session
// cookie Secure, which browsers require outside localhost.
func NewHandler(svc *Service, auth *middleware.Auth, secure bool, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, auth: auth, secure: secure, logger: logger}
}

func (h *Handler) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     globals.AuthCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if err := utils.DecodeJSON(r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if body.ID == "" || body.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing id or password")
		return
	}

	u, err := h.svc.Authenticate(r.Context(), body.ID, body.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Login unavailable")
		return
	}

	token, err := h.auth.Issue(u)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	h.setCookie(w, token, int(h.auth.TTL().Seconds()))
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true, "user": u.Profile(), "token": token})
}

// GET /api/auth/me. Expects OptionalAuth in front.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := utils.GetUserIDFromRequest(r)
	if id == "" {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": nil})
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": nil})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": u.Profile()})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.setCookie(w, "", -1)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

// GET /api/users
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// POST /api/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in NewUser
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	u, err := h.svc.Create(r.Context(), in)
	switch {
	case errors.Is(err, ErrInvalid):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrExists):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondWithJSON(w, http.StatusCreated, u.Profile())
	}
}

// DELETE /api/users/:id
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	err := h.svc.Delete(r.Context(), ps.ByName("id"))
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case err != nil:
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
	default:
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
	}
}
