package routes

import (
	"learnspace/apilog"
	"learnspace/live"
	"learnspace/middleware"
	"learnspace/models"
	"learnspace/notify"
	"learnspace/ratelim"
	"learnspace/reports"
	"learnspace/requests"
	"learnspace/rooms"
	"learnspace/users"

	"github.com/julienschmidt/httprouter"
)

// Handlers bundles everything the router dispatches to.
type Handlers struct {
	Auth     *middleware.Auth
	Limiter  *ratelim.RateLimiter
	Requests *requests.Handler
	Rooms    *rooms.Handler
	Users    *users.Handler
	Email    *notify.Handler
	Reports  *reports.Handler
	Logs     *apilog.Log
	Hub      *live.Hub
}

func AddAuthRoutes(router *httprouter.Router, h Handlers) {
	router.POST("/api/login", h.Limiter.Limit(h.Users.Login))
	router.GET("/api/auth/me", h.Auth.OptionalAuth(h.Users.Me))
	router.POST("/api/auth/logout", h.Users.Logout)
}

func AddUserRoutes(router *httprouter.Router, h Handlers) {
	admin := h.Auth.RequireRole(models.RoleAdmin)
	router.GET("/api/users", admin(h.Users.List))
	router.POST("/api/users", admin(h.Users.Create))
	router.DELETE("/api/users/:id", admin(h.Users.Delete))
}

func AddRoomRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/rooms", h.Rooms.List)
	router.PUT("/api/rooms/:id/status", h.Auth.RequireRole(models.RoleAdmin)(h.Rooms.SetStatus))
}

func AddRequestRoutes(router *httprouter.Router, h Handlers) {
	admin := h.Auth.RequireRole(models.RoleAdmin)
	router.GET("/api/requests", admin(h.Requests.ListRequests))
	router.POST("/api/requests", h.Limiter.Limit(h.Auth.Authenticate(h.Requests.CreateRequest)))
	router.PUT("/api/requests/:id", admin(h.Requests.UpdateRequest))
	router.DELETE("/api/requests/:id", admin(h.Requests.DeleteRequest))
	router.POST("/api/requests/:id/decision", admin(h.Requests.DecideRequest))
	router.GET("/api/requests/:id/slip", admin(h.Reports.Slip))
	router.PUT("/api/admin/requests", admin(h.Requests.ReplaceQueue))

	faculty := h.Auth.RequireRole(models.RoleFaculty)
	router.POST("/api/teacher/requests", h.Limiter.Limit(faculty(h.Requests.SubmitTeacher)))
	router.GET("/api/teacher/requests", faculty(h.Requests.ListTeacher))
	router.DELETE("/api/teacher/requests/:id", faculty(h.Requests.CancelHandler(models.SourceTeacher)))

	organiser := h.Auth.RequireRole(models.RoleOrganizer)
	router.POST("/api/organiser/requests", h.Limiter.Limit(organiser(h.Requests.SubmitOrganiser)))
	router.GET("/api/organiser/requests", organiser(h.Requests.ListOrganiser))
	router.DELETE("/api/organiser/requests/:id", organiser(h.Requests.CancelHandler(models.SourceOrganiser)))
}

func AddEmailRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/api/email/config", h.Email.GetConfig)
	router.POST("/api/email", h.Limiter.Limit(h.Auth.RequireRole(models.RoleAdmin)(h.Email.SendStatus)))
	router.POST("/api/email/new-request", h.Limiter.Limit(h.Auth.Authenticate(h.Email.SendNewRequest)))
}

func AddAdminRoutes(router *httprouter.Router, h Handlers) {
	admin := h.Auth.RequireRole(models.RoleAdmin)
	router.GET("/api/admin/logs", admin(h.Logs.HandleList))
	router.DELETE("/api/admin/logs", admin(h.Logs.HandleClear))
	router.GET("/api/admin/summary", admin(h.Reports.Summary))
	router.GET("/api/admin/summary.pdf", admin(h.Reports.SummaryPDF))
}

func AddLiveRoutes(router *httprouter.Router, h Handlers) {
	router.GET("/ws/:topic", h.Auth.Authenticate(h.Hub.HandleWS))
}
