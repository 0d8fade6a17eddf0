package routes

import (
	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, h Handlers) {
	AddAuthRoutes(router, h)
	AddUserRoutes(router, h)
	AddRoomRoutes(router, h)
	AddRequestRoutes(router, h)
	AddEmailRoutes(router, h)
	AddAdminRoutes(router, h)
	AddLiveRoutes(router, h)
}
