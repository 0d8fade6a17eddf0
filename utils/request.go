package utils

import (
	"net/http"
	"strconv"

	"learnspace/globals"
)

// GetUserIDFromRequest returns the authenticated user id, or "".
func GetUserIDFromRequest(r *http.Request) string {
	id, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

func GetRoleFromRequest(r *http.Request) string {
	role, ok := r.Context().Value(globals.RoleKey).(string)
	if !ok {
		return ""
	}
	return role
}

// QueryInt reads a positive integer query parameter, falling back to def.
func QueryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}
