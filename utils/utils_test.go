package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"learnspace/globals"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContext(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/requests?limit=20&page=x", nil)
	assert.Empty(t, GetUserIDFromRequest(r))
	assert.Empty(t, GetRoleFromRequest(r))

	ctx := context.WithValue(r.Context(), globals.UserIDKey, "11831")
	ctx = context.WithValue(ctx, globals.RoleKey, "Faculty")
	r = r.WithContext(ctx)
	assert.Equal(t, "11831", GetUserIDFromRequest(r))
	assert.Equal(t, "Faculty", GetRoleFromRequest(r))

	assert.Equal(t, 20, QueryInt(r, "limit", 50))
	assert.Equal(t, 1, QueryInt(r, "page", 1))
	assert.Equal(t, 50, QueryInt(r, "missing", 50))
}

func TestResponses(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, http.StatusNotFound, "Request not found")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Request not found"}`, rec.Body.String())

	var body map[string]interface{}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"room_no":"","hallName":"Seminar Hall A"}`))
	require.NoError(t, DecodeJSON(r, &body))
	assert.Equal(t, "Seminar Hall A", FirstString(body, "room_no", "hallName"))
	assert.Empty(t, FirstString(body, "missing"))
}
