package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"learnspace/apilog"
	"learnspace/live"
	"learnspace/middleware"
	"learnspace/models"
	"learnspace/notify"
	"learnspace/ratelim"
	"learnspace/reports"
	"learnspace/requests"
	"learnspace/rooms"
	"learnspace/store"
	"learnspace/users"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router *httprouter.Router
	auth   *middleware.Auth
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	s := store.NewMemory()
	hub := live.NewHub(logger)

	emailjs := notify.NewEmailJS(notify.Credentials{}, "", nil)
	dispatcher := notify.NewDispatcher(emailjs, logger, time.Second)
	t.Cleanup(dispatcher.Wait)

	engine := requests.NewEngine(s, hub, logger)
	svc := requests.NewService(s, engine, dispatcher, hub, logger)
	auth := middleware.NewAuth("test-secret", time.Hour)

	router := httprouter.New()
	RoutesWrapper(router, Handlers{
		Auth:     auth,
		Limiter:  ratelim.NewRateLimiter(100, 100),
		Requests: requests.NewHandler(svc),
		Rooms:    rooms.NewHandler(rooms.NewService(s, hub, logger)),
		Users:    users.NewHandler(users.NewService(s, logger), auth, false, logger),
		Email:    notify.NewHandler(emailjs, dispatcher),
		Reports:  reports.NewHandler(svc),
		Logs:     apilog.New(10),
		Hub:      hub,
	})
	return &testServer{router: router, auth: auth}
}

func (ts *testServer) do(t *testing.T, method, path, body string, role models.Role) *httptest.ResponseRecorder {
	t.Helper()
	var u *models.User
	if role != "" {
		u = &models.User{ID: "u-" + strings.ToLower(string(role)), Name: "Test", Role: role}
	}
	return ts.doAs(t, method, path, body, u)
}

func (ts *testServer) doAs(t *testing.T, method, path, body string, u *models.User) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if u != nil {
		token, err := ts.auth.Issue(*u)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutesNeedAdmin(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/requests", "", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/requests", "", models.RoleFaculty).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/admin/logs", "", models.RoleOrganizer).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/requests", "", models.RoleAdmin).Code)
}

func TestTeacherSubmissionReachesAdminQueue(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/teacher/requests",
		`{"facultyName":"Dr. Rao","room_no":"A-101","date":"2024-05-01","time":"10:00"}`, models.RoleFaculty)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/api/teacher/requests", "", models.RoleOrganizer).Code)

	rec = ts.do(t, http.MethodGet, "/api/teacher/requests", "", models.RoleFaculty)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine []models.TeacherRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "A-101", mine[0].Room)

	rec = ts.do(t, http.MethodGet, "/api/requests", "", models.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)
	var queue []models.BookingRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &queue))
	require.Len(t, queue, 1)
	assert.True(t, strings.HasPrefix(queue[0].ID, "T-"))
	assert.Equal(t, models.StatusPending, queue[0].Status)
	assert.Equal(t, "u-faculty", queue[0].UserID)
}

func TestFacultySeesOnlyOwnRequests(t *testing.T) {
	ts := newTestServer(t)
	other := &models.User{ID: "22001", Name: "Dr. Iyer", Role: models.RoleFaculty}

	rec := ts.do(t, http.MethodPost, "/api/teacher/requests", `{"room_no":"A-101","date":"2024-05-01","time":"10:00"}`, models.RoleFaculty)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sub struct {
		Request models.TeacherRequest `json:"request"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))

	rec = ts.doAs(t, http.MethodGet, "/api/teacher/requests", "", other)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	path := fmt.Sprintf("/api/teacher/requests/%d", sub.Request.ID)
	assert.Equal(t, http.StatusNotFound, ts.doAs(t, http.MethodDelete, path, "", other).Code)

	rec = ts.do(t, http.MethodGet, "/api/teacher/requests", "", models.RoleAdmin)
	assert.Contains(t, rec.Body.String(), `"owner":"u-faculty"`)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, path, "", models.RoleFaculty).Code)
}

func TestPublicRoutes(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/rooms", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rs []models.Room
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rs))
	assert.Len(t, rs, len(models.DefaultRooms))

	rec = ts.do(t, http.MethodGet, "/api/auth/me", "", "")
	assert.JSONEq(t, `{"user":null}`, rec.Body.String())

}

func TestLiveTopicsNeedMatchingRole(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/ws/admin", "", "").Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/ws/admin", "", models.RoleFaculty).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/ws/organiser", "", models.RoleFaculty).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/ws/nowhere", "", models.RoleAdmin).Code)
}
