package reports

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnspace/models"
	"learnspace/requests"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource []models.BookingRequest

func (f fakeSource) List(context.Context) []models.BookingRequest { return f }

func (f fakeSource) Get(_ context.Context, id string) (models.BookingRequest, error) {
	for _, item := range f {
		if item.ID == id {
			return item, nil
		}
	}
	return models.BookingRequest{}, fmt.Errorf("%w: %s", requests.ErrNotFound, id)
}

var queue = fakeSource{
	{ID: "T-1", Room: "A-101", UserID: "11831", Role: models.RoleFaculty, Date: "2025-10-12", Time: "09:00-10:00", Status: models.StatusApproved},
	{ID: "O-2", Room: "H-101", UserID: "Asha", Role: models.RoleOrganizer, Status: models.StatusPending},
	{ID: "3", Room: "B-207", UserID: "s1", Role: models.RoleStudent, Status: models.StatusRejected},
	{ID: "4", Room: "B-207", UserID: "s2", Role: models.RoleFaculty, Status: models.StatusPending},
}

func TestSummarize(t *testing.T) {
	s := Summarize(queue)
	assert.Equal(t, Summary{
		Total: 4, Approved: 1, Pending: 2, Rejected: 1,
		ByRole: []RoleCount{{"Student", 1}, {"Faculty", 2}, {"Organizer", 1}},
	}, s)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Total)
	assert.Len(t, empty.ByRole, 3)
}

func TestSlipPayload(t *testing.T) {
	assert.Equal(t, "T-1|A-101|2025-10-12|09:00-10:00", SlipPayload(queue[0]))
}

func TestPDFsRender(t *testing.T) {
	body, err := SummaryPDF(Summarize(queue), queue, time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	body, err = SlipPDF(queue[0])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestSlipHandler(t *testing.T) {
	h := NewHandler(queue)
	router := httprouter.New()
	router.GET("/api/requests/:id/slip", h.Slip)

	for path, want := range map[string]int{
		"/api/requests/T-1/slip":  http.StatusOK,
		"/api/requests/O-2/slip":  http.StatusConflict,
		"/api/requests/nope/slip": http.StatusNotFound,
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Code, path)
	}
}
