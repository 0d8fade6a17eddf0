package requests

import (
	"context"
	"errors"
	"testing"

	"learnspace/models"
	"learnspace/notify"
	"learnspace/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacherForm() TeacherForm {
	return TeacherForm{
		FacultyName: "Dr. Rao",
		FacultyID:   "11831",
		RoomNo:      "A-101",
		Date:        "2025-10-12",
		Time:        "09:00-10:00",
		Purpose:     "Guest lecture",
	}
}

func TestSubmitTeacherApproveThenDelete(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc, n := newTestService(t, mem)

	sub, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)

	local := svc.TeacherRequests(ctx, "")
	require.Len(t, local, 1)
	assert.Equal(t, int64(1700000000000), local[0].ID)
	assert.Equal(t, "A-101", local[0].Room)
	assert.Equal(t, models.RoleStatus(models.StatusPending), local[0].Status)

	queue := svc.List(ctx)
	require.Len(t, queue, 1)
	assert.Equal(t, "T-1700000000000", queue[0].ID)
	assert.Equal(t, models.StatusPending, queue[0].Status)
	assert.Equal(t, models.SourceTeacher, queue[0].Source)
	assert.Equal(t, "11831", queue[0].UserID)
	assert.Equal(t, models.RoleFaculty, queue[0].Role)
	assert.Equal(t, "Guest lecture", queue[0].Message)
	require.True(t, queue[0].SourceRef.Valid())
	assert.Equal(t, sub.Request.ID, queue[0].SourceRef.ID)

	require.Len(t, n.async, 1)
	assert.Equal(t, "pending", n.async[0].Params["status"])
	assert.Equal(t, "A-101", n.async[0].Params["room_no"])

	d, err := svc.Decide(ctx, "T-1700000000000", models.StatusApproved)
	require.NoError(t, err)
	assert.NoError(t, d.NotifyErr)
	assert.Equal(t, models.StatusApproved, d.Request.Status)
	assert.Equal(t, models.RoleStatus(models.StatusApproved), svc.TeacherRequests(ctx, "")[0].Status)

	require.Len(t, n.sent, 1)
	assert.Equal(t, notify.FallbackRecipient, n.sent[0].Params["to_email"])
	assert.Equal(t, "approved", n.sent[0].Params["status"])

	require.NoError(t, svc.Delete(ctx, "T-1700000000000"))
	assert.Empty(t, svc.List(ctx))
	local = svc.TeacherRequests(ctx, "")
	require.Len(t, local, 1)
	assert.Equal(t, models.RoleStatus(models.StatusApproved), local[0].Status)
}

func TestSubmitTeacherFallbacks(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	sub, err := svc.SubmitTeacher(ctx, TeacherForm{FacultyName: "Dr. Rao", Date: "2025-10-12", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "TBD", sub.Request.Room)
	assert.Equal(t, "Dr. Rao", sub.Mirror.UserID)

	sub, err = svc.SubmitTeacher(ctx, TeacherForm{Date: "2025-10-12", Time: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, "Faculty", sub.Mirror.UserID)
}

func TestSubmitOrganiserMirrorsWithPrefix(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	sub, err := svc.SubmitOrganiser(ctx, OrganiserForm{
		OrganizerName: "Asha",
		HallName:      "Seminar Hall A",
		Date:          "2025-11-01",
		Time:          "14:00",
		Purpose:       "Robotics expo",
	})
	require.NoError(t, err)

	assert.Equal(t, "Untitled Event", sub.Request.Event)
	assert.Equal(t, "Seminar Hall A", sub.Request.Hall)
	assert.Equal(t, "2025-11-01 14:00", sub.Request.When)
	assert.Equal(t, "O-1700000000000", sub.Mirror.ID)
	assert.Equal(t, models.RoleOrganizer, sub.Mirror.Role)
	assert.Equal(t, "Asha", sub.Mirror.UserID)
	assert.Equal(t, models.SourceOrganiser, sub.Mirror.Source)

	list := svc.OrganiserRequests(ctx, "")
	require.Len(t, list, 1)
	assert.Equal(t, sub.Request, list[0])

	_, err = svc.Decide(ctx, sub.Mirror.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStatus(models.StatusRejected), svc.OrganiserRequests(ctx, "")[0].Status)
}

func TestSubmitOrganiserDefaults(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())

	sub, err := svc.SubmitOrganiser(context.Background(), OrganiserForm{Date: "2025-11-01", Time: "14:00"})
	require.NoError(t, err)
	assert.Equal(t, "TBD Room", sub.Request.Hall)
	assert.Equal(t, "Organizer", sub.Mirror.UserID)
}

func TestSubmitRejectsMissingDate(t *testing.T) {
	svc, n := newTestService(t, store.NewMemory())

	_, err := svc.SubmitTeacher(context.Background(), TeacherForm{Time: "09:00"})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, n.async)
	assert.Empty(t, svc.List(context.Background()))
}

func TestSubmissionsInTheSameMillisecondGetDistinctIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	a, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)
	b, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)

	assert.NotEqual(t, a.Request.ID, b.Request.ID)
	queue := svc.List(ctx)
	require.Len(t, queue, 2)
	assert.Equal(t, b.Mirror.ID, queue[0].ID)
}

func TestSubmitSucceedsWhenOnlyOneWriteLands(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	flaky := &flakyStore{Store: mem, failWrite: map[string]bool{models.TeacherRequests: true}}
	svc, _ := newTestService(t, flaky)

	_, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)
	assert.Empty(t, svc.TeacherRequests(ctx, ""))
	assert.Len(t, svc.List(ctx), 1)
}

func TestSubmitFailsWhenBothWritesFail(t *testing.T) {
	flaky := &flakyStore{Store: store.NewMemory(), failWrite: map[string]bool{
		models.TeacherRequests: true,
		models.AdminRequests:   true,
	}}
	svc, _ := newTestService(t, flaky)

	_, err := svc.SubmitTeacher(context.Background(), teacherForm())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDecideSurfacesEmailFailure(t *testing.T) {
	ctx := context.Background()
	svc, n := newTestService(t, store.NewMemory())
	n.err = errors.New("emailjs 400 Bad Request: template not found")

	sub, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)

	d, err := svc.Decide(ctx, sub.Mirror.ID, models.StatusRejected)
	require.NoError(t, err)
	assert.ErrorContains(t, d.NotifyErr, "template not found")
	assert.Equal(t, models.StatusRejected, svc.List(ctx)[0].Status)
	assert.Equal(t, models.RoleStatus(models.StatusRejected), svc.TeacherRequests(ctx, "")[0].Status)
}

func TestDecideValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	_, err := svc.Decide(ctx, "missing", models.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Decide(ctx, "missing", models.StatusPending)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	item, err := svc.Create(ctx, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "1700000000000", item.ID)
	assert.Equal(t, "TBD", item.Room)
	assert.Equal(t, "User", item.UserID)
	assert.Equal(t, models.RoleFaculty, item.Role)
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Empty(t, item.Source)
	assert.Nil(t, item.SourceRef)

	_, err = svc.Create(ctx, CreateInput{})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Create(ctx, CreateInput{ID: "x", Role: "Janitor"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDecisionOnDirectRecordLeavesRoleListsAlone(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc, _ := newTestService(t, mem)
	_, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)
	before := rawStrings(t, mem, models.TeacherRequests)

	// same numeric id as the teacher record, but no back-reference
	_, err = svc.Create(ctx, CreateInput{ID: "1700000000000"})
	require.NoError(t, err)
	_, err = svc.Decide(ctx, "1700000000000", models.StatusApproved)
	require.NoError(t, err)

	assert.Equal(t, before, rawStrings(t, mem, models.TeacherRequests))
}

func TestUpdatePatchesFieldsAndReconcilesStatus(t *testing.T) {
	ctx := context.Background()
	svc, n := newTestService(t, store.NewMemory())
	sub, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)

	status, msg := "approved", "Bring your own adapter"
	d, err := svc.Update(ctx, sub.Mirror.ID, Patch{Status: &status, Message: &msg})
	require.NoError(t, err)
	assert.NoError(t, d.NotifyErr)
	item := d.Request
	assert.Equal(t, models.StatusApproved, item.Status)
	assert.Equal(t, msg, item.Message)
	assert.Equal(t, "A-101", item.Room)
	assert.Equal(t, models.RoleStatus(models.StatusApproved), svc.TeacherRequests(ctx, "")[0].Status)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "approved", n.sent[0].Params["status"])

	// same status again, or a field-only edit, sends nothing
	_, err = svc.Update(ctx, sub.Mirror.ID, Patch{Status: &status})
	require.NoError(t, err)
	_, err = svc.Update(ctx, sub.Mirror.ID, Patch{Message: &msg})
	require.NoError(t, err)
	assert.Len(t, n.sent, 1)

	bad := "maybe"
	_, err = svc.Update(ctx, sub.Mirror.ID, Patch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.Update(ctx, "nope", Patch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	svc, _ := newTestService(t, store.NewMemory())
	assert.NoError(t, svc.Delete(context.Background(), "missing"))
}

func TestCancelPendingRequest(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())
	sub, err := svc.SubmitTeacher(ctx, teacherForm())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, models.SourceTeacher, sub.Request.ID, ""))
	assert.Empty(t, svc.TeacherRequests(ctx, ""))
	assert.Len(t, svc.List(ctx), 1)

	err = svc.Cancel(ctx, models.SourceTeacher, sub.Request.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoleListsAreScopedToOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())

	mine := teacherForm()
	mine.Owner = "11831"
	sub, err := svc.SubmitTeacher(ctx, mine)
	require.NoError(t, err)

	theirs := teacherForm()
	theirs.Owner = "22001"
	theirs.RoomNo = "B-207"
	_, err = svc.SubmitTeacher(ctx, theirs)
	require.NoError(t, err)

	list := svc.TeacherRequests(ctx, "11831")
	require.Len(t, list, 1)
	assert.Equal(t, "A-101", list[0].Room)
	assert.Len(t, svc.TeacherRequests(ctx, ""), 2)

	err = svc.Cancel(ctx, models.SourceTeacher, sub.Request.ID, "22001")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, svc.TeacherRequests(ctx, "11831"), 1)

	_, err = svc.Decide(ctx, sub.Mirror.ID, models.StatusApproved)
	require.NoError(t, err)
	list = svc.TeacherRequests(ctx, "11831")
	require.Len(t, list, 1)
	assert.Equal(t, "11831", list[0].Owner)
	assert.Equal(t, models.RoleStatus(models.StatusApproved), list[0].Status)
}

func TestCancelDecidedRequestFails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, store.NewMemory())
	sub, err := svc.SubmitOrganiser(ctx, OrganiserForm{EventName: "Expo", Date: "2025-11-01", Time: "14:00"})
	require.NoError(t, err)
	_, err = svc.Decide(ctx, sub.Mirror.ID, models.StatusApproved)
	require.NoError(t, err)

	err = svc.Cancel(ctx, models.SourceOrganiser, sub.Request.ID, "")
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Len(t, svc.OrganiserRequests(ctx, ""), 1)
}

func TestListTreatsUnreadableQueueAsEmpty(t *testing.T) {
	flaky := &flakyStore{Store: store.NewMemory(), failRead: map[string]bool{models.AdminRequests: true}}
	svc, _ := newTestService(t, flaky)

	list := svc.List(context.Background())
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
