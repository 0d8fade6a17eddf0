package requests

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"learnspace/live"
	"learnspace/models"
	"learnspace/notify"
	"learnspace/store"

	"go.uber.org/zap"
)

// TeacherForm is the faculty quick-booking form.
type TeacherForm struct {
	FacultyName string `json:"facultyName"`
	FacultyID   string `json:"facultyId"`
	RoomNo      string `json:"room_no"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Purpose     string `json:"purpose"`
	Email       string `json:"email" validate:"omitempty,email"`
	// Owner is the authenticated account, never read from the body.
	Owner string `json:"-"`
}

// OrganiserForm is the event hall request form.
type OrganiserForm struct {
	OrganizerName string `json:"organizerName"`
	EventName     string `json:"eventName"`
	HallName      string `json:"hallName"`
	RoomNo        string `json:"room_no"`
	Date          string `json:"date" validate:"required"`
	Time          string `json:"time" validate:"required"`
	Purpose       string `json:"purpose"`
	Email         string `json:"email" validate:"omitempty,email"`
	Owner         string `json:"-"`
}

// TeacherSubmission is what a faculty submission produced.
type TeacherSubmission struct {
	Request models.TeacherRequest `json:"request"`
	Mirror  models.BookingRequest `json:"mirror"`
}

type OrganiserSubmission struct {
	Request models.OrganiserRequest `json:"request"`
	Mirror  models.BookingRequest   `json:"mirror"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// SubmitTeacher records a faculty booking in the faculty list and mirrors it
// into the admin queue.
func (s *Service) SubmitTeacher(ctx context.Context, form TeacherForm) (TeacherSubmission, error) {
	if err := s.validate.Struct(form); err != nil {
		return TeacherSubmission{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	id := s.nextID()
	room := firstNonEmpty(form.RoomNo, "TBD")
	local := models.TeacherRequest{
		ID:     id,
		Room:   room,
		Date:   form.Date,
		Time:   form.Time,
		Status: models.RoleStatus(models.StatusPending),
		Owner:  form.Owner,
	}
	mirror := models.BookingRequest{
		ID:        models.SourceTeacher.IDPrefix() + strconv.FormatInt(id, 10),
		Room:      room,
		UserID:    firstNonEmpty(form.FacultyID, form.FacultyName, "Faculty"),
		Role:      models.RoleFaculty,
		Date:      form.Date,
		Time:      form.Time,
		Message:   form.Purpose,
		Status:    models.StatusPending,
		Source:    models.SourceTeacher,
		SourceRef: models.NewRef(id),
		Email:     form.Email,
		CreatedAt: id,
	}

	s.notifier.Go("new-request", notify.NewRequestMessage(notify.NewRequest{
		FacultyName: form.FacultyName,
		FacultyID:   form.FacultyID,
		RoomNo:      form.RoomNo,
		Date:        form.Date,
		TimeSlot:    form.Time,
		Purpose:     form.Purpose,
	}))

	if err := s.record(ctx, models.TeacherRequests, local, mirror); err != nil {
		return TeacherSubmission{}, err
	}
	return TeacherSubmission{Request: local, Mirror: mirror}, nil
}

// SubmitOrganiser records an event hall request in the organiser list and
// mirrors it into the admin queue.
func (s *Service) SubmitOrganiser(ctx context.Context, form OrganiserForm) (OrganiserSubmission, error) {
	if err := s.validate.Struct(form); err != nil {
		return OrganiserSubmission{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	id := s.nextID()
	hall := firstNonEmpty(form.RoomNo, form.HallName, "TBD Room")
	local := models.OrganiserRequest{
		ID:     id,
		Event:  firstNonEmpty(form.EventName, "Untitled Event"),
		Hall:   hall,
		When:   form.Date + " " + form.Time,
		Status: models.RoleStatus(models.StatusPending),
		Owner:  form.Owner,
	}
	mirror := models.BookingRequest{
		ID:        models.SourceOrganiser.IDPrefix() + strconv.FormatInt(id, 10),
		Room:      hall,
		UserID:    firstNonEmpty(form.OrganizerName, form.EventName, "Organizer"),
		Role:      models.RoleOrganizer,
		Date:      form.Date,
		Time:      form.Time,
		Message:   form.Purpose,
		Status:    models.StatusPending,
		Source:    models.SourceOrganiser,
		SourceRef: models.NewRef(id),
		Email:     form.Email,
		CreatedAt: id,
	}

	s.notifier.Go("new-request", notify.NewRequestMessage(notify.NewRequest{
		FacultyName: form.OrganizerName,
		FacultyID:   form.EventName,
		RoomNo:      firstNonEmpty(form.RoomNo, form.HallName),
		Date:        form.Date,
		TimeSlot:    form.Time,
		Purpose:     form.Purpose,
	}))

	if err := s.record(ctx, models.OrganiserRequests, local, mirror); err != nil {
		return OrganiserSubmission{}, err
	}
	return OrganiserSubmission{Request: local, Mirror: mirror}, nil
}

// record prepends the role-local record and its queue mirror. The two writes
// are independent: one failing is logged and the submission still succeeds.
// Only when neither landed is the submission reported as failed.
func (s *Service) record(ctx context.Context, coll string, local any, mirror models.BookingRequest) error {
	localErr := store.Prepend(ctx, s.store, coll, local)
	if localErr != nil {
		s.logger.Warn("role-local write failed", zap.String("collection", coll), zap.Error(localErr))
	} else {
		s.events.Publish(ctx, live.UpdateEvent(coll))
	}

	mirrorErr := store.Prepend(ctx, s.store, models.AdminRequests, mirror)
	if mirrorErr != nil {
		s.logger.Warn("admin mirror write failed", zap.String("id", mirror.ID), zap.Error(mirrorErr))
	} else {
		s.events.Publish(ctx, live.UpdateEvent(models.AdminRequests))
	}

	if localErr != nil && mirrorErr != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(localErr, mirrorErr))
	}
	s.logger.Info("booking submitted", zap.String("id", mirror.ID), zap.String("room", mirror.Room))
	return nil
}
