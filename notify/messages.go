package notify

import (
	"learnspace/models"
)

// FallbackRecipient is used when a request carries no email address.
const FallbackRecipient = "requester@example.com"

// StatusMessage tells the requester about an admin decision.
func StatusMessage(item models.BookingRequest, status models.Status) Message {
	to := item.Email
	if to == "" {
		to = FallbackRecipient
	}
	return Message{Params: map[string]string{
		"to_email":   to,
		"status":     status.String(),
		"room":       item.Room,
		"user_id":    item.UserID,
		"role":       string(item.Role),
		"date":       item.Date,
		"time":       item.Time,
		"message":    item.Message,
		"request_id": item.ID,
	}}
}

// NewRequest carries the fields of a freshly submitted booking. Organiser
// submissions put the organiser name in FacultyName and the event name in
// FacultyID, matching the shared template.
type NewRequest struct {
	FacultyName string `json:"faculty_name"`
	FacultyID   string `json:"faculty_id"`
	RoomNo      string `json:"room_no"`
	Date        string `json:"date"`
	TimeSlot    string `json:"time_slot"`
	Purpose     string `json:"purpose"`
}

func NewRequestMessage(r NewRequest) Message {
	return Message{Params: map[string]string{
		"faculty_name": r.FacultyName,
		"faculty_id":   r.FacultyID,
		"room_no":      r.RoomNo,
		"date":         r.Date,
		"time_slot":    r.TimeSlot,
		"purpose":      r.Purpose,
		"status":       models.StatusPending.String(),
	}}
}
