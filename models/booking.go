package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Collection names in the document store.
const (
	AdminRequests     = "admin-requests"
	TeacherRequests   = "teacher-requests"
	OrganiserRequests = "organiser-requests"
	Users             = "users"
	Rooms             = "rooms"
)

type Role string

const (
	RoleStudent   Role = "Student"
	RoleFaculty   Role = "Faculty"
	RoleOrganizer Role = "Organizer"
	RoleAdmin     Role = "Admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Source tags the role-local collection a mirrored queue record came from.
type Source string

const (
	SourceTeacher   Source = "teacher"
	SourceOrganiser Source = "organiser"
)

// Collection returns the role-local collection for the source, or "" for an
// unknown tag.
func (s Source) Collection() string {
	switch s {
	case SourceTeacher:
		return TeacherRequests
	case SourceOrganiser:
		return OrganiserRequests
	}
	return ""
}

// IDPrefix is prepended to the numeric id to build the queue record id.
func (s Source) IDPrefix() string {
	switch s {
	case SourceTeacher:
		return "T-"
	case SourceOrganiser:
		return "O-"
	}
	return ""
}

// Ref is the numeric half of a back-reference. Values that are not JSON
// numbers are kept verbatim but report Valid() == false.
type Ref struct {
	ID    int64
	valid bool
	raw   json.RawMessage
}

func NewRef(id int64) *Ref {
	return &Ref{ID: id, valid: true}
}

func (r *Ref) Valid() bool {
	return r != nil && r.valid
}

func (r Ref) MarshalJSON() ([]byte, error) {
	if r.valid {
		return []byte(strconv.FormatInt(r.ID, 10)), nil
	}
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return []byte("null"), nil
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	if id, ok := ParseNumericID(b); ok {
		*r = Ref{ID: id, valid: true}
		return nil
	}
	*r = Ref{raw: append(json.RawMessage(nil), bytes.TrimSpace(b)...)}
	return nil
}

// ParseNumericID reads a JSON number holding a whole value. Strings, floats
// with a fraction and anything else report false.
func ParseNumericID(b []byte) (int64, bool) {
	s := string(bytes.TrimSpace(b))
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	// Whole-valued floats like 1.7e12 still count as numeric.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// BookingRequest is a record in the admin queue.
type BookingRequest struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Message   string `json:"message"`
	Status    Status `json:"status"`
	Source    Source `json:"source,omitempty"`
	SourceRef *Ref   `json:"sourceRef,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// Origin resolves the weak back-reference to the role-local record. ok is
// false for records created directly against the queue or carrying a
// non-numeric reference.
func (b BookingRequest) Origin() (src Source, id int64, ok bool) {
	if b.Source == "" || b.Source.Collection() == "" || !b.SourceRef.Valid() {
		return "", 0, false
	}
	return b.Source, b.SourceRef.ID, true
}

// TeacherRequest is a record in a faculty member's own list. Owner is the
// submitting account; lists and cancels are scoped to it.
type TeacherRequest struct {
	ID     int64      `json:"id"`
	Room   string     `json:"room"`
	Date   string     `json:"date"`
	Time   string     `json:"time"`
	Status RoleStatus `json:"status"`
	Owner  string     `json:"owner,omitempty"`
}

// OrganiserRequest is a record in an organiser's own list.
type OrganiserRequest struct {
	ID     int64      `json:"id"`
	Event  string     `json:"event"`
	Hall   string     `json:"hall"`
	When   string     `json:"when"`
	Status RoleStatus `json:"status"`
	Owner  string     `json:"owner,omitempty"`
}
