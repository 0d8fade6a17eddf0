package models

import (
	"fmt"
	"strings"
)

// Status is the canonical lifecycle state of a booking request. The admin queue
// and the role-local lists spell it differently on the wire; the tables below
// are the only place the two vocabularies meet.
type Status uint8

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
)

var queueNames = map[Status]string{
	StatusPending:  "pending",
	StatusApproved: "approved",
	StatusRejected: "rejected",
}

var roleNames = map[Status]string{
	StatusPending:  "Pending",
	StatusApproved: "Approved",
	StatusRejected: "Rejected",
}

// ParseQueueStatus reads the admin-queue spelling.
func ParseQueueStatus(s string) (Status, error) {
	for st, name := range queueNames {
		if name == s {
			return st, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown status: %q", s)
}

// ParseRoleStatus reads the role-local spelling.
func ParseRoleStatus(s string) (Status, error) {
	for st, name := range roleNames {
		if name == s {
			return st, nil
		}
	}
	return StatusPending, fmt.Errorf("unknown status: %q", s)
}

// RoleStatusFor projects an admin-queue status string into the role-local
// vocabulary. Anything that is not approved or rejected becomes Pending.
func RoleStatusFor(queueStatus string) string {
	st, err := ParseQueueStatus(queueStatus)
	if err != nil {
		return roleNames[StatusPending]
	}
	return roleNames[st]
}

func (s Status) String() string {
	if name, ok := queueNames[s]; ok {
		return name
	}
	return queueNames[StatusPending]
}

// RoleString returns the role-local spelling.
func (s Status) RoleString() string {
	if name, ok := roleNames[s]; ok {
		return name
	}
	return roleNames[StatusPending]
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText is lenient: stored snapshots may carry values written by older
// clients, and an unknown value is treated as pending rather than failing the
// whole collection.
func (s *Status) UnmarshalText(b []byte) error {
	st, err := ParseQueueStatus(strings.TrimSpace(string(b)))
	if err != nil {
		st = StatusPending
	}
	*s = st
	return nil
}

// RoleStatus is Status as spelled in role-local records.
type RoleStatus Status

func (s RoleStatus) MarshalText() ([]byte, error) {
	return []byte(Status(s).RoleString()), nil
}

func (s *RoleStatus) UnmarshalText(b []byte) error {
	st, err := ParseRoleStatus(strings.TrimSpace(string(b)))
	if err != nil {
		st = StatusPending
	}
	*s = RoleStatus(st)
	return nil
}
