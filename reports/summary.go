// Package reports summarises the admin queue and renders PDF exports.
package reports

import (
	"context"

	"learnspace/models"
)

// Source is the admin queue as seen by reports.
type Source interface {
	List(ctx context.Context) []models.BookingRequest
	Get(ctx context.Context, id string) (models.BookingRequest, error)
}

type RoleCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type Summary struct {
	Total    int         `json:"total"`
	Approved int         `json:"approved"`
	Pending  int         `json:"pending"`
	Rejected int         `json:"rejected"`
	ByRole   []RoleCount `json:"byRole"`
}

// requesterRoles is the fixed order of the byRole breakdown.
var requesterRoles = []models.Role{models.RoleStudent, models.RoleFaculty, models.RoleOrganizer}

func Summarize(items []models.BookingRequest) Summary {
	s := Summary{Total: len(items)}
	roles := make(map[models.Role]int, len(requesterRoles))
	for _, item := range items {
		switch item.Status {
		case models.StatusApproved:
			s.Approved++
		case models.StatusRejected:
			s.Rejected++
		default:
			s.Pending++
		}
		roles[item.Role]++
	}
	s.ByRole = make([]RoleCount, 0, len(requesterRoles))
	for _, role := range requesterRoles {
		s.ByRole = append(s.ByRole, RoleCount{Name: string(role), Value: roles[role]})
	}
	return s
}
