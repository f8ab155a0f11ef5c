package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEnum is returned when a role or status string is not a known variant.
var ErrInvalidEnum = errors.New("invalid enum value")

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleViewer  Role = "viewer"
)

// Roles lists every role, most privileged first.
var Roles = []Role{RoleOwner, RoleAdmin, RoleManager, RoleMember, RoleViewer}

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: role %q", ErrInvalidEnum, raw)
}

type MembershipStatus string

const (
	StatusInvited   MembershipStatus = "invited"
	StatusActive    MembershipStatus = "active"
	StatusSuspended MembershipStatus = "suspended"
)

var MembershipStatuses = []MembershipStatus{StatusInvited, StatusActive, StatusSuspended}

// ParseMembershipStatus converts raw input into a MembershipStatus.
func ParseMembershipStatus(raw string) (MembershipStatus, error) {
	s := MembershipStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range MembershipStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: status %q", ErrInvalidEnum, raw)
}
