// Package types provides the data model shared by the hiring pipeline packages.
package types

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CandidateStatus is the lifecycle status of a candidate, both globally and
// within a single process board.
type CandidateStatus string

// Built-in candidate statuses. Deployments may recognize more through
// configuration (see StatusRegistry).
const (
	StatusBacklog    CandidateStatus = "BACKLOG"
	StatusProcessing CandidateStatus = "PROCESSING"
	StatusActive     CandidateStatus = "ACTIVE"
	StatusOnHold     CandidateStatus = "ON_HOLD"
	StatusHired      CandidateStatus = "HIRED"
	StatusRejected   CandidateStatus = "REJECTED"
	StatusWithdrawn  CandidateStatus = "WITHDRAWN"
)

// statusTag is the validator tag backed by a StatusRegistry.
const statusTag = "candidate_status"

// StatusRegistry is the single membership check for candidate statuses.
// Every component that accepts a status from the outside goes through it.
type StatusRegistry struct {
	known map[CandidateStatus]struct{}
}

// NewStatusRegistry returns a registry holding the built-in statuses plus any
// additional ones. Additional names are upper-cased and trimmed; blanks are
// ignored.
func NewStatusRegistry(additional ...string) *StatusRegistry {
	r := &StatusRegistry{known: make(map[CandidateStatus]struct{})}
	for _, s := range []CandidateStatus{
		StatusBacklog, StatusProcessing, StatusActive, StatusOnHold,
		StatusHired, StatusRejected, StatusWithdrawn,
	} {
		r.known[s] = struct{}{}
	}
	for _, name := range additional {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		r.known[CandidateStatus(name)] = struct{}{}
	}
	return r
}

// Recognize reports whether s is a known status and returns it typed.
// Matching is exact: "active" is not "ACTIVE".
func (r *StatusRegistry) Recognize(s string) (CandidateStatus, bool) {
	status := CandidateStatus(s)
	_, ok := r.known[status]
	return status, ok
}

// Parse is Recognize with an error for unknown values.
func (r *StatusRegistry) Parse(s string) (CandidateStatus, error) {
	status, ok := r.Recognize(s)
	if !ok {
		return "", fmt.Errorf("unrecognized candidate status %q", s)
	}
	return status, nil
}

// All returns the recognized statuses in lexical order.
func (r *StatusRegistry) All() []CandidateStatus {
	out := make([]CandidateStatus, 0, len(r.known))
	for s := range r.known {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RegisterValidation installs the "candidate_status" tag on v.
func (r *StatusRegistry) RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		_, ok := r.Recognize(fl.Field().String())
		return ok
	})
}

// NewValidator returns a validator with the registry's tag installed that
// reports fields by their JSON names.
func (r *StatusRegistry) NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := r.RegisterValidation(v); err != nil {
		// Only fails on an empty tag name or nil func.
		panic(err)
	}
	return v
}

// Role is the capability class of an authenticated caller.
type Role string

// Roles known to the system.
const (
	RoleRecruiter   Role = "RECRUITER"
	RoleManager     Role = "MANAGER"
	RoleInterviewer Role = "INTERVIEWER"
)

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleRecruiter, RoleManager, RoleInterviewer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   Role
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
