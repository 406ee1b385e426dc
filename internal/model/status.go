package model

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a workflow or unit
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusRunning    Status = "RUNNING"
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusUpForRetry Status = "UP_FOR_RETRY"
)

// ErrInvalidStatus is returned when a status is outside the fixed enumeration
var ErrInvalidStatus = errors.New("invalid status")

// Statuses lists every valid status in declaration order
func Statuses() []Status {
	return []Status{StatusPending, StatusRunning, StatusSuccess, StatusFailed, StatusUpForRetry}
}

// Valid reports whether s is one of the five known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusSuccess, StatusFailed, StatusUpForRetry:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a raw string into a Status.
// The empty string yields StatusPending.
func ParseStatus(raw string) (Status, error) {
	if raw == "" {
		return StatusPending, nil
	}
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}
