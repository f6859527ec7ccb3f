package model

import (
	"fmt"
	"strings"
)

// TaskKind decides what a task's goal measures.
type TaskKind string

const (
	KindTimeBased TaskKind = "TIME_BASED"
	KindYesNo     TaskKind = "YES_NO"
)

func (k TaskKind) Valid() bool {
	return k == KindTimeBased || k == KindYesNo
}

func ParseTaskKind(raw string) (TaskKind, error) {
	k := TaskKind(strings.ToUpper(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown task type %q", raw)
	}
	return k, nil
}

// Frequency is the fixed step between two periods of a task.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// ParseFrequency rejects anything outside DAILY, WEEKLY and MONTHLY.
func ParseFrequency(raw string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(raw)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown task frequency %q", raw)
	}
	return f, nil
}

// Status is the soft-delete flag shared by tasks and categories.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusArchived Status = "ARCHIVED"
)

// SessionStatus is the state of a single progress event.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
	SessionCancelled  SessionStatus = "CANCELLED"
)

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

