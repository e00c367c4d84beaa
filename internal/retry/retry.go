// Package retry tracks bounded retry attempts of externally triggered operations, such as
// re-sending the notification of an exported report.
package retry

import (
	"fmt"
	"time"
)

// State is the attempt count of one retriable operation.
type State struct {
	Key         string    `json:"key"`
	Operation   string    `json:"operation"`
	Count       int       `json:"count"`
	LastAttempt time.Time `json:"last_attempt"`
	MaxRetries  int       `json:"max_retries"`
}

// NewState returns the state of key with count attempts already made.
func NewState(key, operation string, count, maxRetries int) *State {
	return &State{Key: key, Operation: operation, Count: count, MaxRetries: maxRetries}
}

// CanRetry returns true if more retries are allowed
func (s *State) CanRetry() bool {
	return s.Count < s.MaxRetries
}

// Remaining returns how many attempts are left.
func (s *State) Remaining() int {
	return max(s.MaxRetries-s.Count, 0)
}

// Increment records an attempt at now.
// Returns an error if max retries are exceeded
func (s *State) Increment(now time.Time) error {
	if !s.CanRetry() {
		return &RetryExhaustedError{
			Key:        s.Key,
			Operation:  s.Operation,
			Count:      s.Count,
			MaxRetries: s.MaxRetries,
		}
	}
	s.Count++
	s.LastAttempt = now
	return nil
}

// Reset resets the retry count and clears the timestamp
func (s *State) Reset() {
	s.Count = 0
	s.LastAttempt = time.Time{}
}

// RetryExhaustedError indicates retry limit has been reached
type RetryExhaustedError struct {
	Key        string
	Operation  string
	Count      int
	MaxRetries int
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("retry limit exhausted for %s %s (%d/%d attempts)",
		e.Operation, e.Key, e.Count, e.MaxRetries)
}

// ExitCode returns the exit code for retry exhausted (2)
func (e *RetryExhaustedError) ExitCode() int {
	return 2
}
