// Package status owns the per-submission state machine and the thread-safe
// store that tracks every delivery for the life of the process.
//
// The machine is Pending -> InProgress -> {Success | Retrying | Failed},
// with Retrying -> InProgress allowed for the single automatic re-attempt.
// Success and Failed are terminal.
package status

import (
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

// maxAttempts bounds the retry policy: a retryable failure on the first
// attempt transitions to Retrying, any later failure is final.
const maxAttempts = 2

// submissionTimeout is the advisory per-attempt budget used by the timeout
// sweep. Detection is poll driven; the store never cancels work itself.
const submissionTimeout = 30 * time.Second

// newSubmission allocates a Pending submission with a fresh identity. The
// prompt is stored by value so later caller mutations cannot leak in.
func newSubmission(providerID schemas.ProviderID, prompt string) schemas.Submission {
	return schemas.Submission{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		Prompt:     prompt,
		Status:     schemas.StatusPending,
	}
}

// start transitions Pending or Retrying to InProgress, increments the
// attempt counter, and stamps the attempt's start time. Any other source
// state is a caller ordering bug.
func start(s *schemas.Submission, now time.Time) error {
	if s.Status != schemas.StatusPending && s.Status != schemas.StatusRetrying {
		return schemas.NewInternalError("cannot start submission %s from %s state", s.ID, s.Status)
	}
	s.Status = schemas.StatusInProgress
	s.AttemptCount++
	started := now
	s.StartedAt = &started
	return nil
}

// succeed transitions InProgress to Success and stamps completion.
func succeed(s *schemas.Submission, now time.Time) error {
	if s.Status != schemas.StatusInProgress {
		return schemas.NewInternalError("cannot succeed submission %s from %s state", s.ID, s.Status)
	}
	s.Status = schemas.StatusSuccess
	completed := now
	s.CompletedAt = &completed
	return nil
}

// fail applies the retry policy once: a retryable kind below the attempt
// limit parks the submission in Retrying without stamping completion, so a
// caller can re-invoke start. Everything else is final.
func fail(s *schemas.Submission, kind schemas.ErrorKind, message string, now time.Time) error {
	if s.Status != schemas.StatusInProgress && s.Status != schemas.StatusRetrying {
		return schemas.NewInternalError("cannot fail submission %s from %s state", s.ID, s.Status)
	}

	s.ErrorKind = kind
	s.ErrorMessage = message

	if kind.Retryable() && s.AttemptCount < maxAttempts {
		s.Status = schemas.StatusRetrying
		return nil
	}

	s.Status = schemas.StatusFailed
	completed := now
	s.CompletedAt = &completed
	return nil
}

// abandon finalizes a Retrying submission whose re-attempt is not going to
// happen, keeping the recorded error. Without this a parked submission can
// never reach a terminal state: the timeout sweep's fail(Timeout) at attempt
// one just re-parks it.
func abandon(s *schemas.Submission, now time.Time) error {
	if s.Status != schemas.StatusRetrying {
		return schemas.NewInternalError("cannot abandon submission %s from %s state", s.ID, s.Status)
	}
	s.Status = schemas.StatusFailed
	completed := now
	s.CompletedAt = &completed
	return nil
}

// timedOut reports whether an active submission's latest attempt has
// exceeded the advisory budget.
func timedOut(s *schemas.Submission, now time.Time) bool {
	if s.Status != schemas.StatusInProgress && s.Status != schemas.StatusRetrying {
		return false
	}
	if s.StartedAt == nil {
		return false
	}
	return now.Sub(*s.StartedAt) > submissionTimeout
}
