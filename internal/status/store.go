package status

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

// Store tracks every submission created during the process lifetime.
// Mutations are serialized by a single mutex around the table; each
// operation is O(1) and short-lived, so contention between unrelated
// submissions is acceptable. Entries are never evicted.
type Store struct {
	mu          sync.Mutex
	submissions map[string]*schemas.Submission
	logger      *zap.Logger
	now         func() time.Time
}

// NewStore creates an empty submission store.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		submissions: make(map[string]*schemas.Submission),
		logger:      logger.Named("status"),
		now:         time.Now,
	}
}

// Create allocates and tracks a new Pending submission.
func (st *Store) Create(providerID schemas.ProviderID, prompt string) schemas.Submission {
	sub := newSubmission(providerID, prompt)

	st.mu.Lock()
	st.submissions[sub.ID] = &sub
	st.mu.Unlock()

	st.logger.Info("Submission created",
		zap.String("submission_id", sub.ID),
		zap.String("provider", string(providerID)))
	return sub
}

// update applies fn to the tracked submission under the table lock and
// returns the resulting snapshot. The closure either mutates the record or
// returns an error leaving it unchanged.
func (st *Store) update(id string, fn func(*schemas.Submission) error) (schemas.Submission, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sub, ok := st.submissions[id]
	if !ok {
		return schemas.Submission{}, schemas.NewNotFoundError("submission %q not found", id)
	}
	if err := fn(sub); err != nil {
		return schemas.Submission{}, err
	}
	return *sub, nil
}

// Start transitions a submission into InProgress, counting the attempt.
func (st *Store) Start(id string) (schemas.Submission, error) {
	return st.update(id, func(s *schemas.Submission) error {
		return start(s, st.now())
	})
}

// Succeed marks an InProgress submission as delivered.
func (st *Store) Succeed(id string) (schemas.Submission, error) {
	sub, err := st.update(id, func(s *schemas.Submission) error {
		return succeed(s, st.now())
	})
	if err == nil {
		st.logger.Info("Submission succeeded",
			zap.String("submission_id", id),
			zap.Uint8("attempts", sub.AttemptCount))
	}
	return sub, err
}

// Fail records a delivery failure, applying the retry policy once. The
// caller must re-invoke Start to actually retry a Retrying submission.
func (st *Store) Fail(id string, kind schemas.ErrorKind, message string) (schemas.Submission, error) {
	sub, err := st.update(id, func(s *schemas.Submission) error {
		return fail(s, kind, message, st.now())
	})
	if err == nil {
		st.logger.Warn("Submission failed",
			zap.String("submission_id", id),
			zap.String("error_kind", string(kind)),
			zap.String("status", string(sub.Status)),
			zap.Uint8("attempts", sub.AttemptCount))
	}
	return sub, err
}

// Abandon moves a Retrying submission to Failed without re-evaluating the
// retry policy, for callers that decline the re-attempt. The recorded error
// kind and message are kept.
func (st *Store) Abandon(id string) (schemas.Submission, error) {
	sub, err := st.update(id, func(s *schemas.Submission) error {
		return abandon(s, st.now())
	})
	if err == nil {
		st.logger.Warn("Submission abandoned",
			zap.String("submission_id", id),
			zap.String("error_kind", string(sub.ErrorKind)))
	}
	return sub, err
}

// Status returns a read-only snapshot of one submission.
func (st *Store) Status(id string) (schemas.Submission, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sub, ok := st.submissions[id]
	if !ok {
		return schemas.Submission{}, schemas.NewNotFoundError("submission %q not found", id)
	}
	return *sub, nil
}

// CheckTimeouts reports the ids of active submissions whose latest attempt
// exceeded the advisory budget. It mutates nothing; acting on the result is
// the caller's job.
func (st *Store) CheckTimeouts() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	var timed []string
	for id, sub := range st.submissions {
		if timedOut(sub, now) {
			timed = append(timed, id)
		}
	}
	return timed
}
