package schemas

import "time"

// -- Provider Schemas --

// ProviderID identifies one of the fixed chat surfaces a prompt can be
// delivered to.
type ProviderID string

const (
	ProviderChatGPT ProviderID = "chatgpt"
	ProviderGemini  ProviderID = "gemini"
	ProviderClaude  ProviderID = "claude"
)

// AllProviderIDs returns the fixed provider set in display order.
func AllProviderIDs() []ProviderID {
	return []ProviderID{ProviderChatGPT, ProviderGemini, ProviderClaude}
}

// Name returns the human readable display name for the provider.
func (id ProviderID) Name() string {
	switch id {
	case ProviderChatGPT:
		return "ChatGPT"
	case ProviderGemini:
		return "Gemini"
	case ProviderClaude:
		return "Claude"
	}
	return string(id)
}

// URL returns the target URL of the provider's chat surface.
func (id ProviderID) URL() string {
	switch id {
	case ProviderChatGPT:
		return "https://chat.openai.com/"
	case ProviderGemini:
		return "https://gemini.google.com/"
	case ProviderClaude:
		return "https://claude.ai/"
	}
	return ""
}

// Valid reports whether the id names one of the supported providers.
func (id ProviderID) Valid() bool {
	switch id {
	case ProviderChatGPT, ProviderGemini, ProviderClaude:
		return true
	}
	return false
}

// Provider is a snapshot of one chat surface and its mutable flags. Identity
// (ID, Name, URL) never changes; IsSelected and IsAuthenticated do.
type Provider struct {
	ID              ProviderID `json:"id"`
	Name            string     `json:"name"`
	URL             string     `json:"url"`
	IsSelected      bool       `json:"is_selected"`
	IsAuthenticated bool       `json:"is_authenticated"`
}

// -- Submission Schemas --

// SubmissionStatus is the state of one tracked prompt delivery.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "pending"
	StatusInProgress SubmissionStatus = "in_progress"
	StatusRetrying   SubmissionStatus = "retrying"
	StatusSuccess    SubmissionStatus = "success"
	StatusFailed     SubmissionStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// ErrorKind classifies a submission-level delivery failure.
type ErrorKind string

const (
	ErrTimeout         ErrorKind = "timeout"
	ErrNetwork         ErrorKind = "network_error"
	ErrAuthentication  ErrorKind = "authentication_error"
	ErrRateLimit       ErrorKind = "rate_limit_error"
	ErrElementNotFound ErrorKind = "element_not_found"
	ErrInjectionFailed ErrorKind = "injection_failed"
)

// Retryable reports whether the kind is eligible for one automatic re-attempt.
func (k ErrorKind) Retryable() bool {
	return k == ErrTimeout || k == ErrNetwork
}

// Submission is the tracked record of delivering one prompt to one provider.
// Timestamps are pointers because they are unset until the corresponding
// transition happens; CompletedAt is stamped at most once.
type Submission struct {
	ID           string           `json:"id"`
	ProviderID   ProviderID       `json:"provider_id"`
	Prompt       string           `json:"prompt"`
	Status       SubmissionStatus `json:"status"`
	AttemptCount uint8            `json:"attempt_count"`
	ErrorKind    ErrorKind        `json:"error_kind,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	StartedAt    *time.Time       `json:"started_at,omitempty"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// InjectionOutcome is the structured result reported by an injection script
// run. It is consumed once and folded into the owning Submission.
type InjectionOutcome struct {
	Success         bool   `json:"success"`
	ElementFound    bool   `json:"element_found"`
	SubmitTriggered bool   `json:"submit_triggered"`
	ErrorMessage    string `json:"error_message,omitempty"`
}

// -- Selector Configuration Schemas --

// SelectorConfig holds the per-provider CSS selector fallback chains used to
// locate elements on the provider's page. Selector order is meaningful: the
// first selector that resolves to an element wins. Immutable after load.
type SelectorConfig struct {
	ProviderID         ProviderID `json:"provider_id"`
	Version            string     `json:"config_version"`
	InputSelectors     []string   `json:"input_selectors"`
	SubmitSelectors    []string   `json:"submit_selectors"`
	AuthCheckSelectors []string   `json:"auth_check_selectors"`
	LastUpdated        string     `json:"last_updated"`
	Notes              string     `json:"notes,omitempty"`
}
