package schemas

import "context"

// -- Boundary Interfaces --

// ScriptExecutor runs a synthesized script against a live provider surface
// and returns the structured outcome. It is the only long-latency operation
// in a delivery task; implementations must honor ctx cancellation.
//
// A returned error is a hard execution fault (target unreachable, protocol
// failure) as opposed to an outcome with Success=false, which means the
// script ran but did not complete the delivery.
type ScriptExecutor interface {
	Execute(ctx context.Context, providerID ProviderID, script string) (InjectionOutcome, error)
}

// AuthChecker probes a provider surface for its "still needs login" markers.
type AuthChecker interface {
	// CheckAuth returns true when the provider appears authenticated.
	CheckAuth(ctx context.Context, providerID ProviderID) (bool, error)
}

// SelectorSource resolves the read-only selector configuration for a
// provider. Implementations validate the backing data before the core ever
// sees it; Get fails with a NotFound coded error for unknown providers.
type SelectorSource interface {
	Get(providerID ProviderID) (SelectorConfig, error)
}

// SubmissionReader is the polling surface callers use to observe delivery
// progress after Submit returns.
type SubmissionReader interface {
	Status(id string) (Submission, error)
}
