package permission

import "context"

// Verdict is the outcome of a device-level consent check.
type Verdict string

const (
	VerdictVerified Verdict = "verified"
	VerdictDenied   Verdict = "denied"
	VerdictCanceled Verdict = "canceled"
)

// Gate is the device consent contract (biometric/PIN). A nil gate, or one
// reporting unavailable, is treated as always-approved: the UI prompt is
// then the only stage.
type Gate interface {
	Available() bool
	RequestConsent(ctx context.Context, message string) (Verdict, error)
}

// Prompter is the user-facing consent dialog contract, implemented by the
// shell layer. Approved=false means the user rejected the request.
type Prompter interface {
	PromptConsent(ctx context.Context, widgetID string, message string) (approved bool, err error)
}
