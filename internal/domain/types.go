package domain

import "time"

// AccountCredential identifies one account in the config file.
// Identity is the username; credentials are immutable for the run.
type AccountCredential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInStatus is the status summary reported by the service after a
// sign-in. Optional fields are nil when the service omits them.
type SignInStatus struct {
	SignedToday     bool
	LastSignInAt    *time.Time
	LastReward      *int
	ConsecutiveDays *int
}

// AccountOutcome classifies how processing one account ended.
type AccountOutcome string

const (
	OutcomeSigned        AccountOutcome = "signed"
	OutcomeAlreadySigned AccountOutcome = "already_signed"
	OutcomeAuthFailed    AccountOutcome = "auth_failed"
	OutcomeSignInFailed  AccountOutcome = "sign_in_failed"
	OutcomeError         AccountOutcome = "error"
)

// Success reports whether the outcome counts toward the batch success
// count. An account that already signed in today is still a success.
func (o AccountOutcome) Success() bool {
	return o == OutcomeSigned || o == OutcomeAlreadySigned
}

// AccountResult is the per-account record within one batch.
type AccountResult struct {
	Username string
	Outcome  AccountOutcome
	Reason   string
}

func (r AccountResult) Success() bool { return r.Outcome.Success() }

// BatchResult aggregates one full pass over all configured accounts.
// Invariant: 0 <= Succeeded <= Total.
type BatchResult struct {
	ID        string
	Total     int
	Succeeded int
	Accounts  []AccountResult
}

// RunOutcome is the terminal state of the schedule loop.
type RunOutcome string

const (
	RunCompleted   RunOutcome = "completed"
	RunConfigFatal RunOutcome = "config_fatal"
	RunInterrupted RunOutcome = "interrupted"
)
