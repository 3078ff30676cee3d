package domain

// AuthError means the credentials were rejected or a session could not
// be established. It is local to one account.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "authentication failed: " + e.Reason }

// SignInError means the sign-in action itself was rejected by the
// service, for a reason distinct from authentication.
type SignInError struct {
	Reason string
}

func (e *SignInError) Error() string { return "sign-in failed: " + e.Reason }
