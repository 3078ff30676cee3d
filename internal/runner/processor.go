// Package runner drives accounts through the login, sign-in, then
// status sequence and aggregates one full pass over the configured
// accounts.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"dailysign/internal/domain"
)

// Session is the per-account capability the processor drives. Exactly
// one sign-in attempt and one status query per account per batch.
type Session interface {
	SignIn(ctx context.Context) (fresh bool, err error)
	SignInfo(ctx context.Context) (domain.SignInStatus, error)
}

// Opener establishes a fresh Session for one account. Sessions are
// never shared across accounts or batches.
type Opener interface {
	Login(ctx context.Context, username, password string) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, username, password string) (Session, error)

func (f OpenerFunc) Login(ctx context.Context, username, password string) (Session, error) {
	return f(ctx, username, password)
}

// Processor drives a single account through the sign-in sequence. It is
// the fault-isolation boundary between accounts: no error or panic
// escapes Process.
type Processor struct {
	opener Opener
}

func NewProcessor(opener Opener) *Processor {
	return &Processor{opener: opener}
}

// Process handles one account and reports how it ended. A benign
// "already signed in today" counts as success.
func (p *Processor) Process(ctx context.Context, cred domain.AccountCredential) (res domain.AccountResult) {
	res = domain.AccountResult{Username: cred.Username, Outcome: domain.OutcomeError}
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = domain.OutcomeError
			res.Reason = fmt.Sprintf("panic: %v", r)
			log.Error().Str("user", cred.Username).Str("reason", res.Reason).Msg("account processing panicked")
		}
	}()

	sess, err := p.opener.Login(ctx, cred.Username, cred.Password)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			res.Outcome = domain.OutcomeAuthFailed
		}
		res.Reason = err.Error()
		log.Error().Str("user", cred.Username).Err(err).Msg("login failed")
		return res
	}
	log.Info().Str("user", cred.Username).Msg("logged in")

	fresh, err := sess.SignIn(ctx)
	if err != nil {
		res.Outcome = classifySignInErr(err)
		res.Reason = err.Error()
		log.Error().Str("user", cred.Username).Err(err).Msg("sign-in failed")
		return res
	}
	if fresh {
		res.Outcome = domain.OutcomeSigned
		log.Info().Str("user", cred.Username).Msg("signed in")
	} else {
		res.Outcome = domain.OutcomeAlreadySigned
		log.Warn().Str("user", cred.Username).Msg("already signed in today")
	}

	status, err := sess.SignInfo(ctx)
	if err != nil {
		res.Outcome = classifySignInErr(err)
		res.Reason = err.Error()
		log.Error().Str("user", cred.Username).Err(err).Msg("status query failed")
		return res
	}
	if status.SignedToday {
		e := log.Info().
			Str("user", cred.Username).
			Str("last_sign_in", domain.FormatTime(status.LastSignInAt))
		if status.LastReward != nil {
			e = e.Int("reward", *status.LastReward)
		}
		if status.ConsecutiveDays != nil {
			e = e.Int("consecutive_days", *status.ConsecutiveDays)
		}
		e.Msg("sign-in status")
	}
	return res
}

func classifySignInErr(err error) domain.AccountOutcome {
	var signErr *domain.SignInError
	if errors.As(err, &signErr) {
		return domain.OutcomeSignInFailed
	}
	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return domain.OutcomeAuthFailed
	}
	return domain.OutcomeError
}
