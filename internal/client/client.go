// Package client implements the sign-in protocol against the remote
// forum service: token-based login, the daily sign-in action, and the
// read-only status query. One Session per account, never reused.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dailysign/internal/domain"
)

const (
	defaultAuthURL = "https://openid.cc98.org/connect/token"
	defaultAPIURL  = "https://api.cc98.org"

	defaultTimeout = 30 * time.Second
)

// Options configures a Client. Zero values fall back to the production
// endpoints and a 30s HTTP timeout.
type Options struct {
	AuthURL    string
	APIURL     string
	HTTPClient *http.Client
}

type Client struct {
	authURL string
	apiURL  string
	hc      *http.Client
}

func New(opts Options) *Client {
	c := &Client{
		authURL: opts.AuthURL,
		apiURL:  opts.APIURL,
		hc:      opts.HTTPClient,
	}
	if c.authURL == "" {
		c.authURL = defaultAuthURL
	}
	if c.apiURL == "" {
		c.apiURL = defaultAPIURL
	}
	c.apiURL = strings.TrimRight(c.apiURL, "/")
	if c.hc == nil {
		c.hc = &http.Client{Timeout: defaultTimeout}
	}
	return c
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Login establishes a session for one account via the password grant.
// A rejection from the auth server is an *domain.AuthError; transport
// failures are returned unclassified.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
		"client_id":  {"9a1fd200-8687-44b1-4c20-08d50a96e5cd"},
		"scope":      {"cc98-api openid"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read login response: %w", err)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, &domain.AuthError{Reason: fmt.Sprintf("unexpected auth response (HTTP %d)", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK || tok.AccessToken == "" {
		reason := tok.ErrorDescription
		if reason == "" {
			reason = tok.ErrorCode
		}
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &domain.AuthError{Reason: reason}
	}

	return &Session{c: c, username: username, token: tok.AccessToken}, nil
}

// Session is an authenticated session for one account. It is private
// to one processing attempt and discarded afterwards.
type Session struct {
	c        *Client
	username string
	token    string
}

func (s *Session) Username() string { return s.username }

func (s *Session) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.c.apiURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	return s.c.hc.Do(req)
}

// SignIn performs the daily sign-in. fresh is true when the service
// granted a new sign-in and false when the account had already signed
// in today (a benign state, not an error). A service-side rejection is
// an *domain.SignInError.
func (s *Session) SignIn(ctx context.Context) (fresh bool, err error) {
	resp, err := s.do(ctx, http.MethodPost, "/me/signin")
	if err != nil {
		return false, fmt.Errorf("sign-in request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusConflict:
		return false, nil
	case http.StatusUnauthorized:
		return false, &domain.AuthError{Reason: "session rejected"}
	default:
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return false, &domain.SignInError{Reason: reason}
	}
}

type signInfoResponse struct {
	HasSignedInToday bool   `json:"hasSignedInToday"`
	LastSignInTime   string `json:"lastSignInTime"`
	LastReward       *int   `json:"lastReward"`
	LastSignInCount  *int   `json:"lastSignInCount"`
}

// SignInfo fetches the status summary for the account.
func (s *Session) SignInfo(ctx context.Context) (domain.SignInStatus, error) {
	resp, err := s.do(ctx, http.MethodGet, "/me/signin")
	if err != nil {
		return domain.SignInStatus{}, fmt.Errorf("sign-in info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.SignInStatus{}, &domain.SignInError{Reason: fmt.Sprintf("status query returned HTTP %d", resp.StatusCode)}
	}

	var info signInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return domain.SignInStatus{}, fmt.Errorf("decode sign-in info: %w", err)
	}

	st := domain.SignInStatus{
		SignedToday:     info.HasSignedInToday,
		LastReward:      info.LastReward,
		ConsecutiveDays: info.LastSignInCount,
	}
	if t, ok := parseServiceTime(info.LastSignInTime); ok {
		st.LastSignInAt = &t
	}
	return st, nil
}

// The service reports timestamps in .NET style, with or without a zone
// and with up to seven fractional digits.
var serviceTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

func parseServiceTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range serviceTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
