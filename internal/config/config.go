package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"dailysign/internal/domain"
)

// DefaultPath is the config file looked up when no -config flag is given.
const DefaultPath = "config.json"

// The three config-fatal conditions. All of them stop the schedule loop:
// retrying without operator action cannot succeed.
var (
	ErrMissing    = errors.New("config file does not exist")
	ErrInvalid    = errors.New("config file is not valid")
	ErrNoAccounts = errors.New("config contains no accounts")
)

// Config is the on-disk configuration: an ordered list of accounts.
type Config struct {
	Users []domain.AccountCredential `json:"users"`
}

// Load reads and validates the config file at path. Account order is
// the file order. Unknown fields are rejected so typos surface as
// ErrInvalid instead of being silently ignored.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, ErrMissing
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// The file must hold exactly one JSON document.
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: trailing data after config document", ErrInvalid)
	}
	if len(cfg.Users) == 0 {
		return Config{}, ErrNoAccounts
	}
	return cfg, nil
}

// WriteSample writes a pretty-printed placeholder config for the
// operator to edit, with two example accounts.
func WriteSample(path string) error {
	sample := Config{
		Users: []domain.AccountCredential{
			{Username: "your_username1", Password: "your_password1"},
			{Username: "your_username2", Password: "your_password2"},
		},
	}
	data, err := json.MarshalIndent(sample, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// IsFatal reports whether err is one of the config-fatal conditions
// that must stop the schedule loop instead of being retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMissing) || errors.Is(err, ErrInvalid) || errors.Is(err, ErrNoAccounts)
}
