package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailysign/internal/config"
	"dailysign/internal/domain"
)

type recordingJournal struct {
	recorded []domain.BatchResult
	err      error
}

func (j *recordingJournal) Record(ctx context.Context, res domain.BatchResult, started, finished time.Time) error {
	j.recorded = append(j.recorded, res)
	return j.err
}

func writeBatchConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func twoUserConfig(t *testing.T) string {
	return writeBatchConfig(t, `{"users":[
		{"username":"alice","password":"pw"},
		{"username":"bob","password":"pw"}
	]}`)
}

func TestBatchFailingAccountDoesNotBlockOthers(t *testing.T) {
	captureLogs(t)
	opener := &fakeOpener{
		loginErr: map[string]error{"alice": &domain.AuthError{Reason: "bad password"}},
		sessions: map[string]*fakeSession{"bob": {fresh: true}},
	}
	journal := &recordingJournal{}
	b := NewBatch(twoUserConfig(t), NewProcessor(opener), journal)

	res, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("total: got %d", res.Total)
	}
	if res.Succeeded != 1 {
		t.Fatalf("succeeded: got %d", res.Succeeded)
	}
	if len(res.Accounts) != 2 {
		t.Fatalf("account results: got %d", len(res.Accounts))
	}
	if res.Accounts[0].Username != "alice" || res.Accounts[0].Success() {
		t.Fatalf("alice: %+v", res.Accounts[0])
	}
	if res.Accounts[1].Username != "bob" || !res.Accounts[1].Success() {
		t.Fatalf("bob: %+v", res.Accounts[1])
	}
	if len(journal.recorded) != 1 {
		t.Fatalf("expected 1 journaled batch, got %d", len(journal.recorded))
	}
}

func TestBatchCountsWithinBounds(t *testing.T) {
	captureLogs(t)
	opener := &fakeOpener{sessions: map[string]*fakeSession{
		"alice": {fresh: true},
		"bob":   {fresh: false, status: domain.SignInStatus{SignedToday: true}},
	}}
	b := NewBatch(twoUserConfig(t), NewProcessor(opener), nil)

	res, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Succeeded < 0 || res.Succeeded > res.Total {
		t.Fatalf("invariant violated: %d/%d", res.Succeeded, res.Total)
	}
	if res.Succeeded != 2 {
		t.Fatalf("already-signed must count as success: %d/2", res.Succeeded)
	}
}

func TestBatchMissingConfigWritesSample(t *testing.T) {
	captureLogs(t)
	path := filepath.Join(t.TempDir(), "config.json")
	b := NewBatch(path, NewProcessor(&fakeOpener{}), nil)

	_, err := b.Run(context.Background())
	if !errors.Is(err, config.ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !config.IsFatal(err) {
		t.Fatal("missing config must be fatal")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample was not written or does not load: %v", err)
	}
	if len(cfg.Users) != 2 {
		t.Fatalf("sample must contain exactly 2 placeholder users, got %d", len(cfg.Users))
	}
}

func TestBatchInvalidConfigIsFatalWithoutProcessing(t *testing.T) {
	captureLogs(t)
	path := writeBatchConfig(t, `not json`)
	opener := &fakeOpener{} // any Login call would nil-deref the session
	b := NewBatch(path, NewProcessor(opener), nil)

	_, err := b.Run(context.Background())
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestBatchEmptyUsersIsFatal(t *testing.T) {
	captureLogs(t)
	path := writeBatchConfig(t, `{"users":[]}`)
	b := NewBatch(path, NewProcessor(&fakeOpener{}), nil)

	_, err := b.Run(context.Background())
	if !errors.Is(err, config.ErrNoAccounts) {
		t.Fatalf("expected ErrNoAccounts, got %v", err)
	}
}

func TestBatchJournalFailureIsNotFatal(t *testing.T) {
	captureLogs(t)
	opener := &fakeOpener{sessions: map[string]*fakeSession{
		"alice": {fresh: true},
		"bob":   {fresh: true},
	}}
	journal := &recordingJournal{err: errors.New("disk full")}
	b := NewBatch(twoUserConfig(t), NewProcessor(opener), journal)

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatalf("journal failure must not fail the batch: %v", err)
	}
}

func TestBatchStopsOnCancelledContext(t *testing.T) {
	captureLogs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBatch(twoUserConfig(t), NewProcessor(&fakeOpener{}), nil)

	_, err := b.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
