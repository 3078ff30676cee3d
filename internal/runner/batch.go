package runner

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"dailysign/internal/config"
	"dailysign/internal/domain"
)

var separator = strings.Repeat("-", 50)

// Journal records finished batches for observability. The engine never
// reads it back to make decisions.
type Journal interface {
	Record(ctx context.Context, res domain.BatchResult, started, finished time.Time) error
}

// Batch runs one full pass over all configured accounts. The config is
// read fresh on every run so credential edits between loop iterations
// take effect without a restart.
type Batch struct {
	configPath string
	processor  *Processor
	journal    Journal
}

func NewBatch(configPath string, processor *Processor, journal Journal) *Batch {
	return &Batch{configPath: configPath, processor: processor, journal: journal}
}

// Run loads the config and processes every account in file order. A
// single account's failure never aborts the batch; only the three
// config-fatal conditions do, and those are returned unretried.
func (b *Batch) Run(ctx context.Context) (domain.BatchResult, error) {
	cfg, err := config.Load(b.configPath)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrMissing):
			log.Error().Str("path", b.configPath).Msg("config file does not exist, writing a sample")
			if werr := config.WriteSample(b.configPath); werr != nil {
				log.Error().Err(werr).Msg("writing sample config failed")
			} else {
				log.Info().Str("path", b.configPath).Msg("sample config written; edit the usernames and passwords, then run again")
			}
		case errors.Is(err, config.ErrNoAccounts):
			log.Error().Str("path", b.configPath).Msg("no accounts found in config")
		case errors.Is(err, config.ErrInvalid):
			log.Error().Str("path", b.configPath).Err(err).Msg("config is malformed")
		}
		return domain.BatchResult{}, err
	}

	started := time.Now()
	res := domain.BatchResult{
		ID:    "bat_" + uuid.NewString(),
		Total: len(cfg.Users),
	}
	log.Info().Str("batch", res.ID).Int("accounts", res.Total).Msg("starting sign-in batch")
	log.Info().Msg(separator)

	for _, cred := range cfg.Users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r := b.processor.Process(ctx, cred)
		if r.Success() {
			res.Succeeded++
		}
		res.Accounts = append(res.Accounts, r)
		log.Info().Msg(separator)
	}

	log.Info().
		Str("batch", res.ID).
		Int("succeeded", res.Succeeded).
		Int("total", res.Total).
		Msg("batch finished")

	if b.journal != nil {
		if err := b.journal.Record(ctx, res, started, time.Now()); err != nil {
			log.Error().Err(err).Str("batch", res.ID).Msg("recording batch history failed")
		}
	}
	return res, nil
}
