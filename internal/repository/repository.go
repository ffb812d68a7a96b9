package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/s2c2-dev/staffing/backend/internal/config"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/planner"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

var (
	ErrNotDated        = planner.ErrNotDated
	ErrSlotMismatch    = errors.New("repository: offer and need are not at the same day and time")
	ErrAlreadyAssigned = errors.New("repository: offer or need is already assigned")
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

// Outcome reports what a mutating operation changed. Logs holds the change
// log rows written in the same transaction.
type Outcome struct {
	Tokens []slot.TimeToken  `json:"tokens"`
	Meets  []domain.Meet     `json:"meets"`
	Logs   []domain.LogEntry `json:"-"`
}

// Summary renders Tokens as merged ranges.
func (o *Outcome) Summary() string {
	return slot.DisplayCombined(o.Tokens)
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

// inTx runs fn in one transaction. fn's error rolls everything back.
func (r *Repository) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}

func newOutcome() *Outcome {
	return &Outcome{
		Tokens: make([]slot.TimeToken, 0),
		Meets:  make([]domain.Meet, 0),
		Logs:   make([]domain.LogEntry, 0),
	}
}

// slotEnd is the exclusive end of a single-token row. Starts are never 24:00.
func slotEnd(start slot.TimeToken) slot.TimeToken {
	end, err := start.Next()
	if err != nil {
		return slot.DayEnd
	}
	return end
}
