package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/metrics"
	"github.com/s2c2-dev/staffing/backend/internal/planner"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// TemplateStore is the part of the repository the copy job needs.
type TemplateStore interface {
	GetOfferTemplateDays(ctx context.Context) (repository.TemplateDays, error)
	GetNeedTemplateDays(ctx context.Context) (repository.TemplateDays, error)
	CopyOfferTemplate(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken) (*repository.Outcome, error)
	CopyNeedTemplate(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken) (*repository.Outcome, error)
}

// NotifyFunc receives every copy that changed something.
type NotifyFunc func(ctx context.Context, op string, out *repository.Outcome)

// TemplateCopy materializes the weekly templates onto the upcoming dates.
// Copies are idempotent, so overlapping runs only add what is missing.
type TemplateCopy struct {
	store    TemplateStore
	actor    domain.Actor
	horizon  int
	location *time.Location
	metrics  *metrics.Metrics
	notify   NotifyFunc
	now      func() time.Time
}

func NewTemplateCopy(store TemplateStore, actor domain.Actor, horizonDays int, loc *time.Location, m *metrics.Metrics, notify NotifyFunc) *TemplateCopy {
	return &TemplateCopy{
		store:    store,
		actor:    actor,
		horizon:  horizonDays,
		location: loc,
		metrics:  m,
		notify:   notify,
		now:      time.Now,
	}
}

// Result counts the copies of one run. Copies that found nothing missing
// are not counted.
type Result struct {
	Offers int
	Needs  int
	Failed int
}

// Run copies offers before needs, so needs can replay their regular meets
// onto offers copied in the same run. A failing copy is logged and skipped.
func (j *TemplateCopy) Run(ctx context.Context) (Result, error) {
	var res Result

	today := j.now().In(j.location)
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, j.horizon)

	offerDays, err := j.store.GetOfferTemplateDays(ctx)
	if err != nil {
		return res, fmt.Errorf("load offer templates: %w", err)
	}
	needDays, err := j.store.GetNeedTemplateDays(ctx)
	if err != nil {
		return res, fmt.Errorf("load need templates: %w", err)
	}

	passes := []struct {
		kind string
		op   string
		days repository.TemplateDays
		copy func(ctx context.Context, actor domain.Actor, ownerID int64, day slot.DayToken) (*repository.Outcome, error)
		n    *int
	}{
		{"offers", "copy_offers", offerDays, j.store.CopyOfferTemplate, &res.Offers},
		{"needs", "copy_needs", needDays, j.store.CopyNeedTemplate, &res.Needs},
	}

	for _, p := range passes {
		for ownerID, regular := range p.days {
			dates, err := planner.Dates(planner.Weekdays(regular), from, to)
			if err != nil {
				return res, err
			}

			for _, day := range dates {
				if err := ctx.Err(); err != nil {
					return res, err
				}

				out, err := p.copy(ctx, j.actor, ownerID, day)
				j.metrics.ObserveTemplateCopy(p.kind, err)
				if err != nil {
					slog.Error("template copy failed", "kind", p.kind, "ownerID", ownerID, "day", day.Token(), "error", err)
					res.Failed++
					continue
				}

				if len(out.Tokens) == 0 && len(out.Meets) == 0 {
					continue
				}
				*p.n++
				if j.notify != nil {
					j.notify(ctx, p.op, out)
				}
			}
		}
	}

	return res, nil
}

// Schedule returns a stopped cron that runs the job on spec, interpreted in
// the job's timezone. A run still in progress makes the next one skip.
func (j *TemplateCopy) Schedule(spec string) (*cron.Cron, error) {
	logger := slogLogger{}
	c := cron.New(
		cron.WithLocation(j.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		start := time.Now()
		res, err := j.Run(context.Background())
		if err != nil {
			slog.Error("template copy run failed", "error", err)
			return
		}
		slog.Info("template copy run finished", "offers", res.Offers, "needs", res.Needs, "failed", res.Failed, "duration", time.Since(start))
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// slogLogger adapts cron's logger to the default slog logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
