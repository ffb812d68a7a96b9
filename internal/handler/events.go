package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
)

// afterChange runs once a mutating request has committed.
func (h *Handler) afterChange(r *http.Request, op string, out *repository.Outcome) {
	h.Notify(context.WithoutCancel(r.Context()), op, out)
}

// Notify records a committed operation, invalidates the calendars it touched
// and publishes its log entries. Failures are logged and never returned.
func (h *Handler) Notify(ctx context.Context, op string, out *repository.Outcome) {
	h.metrics.ObserveSlotOperation(op, len(out.Tokens), nil)
	if len(out.Logs) == 0 {
		return
	}

	h.invalidateCalendars(ctx, out.Logs)

	if h.eventChannel == nil {
		return
	}
	events, err := h.describe(ctx, out.Logs)
	if err != nil {
		slog.Warn("failed to describe change events", "operation", op, "error", err)
		return
	}
	for _, e := range events {
		if err := h.publishChange(ctx, e); err != nil {
			slog.Warn("failed to publish change event", "operation", op, "ref", e.Entry.Ref, "error", err)
		}
	}
}

// describe pairs entries with their messages, loading names only when an
// entry refers to a meet.
func (h *Handler) describe(ctx context.Context, entries []domain.LogEntry) ([]domain.ChangeEvent, error) {
	var names changelog.Names = changelog.MapNames{}
	if slices.ContainsFunc(entries, func(e domain.LogEntry) bool { return changelog.IsMeetType(e.Type) }) {
		loaded, err := h.repository.GetNames(ctx)
		if err != nil {
			return nil, err
		}
		names = loaded
	}

	events := make([]domain.ChangeEvent, 0, len(entries))
	for _, e := range entries {
		events = append(events, domain.ChangeEvent{Entry: e, Description: changelog.Describe(e, names)})
	}
	return events, nil
}

func (h *Handler) publishChange(ctx context.Context, e domain.ChangeEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.eventChannel.PublishWithContext(
		ctx,
		"",
		h.config.RabbitMQ.Queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// invalidateCalendars bumps the cache generation of every staff member the
// entries touch, so their cached feeds are no longer read.
func (h *Handler) invalidateCalendars(ctx context.Context, entries []domain.LogEntry) {
	if h.redisClient == nil {
		return
	}

	var staffIDs []int64
	for _, e := range entries {
		for _, id := range changelog.AffectedStaff(e) {
			if !slices.Contains(staffIDs, id) {
				staffIDs = append(staffIDs, id)
			}
		}
	}

	ctx, cancel := h.redisContext(ctx)
	defer cancel()

	for _, id := range staffIDs {
		if err := h.redisClient.Incr(ctx, calendarGenKey(id)).Err(); err != nil {
			slog.Warn("failed to invalidate calendar cache", "staffID", id, "error", err)
		}
	}
}
