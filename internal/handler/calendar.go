package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/s2c2-dev/staffing/backend/internal/calendar"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

const defaultCalendarDays = 28

func calendarGenKey(staffID int64) string {
	return fmt.Sprintf("calendar:gen:%d", staffID)
}

func (h *Handler) redisContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
}

// calendarRange reads ?start= and ?end= as dates, end exclusive. The default
// is the next four weeks from today.
func (h *Handler) calendarRange(r *http.Request) (from, to slot.DayToken, err error) {
	today := slot.DateOf(time.Now().In(h.location))
	from, to = today, addDays(today, defaultCalendarDays)

	if s := r.URL.Query().Get("start"); s != "" {
		if from, err = parseDate(s); err != nil {
			return from, to, err
		}
		to = addDays(from, defaultCalendarDays)
	}
	if s := r.URL.Query().Get("end"); s != "" {
		if to, err = parseDate(s); err != nil {
			return from, to, err
		}
	}

	fromDate, _ := from.Date()
	toDate, _ := to.Date()
	days := int(toDate.Sub(fromDate).Hours() / 24)
	switch {
	case days <= 0:
		return from, to, errors.New("end must be after start")
	case days > h.config.Calendar.MaxDays:
		return from, to, fmt.Errorf("at most %d days can be requested", h.config.Calendar.MaxDays)
	}
	return from, to, nil
}

func parseDate(s string) (slot.DayToken, error) {
	d, err := slot.ParseDayToken(s)
	if err != nil {
		return d, err
	}
	if d.IsRegular() {
		return d, &slot.InvalidTokenError{Token: s, Reason: "not a date"}
	}
	return d, nil
}

func addDays(d slot.DayToken, n int) slot.DayToken {
	t, _ := d.Date()
	return slot.DateOf(t.AddDate(0, 0, n))
}

// cached returns the stored body for key when present under the staff
// member's current generation, and stores what build returns otherwise.
// Redis failures only cost the cache.
func (h *Handler) cached(ctx context.Context, staffID int64, key string, build func() ([]byte, error)) ([]byte, error) {
	if h.redisClient == nil {
		return build()
	}

	rctx, cancel := h.redisContext(ctx)
	defer cancel()

	gen, err := h.redisClient.Get(rctx, calendarGenKey(staffID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("failed to read calendar generation", "staffID", staffID, "error", err)
		return build()
	}

	fullKey := fmt.Sprintf("calendar:%d:%d:%s", staffID, gen, key)
	body, err := h.redisClient.Get(rctx, fullKey).Bytes()
	if err == nil {
		h.metrics.RecordCacheLookup(true)
		return body, nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Warn("failed to read calendar cache", "key", fullKey, "error", err)
	}
	h.metrics.RecordCacheLookup(false)

	body, err = build()
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(h.config.Calendar.CacheTTL) * time.Second
	if err := h.redisClient.Set(rctx, fullKey, body, ttl).Err(); err != nil {
		slog.Warn("failed to write calendar cache", "key", fullKey, "error", err)
	}
	return body, nil
}

func (h *Handler) staffEvents(ctx context.Context, staff *domain.User, from, to slot.DayToken) ([]calendar.Event, error) {
	rows, err := h.repository.GetStaffCalendar(ctx, staff.ID, from, to)
	if err != nil {
		return nil, err
	}

	locations, err := h.repository.GetAllLocations(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(locations))
	for _, l := range locations {
		names[l.ID] = l.Name
	}

	return calendar.StaffEvents(rows, staff.ID, names, h.location), nil
}

func (h *Handler) GetCalendarEvents(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	from, to, err := h.calendarRange(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	key := fmt.Sprintf("events:%s:%s", from.Token(), to.Token())
	body, err := h.cached(r.Context(), staff.ID, key, func() ([]byte, error) {
		events, err := h.staffEvents(r.Context(), staff, from, to)
		if err != nil {
			return nil, err
		}
		return json.Marshal(events)
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", json.RawMessage(body))
}

func (h *Handler) GetCalendarICS(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	from, to, err := h.calendarRange(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	key := fmt.Sprintf("ics:%s:%s", from.Token(), to.Token())
	body, err := h.cached(r.Context(), staff.ID, key, func() ([]byte, error) {
		events, err := h.staffEvents(r.Context(), staff, from, to)
		if err != nil {
			return nil, err
		}
		return []byte(calendar.ICS(events, staff.DisplayName(), time.Now())), nil
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="staff-%d.ics"`, staff.ID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logInternalServerError(r, err)
	}
}
