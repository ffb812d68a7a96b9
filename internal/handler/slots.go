package handler

import (
	"cmp"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

func (h *Handler) GetTimeChoices(w http.ResponseWriter, r *http.Request) {
	lo, hi := r.URL.Query().Get("min"), r.URL.Query().Get("max")
	if lo == "" && hi == "" {
		h.successResponse(w, r, "ok", map[string][]slot.Choice{
			"start": h.startChoices,
			"end":   h.endChoices,
		})
		return
	}

	list, err := choices(cmp.Or(lo, "0000"), cmp.Or(hi, "2400"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	h.successResponse(w, r, "ok", list)
}

// dayParam reads ?day=, defaulting to today in the configured timezone.
func (h *Handler) dayParam(r *http.Request) (slot.DayToken, error) {
	s := r.URL.Query().Get("day")
	if s == "" {
		return slot.DateOf(time.Now().In(h.location)), nil
	}
	return slot.ParseDayToken(s)
}

// splitMet divides rows into the tokens that carry an active meet and the
// tokens that do not.
func splitMet(rows []domain.MatchedSlot) (met, unmet []slot.TimeToken) {
	for _, row := range rows {
		if row.Meet != nil {
			met = append(met, row.Start)
		} else {
			unmet = append(unmet, row.Start)
		}
	}
	return met, unmet
}

type assignedRange struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Slots []slot.TimeSlot `json:"slots"`
}

// groupAssigned merges the met rows per counterpart, ordered by name.
func groupAssigned(rows []domain.MatchedSlot, counterpart func(m *domain.Meet) int64, name func(id int64) string) []assignedRange {
	tokens := make(map[int64][]slot.TimeToken)
	for _, row := range rows {
		if row.Meet == nil {
			continue
		}
		id := counterpart(row.Meet)
		tokens[id] = append(tokens[id], row.Start)
	}

	ranges := make([]assignedRange, 0, len(tokens))
	for id, ts := range tokens {
		ranges = append(ranges, assignedRange{ID: id, Name: name(id), Slots: slot.Combine(ts)})
	}
	slices.SortFunc(ranges, func(a, b assignedRange) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return ranges
}

func (h *Handler) GetStaffDay(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	day, err := h.dayParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	offers, err := h.repository.GetOffers(r.Context(), staff.ID, day)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	met, unmet := splitMet(offers)
	var assigned []assignedRange
	if len(met) > 0 {
		names, err := h.repository.GetNames(r.Context())
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		assigned = groupAssigned(offers, func(m *domain.Meet) int64 { return m.LocationID }, names.LocationName)
	}

	h.successResponse(w, r, "ok", struct {
		Staff    *domain.User         `json:"staff"`
		Day      slot.DayToken        `json:"day"`
		Offers   []domain.MatchedSlot `json:"offers"`
		Met      []slot.TimeSlot      `json:"met"`
		Unmet    []slot.TimeSlot      `json:"unmet"`
		Assigned []assignedRange      `json:"assigned"`
	}{
		Staff:    staff,
		Day:      day,
		Offers:   offers,
		Met:      slot.Combine(met),
		Unmet:    slot.Combine(unmet),
		Assigned: assigned,
	})
}

func (h *Handler) AddOffers(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	var req slotRange
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	day, start, end, err := req.parse()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	out, err := h.repository.AddOffers(r.Context(), actorFrom(r), staff.ID, day, start, end)
	if err != nil {
		h.changeError(w, r, "add_offers", err)
		return
	}
	h.afterChange(r, "add_offers", out)

	if len(out.Tokens) == 0 {
		h.successResponse(w, r, "nothing to add", out)
		return
	}
	h.successResponse(w, r, fmt.Sprintf("added %s", out.Summary()), out)
}

func (h *Handler) DeleteOffers(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	var req struct {
		Day   string `json:"day" validate:"required,daytoken"`
		Start string `json:"start" validate:"required_without=All,omitempty,timetoken"`
		End   string `json:"end" validate:"required_without=All,omitempty,timetoken"`
		All   bool   `json:"all"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	var out *repository.Outcome
	if req.All {
		day, err := slot.ParseDayToken(req.Day)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		out, err = h.repository.DeleteAllOffers(r.Context(), actorFrom(r), staff.ID, day)
		if err != nil {
			h.changeError(w, r, "delete_offers", err)
			return
		}
	} else {
		day, start, end, err := slotRange{Day: req.Day, Start: req.Start, End: req.End}.parse()
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		out, err = h.repository.DeleteOffers(r.Context(), actorFrom(r), staff.ID, day, start, end)
		if err != nil {
			h.changeError(w, r, "delete_offers", err)
			return
		}
	}
	h.afterChange(r, "delete_offers", out)

	if len(out.Tokens) == 0 {
		h.successResponse(w, r, "nothing to remove", out)
		return
	}
	h.successResponse(w, r, fmt.Sprintf("removed %s", out.Summary()), out)
}

type copyRequest struct {
	Day string `json:"day" validate:"required,dated"`
}

func (h *Handler) readCopyRequest(w http.ResponseWriter, r *http.Request) (slot.DayToken, bool) {
	var req copyRequest
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return slot.DayToken{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return slot.DayToken{}, false
	}
	day, err := slot.ParseDayToken(req.Day)
	if err != nil {
		h.badRequest(w, r, err)
		return slot.DayToken{}, false
	}
	return day, true
}

func (h *Handler) CopyOfferTemplate(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	day, ok := h.readCopyRequest(w, r)
	if !ok {
		return
	}

	out, err := h.repository.CopyOfferTemplate(r.Context(), actorFrom(r), staff.ID, day)
	h.metrics.ObserveTemplateCopy("offers", err)
	if err != nil {
		h.changeError(w, r, "copy_offers", err)
		return
	}
	h.afterChange(r, "copy_offers", out)

	if len(out.Tokens) == 0 {
		h.successResponse(w, r, "already up to date", out)
		return
	}
	h.successResponse(w, r, fmt.Sprintf("copied %s", out.Summary()), out)
}

func (h *Handler) GetStaffLogs(w http.ResponseWriter, r *http.Request) {
	staff := r.Context().Value(StaffInfoCtx).(*domain.User)

	day, err := h.dayParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	entries, err := h.repository.GetStaffDayLogs(r.Context(), staff.ID, day)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	events, err := h.describe(r.Context(), entries)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "ok", events)
}

func (h *Handler) GetLocationDay(w http.ResponseWriter, r *http.Request) {
	loc := r.Context().Value(LocationCtx).(*domain.Location)

	day, err := h.dayParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	needs, err := h.repository.GetNeeds(r.Context(), loc.ID, day)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	met, unmet := splitMet(needs)
	var assigned []assignedRange
	if len(met) > 0 {
		names, err := h.repository.GetNames(r.Context())
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		assigned = groupAssigned(needs, func(m *domain.Meet) int64 { return m.StaffID }, names.StaffName)
	}

	h.successResponse(w, r, "ok", struct {
		Location   *domain.Location     `json:"location"`
		Day        slot.DayToken        `json:"day"`
		Needs      []domain.MatchedSlot `json:"needs"`
		Unmet      []slot.TimeSlot      `json:"unmet"`
		UnmetCount int                  `json:"unmetCount"`
		Assigned   []assignedRange      `json:"assigned"`
	}{
		Location:   loc,
		Day:        day,
		Needs:      needs,
		Unmet:      slot.Combine(unmet),
		UnmetCount: len(unmet),
		Assigned:   assigned,
	})
}

func (h *Handler) AddNeeds(w http.ResponseWriter, r *http.Request) {
	loc := r.Context().Value(LocationCtx).(*domain.Location)

	var req struct {
		slotRange
		HowMany int `json:"howMany" validate:"required,min=1,max=5"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	day, start, end, err := req.parse()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	out, err := h.repository.AddNeeds(r.Context(), actorFrom(r), loc.ID, day, start, end, req.HowMany)
	if err != nil {
		h.changeError(w, r, "add_needs", err)
		return
	}
	h.afterChange(r, "add_needs", out)

	h.successResponse(w, r, fmt.Sprintf("added %d need(s): %s", req.HowMany, out.Summary()), out)
}

func (h *Handler) DeleteNeeds(w http.ResponseWriter, r *http.Request) {
	loc := r.Context().Value(LocationCtx).(*domain.Location)

	var req struct {
		slotRange
		Cascade bool `json:"cascade"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	day, start, end, err := req.parse()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	out, err := h.repository.DeleteNeeds(r.Context(), actorFrom(r), loc.ID, day, start, end, req.Cascade)
	if err != nil {
		h.changeError(w, r, "delete_needs", err)
		return
	}
	h.afterChange(r, "delete_needs", out)

	if len(out.Tokens) == 0 {
		h.successResponse(w, r, "nothing to remove", out)
		return
	}
	h.successResponse(w, r, fmt.Sprintf("removed %d need(s): %s", len(out.Tokens), out.Summary()), out)
}

func (h *Handler) CopyNeedTemplate(w http.ResponseWriter, r *http.Request) {
	loc := r.Context().Value(LocationCtx).(*domain.Location)

	day, ok := h.readCopyRequest(w, r)
	if !ok {
		return
	}

	out, err := h.repository.CopyNeedTemplate(r.Context(), actorFrom(r), loc.ID, day)
	h.metrics.ObserveTemplateCopy("needs", err)
	if err != nil {
		h.changeError(w, r, "copy_needs", err)
		return
	}
	h.afterChange(r, "copy_needs", out)

	if len(out.Tokens) == 0 && len(out.Meets) == 0 {
		h.successResponse(w, r, "already up to date", out)
		return
	}
	h.successResponse(w, r, fmt.Sprintf("copied %s, %d assignment(s)", out.Summary(), len(out.Meets)), out)
}

func (h *Handler) AssignRange(w http.ResponseWriter, r *http.Request) {
	loc := r.Context().Value(LocationCtx).(*domain.Location)

	var req struct {
		slotRange
		StaffID int64 `json:"staffID" validate:"required,gt=0"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	day, start, end, err := req.parse()
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	out, err := h.repository.AssignRange(r.Context(), actorFrom(r), req.StaffID, loc.ID, day, start, end)
	if err != nil {
		h.changeError(w, r, "assign_range", err)
		return
	}
	h.afterChange(r, "assign_range", out)

	if len(out.Tokens) == 0 {
		h.errorResponse(w, r, "no free offer and need pair in that range")
		return
	}
	h.successResponse(w, r, fmt.Sprintf("assigned %s", out.Summary()), out)
}

func (h *Handler) GetLocationLogs(w http.ResponseWriter, r *http.Request) {
	loc := r.Context().Value(LocationCtx).(*domain.Location)

	day, err := h.dayParam(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	entries, err := h.repository.GetLocationDayLogs(r.Context(), loc.ID, day)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	events, err := h.describe(r.Context(), entries)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.successResponse(w, r, "ok", events)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	need := r.Context().Value(NeedCtx).(domain.MatchedSlot)

	candidates, err := h.repository.AvailableOffers(r.Context(), need.Day, need.Start)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "ok", struct {
		Need       domain.MatchedSlot     `json:"need"`
		Candidates []repository.Candidate `json:"candidates"`
	}{
		Need:       need,
		Candidates: candidates,
	})
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	need := r.Context().Value(NeedCtx).(domain.MatchedSlot)

	var req struct {
		OfferID int64 `json:"offerID" validate:"required,gt=0"`
	}
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	out, err := h.repository.Assign(r.Context(), actorFrom(r), need.ID, req.OfferID)
	if err != nil {
		h.changeError(w, r, "assign", err)
		return
	}
	h.afterChange(r, "assign", out)

	h.successResponse(w, r, "assigned", out)
}

func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	need := r.Context().Value(NeedCtx).(domain.MatchedSlot)

	out, err := h.repository.Unassign(r.Context(), actorFrom(r), need.ID)
	if err != nil {
		h.changeError(w, r, "unassign", err)
		return
	}
	h.afterChange(r, "unassign", out)

	h.successResponse(w, r, "unassigned", out)
}

// changeError reports a failed mutating operation.
func (h *Handler) changeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.metrics.ObserveSlotOperation(op, 0, err)

	var (
		tokenErr *slot.InvalidTokenError
		rangeErr *slot.InvalidRangeError
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "not found or already changed")
	case errors.Is(err, repository.ErrNotDated):
		h.errorResponse(w, r, "templates can only be copied onto a date")
	case errors.Is(err, repository.ErrSlotMismatch):
		h.errorResponse(w, r, "offer and need are not at the same day and time")
	case errors.Is(err, repository.ErrAlreadyAssigned):
		h.errorResponse(w, r, "offer or need is already assigned")
	case errors.As(err, &tokenErr), errors.As(err, &rangeErr):
		h.errorResponse(w, r, err.Error())
	default:
		h.internalServerError(w, r, err)
	}
}
