package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

var monday = slot.Date(2015, time.October, 5)

func offer(id, staffID int64, day slot.DayToken, h, m int) domain.Slot {
	start := slot.MustTimeToken(h, m)
	end, _ := start.Next()
	return domain.Slot{ID: id, Owner: domain.StaffOwner(staffID), Day: day, Start: start, End: end}
}

func need(id, locationID int64, day slot.DayToken, h, m int) domain.Slot {
	s := offer(id, 0, day, h, m)
	s.Owner = domain.LocationOwner(locationID)
	return s
}

func TestMissingOffersCopiesOnlyMatchingWeekday(t *testing.T) {
	template := []domain.Slot{
		offer(1, 7, slot.Regular(time.Monday), 9, 0),
		offer(2, 7, slot.Regular(time.Monday), 9, 30),
		offer(3, 7, slot.Regular(time.Tuesday), 9, 0),
	}

	got, err := MissingOffers(template, nil, monday)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, monday, s.Day)
		assert.Zero(t, s.ID)
		assert.Equal(t, domain.StaffOwner(7), s.Owner)
	}
	assert.Equal(t, slot.MustTimeToken(9, 0), got[0].Start)
	assert.Equal(t, slot.MustTimeToken(9, 30), got[1].Start)
}

func TestMissingOffersIsIdempotent(t *testing.T) {
	template := []domain.Slot{
		offer(1, 7, slot.Regular(time.Monday), 9, 0),
		offer(2, 7, slot.Regular(time.Monday), 9, 30),
		offer(3, 8, slot.Regular(time.Monday), 9, 0),
	}
	existing := []domain.Slot{offer(10, 7, monday, 9, 0)}

	first, err := MissingOffers(template, existing, monday)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := MissingOffers(template, append(existing, first...), monday)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestMissingOffersRejectsRegularDay(t *testing.T) {
	_, err := MissingOffers(nil, nil, slot.Regular(time.Monday))
	assert.ErrorIs(t, err, ErrNotDated)

	_, err = MissingNeeds(nil, nil, slot.Regular(time.Monday))
	assert.ErrorIs(t, err, ErrNotDated)
}

func TestMissingNeedsKeepsHowMany(t *testing.T) {
	template := []domain.Slot{
		need(1, 3, slot.Regular(time.Monday), 9, 0),
		need(2, 3, slot.Regular(time.Monday), 9, 0),
		need(3, 3, slot.Regular(time.Monday), 9, 30),
	}

	got, err := MissingNeeds(template, nil, monday)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	// one need already at 9:00 blocks the whole 9:00 group
	existing := []domain.Slot{need(20, 3, monday, 9, 0)}
	got, err = MissingNeeds(template, existing, monday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, slot.MustTimeToken(9, 30), got[0].Start)

	again, err := MissingNeeds(template, append(existing, got...), monday)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func matched(s domain.Slot, meet *domain.Meet) domain.MatchedSlot {
	return domain.MatchedSlot{Slot: s, Meet: meet}
}

func TestReplayMeetsPairsFreeRows(t *testing.T) {
	nine := slot.MustTimeToken(9, 0)
	regular := []domain.Meet{
		{StaffID: 7, LocationID: 3, Day: slot.Regular(time.Monday), Start: nine, Status: domain.MeetActive},
		{StaffID: 8, LocationID: 3, Day: slot.Regular(time.Monday), Start: nine, Status: domain.MeetActive},
		{StaffID: 9, LocationID: 3, Day: slot.Regular(time.Monday), Start: nine, Status: domain.MeetInactive},
	}
	offers := []domain.MatchedSlot{
		matched(offer(100, 7, monday, 9, 0), nil),
		matched(offer(101, 8, monday, 9, 0), nil),
		matched(offer(102, 9, monday, 9, 0), nil),
	}
	needs := []domain.MatchedSlot{
		matched(need(200, 3, monday, 9, 0), &domain.Meet{ID: 1}),
		matched(need(201, 3, monday, 9, 0), nil),
		matched(need(202, 3, monday, 9, 0), nil),
	}

	pairs := ReplayMeets(regular, offers, needs)
	assert.Equal(t, []Pair{
		{OfferID: 100, NeedID: 201, StaffID: 7, LocationID: 3, Start: nine},
		{OfferID: 101, NeedID: 202, StaffID: 8, LocationID: 3, Start: nine},
	}, pairs)
}

func TestReplayMeetsSkipsWhenNoFreeNeed(t *testing.T) {
	nine := slot.MustTimeToken(9, 0)
	regular := []domain.Meet{
		{StaffID: 7, LocationID: 3, Start: nine, Status: domain.MeetActive},
		{StaffID: 8, LocationID: 3, Start: nine, Status: domain.MeetActive},
	}
	offers := []domain.MatchedSlot{
		matched(offer(100, 7, monday, 9, 0), nil),
		matched(offer(101, 8, monday, 9, 0), nil),
	}
	needs := []domain.MatchedSlot{matched(need(200, 3, monday, 9, 0), nil)}

	pairs := ReplayMeets(regular, offers, needs)
	require.Len(t, pairs, 1)
	assert.Equal(t, int64(100), pairs[0].OfferID)
	assert.Equal(t, int64(200), pairs[0].NeedID)
}

func TestReplayMeetsOfferAndNeedIDsMayCollide(t *testing.T) {
	nine := slot.MustTimeToken(9, 0)
	ten := slot.MustTimeToken(10, 0)
	regular := []domain.Meet{
		{StaffID: 7, LocationID: 3, Start: nine, Status: domain.MeetActive},
		{StaffID: 7, LocationID: 3, Start: ten, Status: domain.MeetActive},
	}
	offers := []domain.MatchedSlot{
		matched(offer(5, 7, monday, 9, 0), nil),
		matched(offer(6, 7, monday, 10, 0), nil),
	}
	needs := []domain.MatchedSlot{
		matched(need(4, 3, monday, 9, 0), nil),
		matched(need(5, 3, monday, 10, 0), nil),
	}

	pairs := ReplayMeets(regular, offers, needs)
	assert.Equal(t, []Pair{
		{OfferID: 5, NeedID: 4, StaffID: 7, LocationID: 3, Start: nine},
		{OfferID: 6, NeedID: 5, StaffID: 7, LocationID: 3, Start: ten},
	}, pairs)
}

func TestDates(t *testing.T) {
	from := time.Date(2015, time.October, 1, 15, 0, 0, 0, time.UTC) // Thursday
	to := time.Date(2015, time.October, 15, 0, 0, 0, 0, time.UTC)   // Thursday, excluded

	got, err := Dates([]time.Weekday{time.Monday, time.Thursday}, from, to)
	require.NoError(t, err)
	assert.Equal(t, []slot.DayToken{
		slot.Date(2015, time.October, 1),
		slot.Date(2015, time.October, 5),
		slot.Date(2015, time.October, 8),
		slot.Date(2015, time.October, 12),
	}, got)

	got, err = Dates(nil, from, to)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Dates([]time.Weekday{time.Monday}, to, from)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWeekdays(t *testing.T) {
	got := Weekdays([]slot.DayToken{
		slot.Regular(time.Monday),
		slot.Regular(time.Friday),
		slot.Regular(time.Monday),
		monday,
	})
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, got)
}
