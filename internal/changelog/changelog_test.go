package changelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

func TestDayRefRoundTrip(t *testing.T) {
	for _, day := range []slot.DayToken{slot.Date(2015, time.October, 5), slot.Regular(time.Sunday)} {
		ref := DayRef(42, day)
		id, got, err := ParseDayRef(ref)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, day, got)
	}
	assert.Equal(t, "42,20151005", DayRef(42, slot.Date(2015, time.October, 5)))
}

func TestMeetRefRoundTrip(t *testing.T) {
	ref := MeetRef(7, 3, slot.Date(2015, time.October, 5), slot.MustTimeToken(9, 30))
	assert.Equal(t, "7,3,20151005,0930", ref)

	p, err := ParseMeetRef(ref)
	require.NoError(t, err)
	assert.Equal(t, MeetRefParts{
		StaffID:    7,
		LocationID: 3,
		Day:        slot.Date(2015, time.October, 5),
		Start:      slot.MustTimeToken(9, 30),
	}, p)
}

func TestParseRefsRejectMalformed(t *testing.T) {
	for _, ref := range []string{"", "42", "x,20151005", "42,notaday", "1,2,3"} {
		_, _, err := ParseDayRef(ref)
		assert.Error(t, err, "day ref %q", ref)
	}
	for _, ref := range []string{"", "7,3,20151005", "7,x,20151005,0930", "7,3,20151005,0931", "a,3,w1,0900"} {
		_, err := ParseMeetRef(ref)
		assert.Error(t, err, "meet ref %q", ref)
	}
}

func TestDescribe(t *testing.T) {
	names := MapNames{
		Staff:     map[int64]string{7: "Ann"},
		Locations: map[int64]string{3: "Toddlers"},
	}
	ref := MeetRef(7, 3, slot.Date(2015, time.October, 5), slot.MustTimeToken(9, 0))

	cases := []struct {
		entry domain.LogEntry
		want  string
	}{
		{domain.LogEntry{Type: domain.LogTemplateOpStaff, Ref: "7,20151005"}, "copied from template"},
		{domain.LogEntry{Type: domain.LogTemplateOpClassroom, Ref: "3,20151005"}, "copied from template"},
		{domain.LogEntry{Type: domain.LogMeetUpdate, Ref: ref, Message: "assigned"}, "assignment updated (9:00AM): assigned"},
		{domain.LogEntry{Type: domain.LogMeetCascadeDeleteOffer, Ref: ref}, "assignment updated due to staff availability change: Ann on 9:00AM"},
		{domain.LogEntry{Type: domain.LogMeetCascadeDeleteNeed, Ref: ref}, "assignment updated due to classroom needs change: Toddlers on 9:00AM"},
		{domain.LogEntry{Type: domain.LogOfferUpdate, Ref: "7,20151005", Message: "added slot(s)"}, "added slot(s)"},
		{domain.LogEntry{Type: domain.LogMeetUpdate, Ref: "broken", Message: "assigned"}, "assigned"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Describe(c.entry, names))
	}
}

func TestMapNamesFallsBackToID(t *testing.T) {
	assert.Equal(t, "#9", MapNames{}.StaffName(9))
	assert.Equal(t, "#4", MapNames{}.LocationName(4))
}

func TestReferencedIDs(t *testing.T) {
	day := slot.Date(2015, time.October, 5)
	entries := []domain.LogEntry{
		{Type: domain.LogMeetUpdate, Ref: MeetRef(7, 3, day, slot.MustTimeToken(9, 0))},
		{Type: domain.LogMeetCascadeDeleteNeed, Ref: MeetRef(7, 4, day, slot.MustTimeToken(9, 30))},
		{Type: domain.LogOfferUpdate, Ref: DayRef(8, day)},
	}
	staff, locations := ReferencedIDs(entries)
	assert.Equal(t, []int64{7}, staff)
	assert.Equal(t, []int64{3, 4}, locations)
}

func TestRecipient(t *testing.T) {
	day := slot.Date(2015, time.October, 5)
	meet := MeetRef(7, 3, day, slot.MustTimeToken(9, 0))

	id, ok := Recipient(domain.LogEntry{CreatorID: 1, Type: domain.LogOfferUpdate, Ref: DayRef(7, day)})
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = Recipient(domain.LogEntry{CreatorID: 7, Type: domain.LogOfferUpdate, Ref: DayRef(7, day)})
	assert.False(t, ok, "own change")

	id, ok = Recipient(domain.LogEntry{CreatorID: 1, Type: domain.LogMeetCascadeDeleteNeed, Ref: meet})
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = Recipient(domain.LogEntry{CreatorID: 1, Type: domain.LogMeetCascadeDeleteOffer, Ref: meet})
	assert.False(t, ok)

	_, ok = Recipient(domain.LogEntry{CreatorID: 1, Type: domain.LogNeedUpdate, Ref: DayRef(3, day)})
	assert.False(t, ok)
}

func TestAffectedStaff(t *testing.T) {
	day := slot.Date(2015, time.October, 5)
	assert.Equal(t, []int64{7}, AffectedStaff(domain.LogEntry{Type: domain.LogTemplateOpStaff, Ref: DayRef(7, day)}))
	assert.Equal(t, []int64{7}, AffectedStaff(domain.LogEntry{Type: domain.LogMeetCascadeDeleteOffer, Ref: MeetRef(7, 3, day, slot.MustTimeToken(9, 0))}))
	assert.Nil(t, AffectedStaff(domain.LogEntry{Type: domain.LogNeedUpdate, Ref: DayRef(3, day)}))
}
