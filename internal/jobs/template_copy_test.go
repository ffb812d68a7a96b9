package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

type copyCall struct {
	kind    string
	ownerID int64
	day     string
}

type fakeStore struct {
	offerDays repository.TemplateDays
	needDays  repository.TemplateDays
	fail      map[string]bool
	empty     map[string]bool
	calls     []copyCall
}

func (f *fakeStore) GetOfferTemplateDays(ctx context.Context) (repository.TemplateDays, error) {
	return f.offerDays, nil
}

func (f *fakeStore) GetNeedTemplateDays(ctx context.Context) (repository.TemplateDays, error) {
	return f.needDays, nil
}

func (f *fakeStore) copy(kind string, ownerID int64, day slot.DayToken) (*repository.Outcome, error) {
	f.calls = append(f.calls, copyCall{kind: kind, ownerID: ownerID, day: day.Token()})
	if f.fail[day.Token()] {
		return nil, errors.New("boom")
	}
	if f.empty[day.Token()] {
		return &repository.Outcome{}, nil
	}
	return &repository.Outcome{Tokens: []slot.TimeToken{slot.MustTimeToken(9, 0)}}, nil
}

func (f *fakeStore) CopyOfferTemplate(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken) (*repository.Outcome, error) {
	return f.copy("offers", staffID, day)
}

func (f *fakeStore) CopyNeedTemplate(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken) (*repository.Outcome, error) {
	return f.copy("needs", locationID, day)
}

func newJob(store TemplateStore, notify NotifyFunc) *TemplateCopy {
	j := NewTemplateCopy(store, domain.Actor{UserID: 1, Role: domain.RoleAdmin}, 14, time.UTC, nil, notify)
	// Thursday
	j.now = func() time.Time { return time.Date(2015, time.October, 1, 3, 0, 0, 0, time.UTC) }
	return j
}

func TestRunCopiesMatchingWeekdaysWithinHorizon(t *testing.T) {
	store := &fakeStore{
		offerDays: repository.TemplateDays{7: {slot.Regular(time.Monday)}},
		needDays:  repository.TemplateDays{3: {slot.Regular(time.Monday), slot.Regular(time.Thursday)}},
	}

	var notified []string
	res, err := newJob(store, func(ctx context.Context, op string, out *repository.Outcome) {
		notified = append(notified, op)
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []copyCall{
		{"offers", 7, "20151005"},
		{"offers", 7, "20151012"},
		{"needs", 3, "20151001"},
		{"needs", 3, "20151005"},
		{"needs", 3, "20151008"},
		{"needs", 3, "20151012"},
	}, store.calls)
	assert.Equal(t, Result{Offers: 2, Needs: 4}, res)
	assert.Len(t, notified, 6)
}

func TestRunSkipsFailedCopies(t *testing.T) {
	store := &fakeStore{
		offerDays: repository.TemplateDays{7: {slot.Regular(time.Monday)}},
		needDays:  repository.TemplateDays{},
		fail:      map[string]bool{"20151005": true},
	}

	res, err := newJob(store, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Offers: 1, Failed: 1}, res)
}

func TestRunCountsOnlyCopiesThatAddedRows(t *testing.T) {
	store := &fakeStore{
		offerDays: repository.TemplateDays{7: {slot.Regular(time.Monday)}},
		needDays:  repository.TemplateDays{},
		empty:     map[string]bool{"20151012": true},
	}

	var notified int
	res, err := newJob(store, func(ctx context.Context, op string, out *repository.Outcome) {
		notified++
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, store.calls, 2)
	assert.Equal(t, Result{Offers: 1}, res)
	assert.Equal(t, 1, notified)
}

func TestRunUsesJobTimezoneForToday(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	store := &fakeStore{
		offerDays: repository.TemplateDays{7: {slot.Regular(time.Wednesday)}},
		needDays:  repository.TemplateDays{},
	}
	j := newJob(store, nil)
	j.location = la
	j.horizon = 1

	// 03:00 UTC on Thursday is still Wednesday evening in Los Angeles.
	_, err = j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []copyCall{{"offers", 7, "20150930"}}, store.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	store := &fakeStore{
		offerDays: repository.TemplateDays{7: {slot.Regular(time.Monday)}},
		needDays:  repository.TemplateDays{},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newJob(store, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.calls)
}

func TestSchedule(t *testing.T) {
	j := newJob(&fakeStore{}, nil)

	c, err := j.Schedule("0 3 * * *")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = j.Schedule("not a spec")
	assert.Error(t, err)
}
