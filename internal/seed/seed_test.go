package seed

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

const fixturesYAML = `
users:
  - {username: ann, fullName: Ann Lee, email: ann@example.com, role: staff, centerID: 1}
  - {username: bo, fullName: Bo Kim, email: bo@example.com, role: manager, centerID: 1}
locations:
  - {centerID: 1, name: Toddlers}
offers:
  - {staff: ann, day: w1, start: "0900", end: "1200"}
needs:
  - {location: Toddlers, day: "20151005", start: "0900", end: "1000", howMany: 2}
`

func TestParseFixtures(t *testing.T) {
	fx, err := ParseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)

	require.Len(t, fx.Users, 2)
	assert.Equal(t, domain.RoleManager, fx.Users[1].Role)
	assert.Equal(t, OfferFixture{Staff: "ann", Day: "w1", Start: "0900", End: "1200"}, fx.Offers[0])
	assert.Equal(t, 2, fx.Needs[0].HowMany)
}

func TestParseFixturesRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown role":     "users: [{username: ann, role: owner}]",
		"unknown staff":    "offers: [{staff: zed, day: w1, start: '0900', end: '1000'}]",
		"bad token":        "users: [{username: ann, role: staff}]\noffers: [{staff: ann, day: w1, start: '0915', end: '1000'}]",
		"empty range":      "users: [{username: ann, role: staff}]\noffers: [{staff: ann, day: w1, start: '1000', end: '1000'}]",
		"missing howMany":  "locations: [{name: Toddlers}]\nneeds: [{location: Toddlers, day: w1, start: '0900', end: '1000'}]",
		"unknown location": "needs: [{location: Attic, day: w1, start: '0900', end: '1000', howMany: 1}]",
	}
	for name, doc := range cases {
		_, err := ParseFixtures([]byte(doc))
		assert.Error(t, err, name)
	}
}

type fakeStore struct {
	users     map[string]*domain.User
	locations []*domain.Location
	offers    []string
	needs     []string
}

func (f *fakeStore) CreateUser(ctx context.Context, user *domain.User) error {
	if _, ok := f.users[user.Username]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
	}
	user.ID = int64(len(f.users) + 1)
	f.users[user.Username] = user
	return nil
}

func (f *fakeStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return f.users[username], nil
}

func (f *fakeStore) CreateLocation(ctx context.Context, loc *domain.Location) error {
	loc.ID = int64(len(f.locations) + 10)
	f.locations = append(f.locations, loc)
	return nil
}

func (f *fakeStore) GetAllLocations(ctx context.Context) ([]*domain.Location, error) {
	return f.locations, nil
}

func (f *fakeStore) AddOffers(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken, start, end slot.TimeToken) (*repository.Outcome, error) {
	f.offers = append(f.offers, fmtCall(staffID, day, start, end, 1))
	return &repository.Outcome{}, nil
}

func (f *fakeStore) AddNeeds(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken, start, end slot.TimeToken, howMany int) (*repository.Outcome, error) {
	f.needs = append(f.needs, fmtCall(locationID, day, start, end, howMany))
	return &repository.Outcome{}, nil
}

func fmtCall(id int64, day slot.DayToken, start, end slot.TimeToken, n int) string {
	return fmt.Sprintf("%d %s %s-%s x%d", id, day.Token(), start.Token(), end.Token(), n)
}

func TestApplyReusesExistingRows(t *testing.T) {
	fx, err := ParseFixtures([]byte(fixturesYAML))
	require.NoError(t, err)

	store := &fakeStore{
		users:     map[string]*domain.User{"ann": {ID: 7, Username: "ann"}},
		locations: []*domain.Location{{ID: 3, CenterID: 1, Name: "Toddlers"}},
	}
	admin := domain.Actor{UserID: 1, Role: domain.RoleAdmin}

	require.NoError(t, Apply(context.Background(), store, admin, fx, "changeme"))

	assert.Len(t, store.users, 2)
	assert.Len(t, store.locations, 1)
	assert.Equal(t, []string{"7 w1 0900-1200 x1"}, store.offers)
	assert.Equal(t, []string{"3 20151005 0900-1000 x2"}, store.needs)
}

func TestRandomUser(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	u, err := RandomUser(rng, "changeme", "example.com", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, u.Role)
	assert.Regexp(t, `^[a-z]+[0-9]{1,3}$`, u.Username)
	assert.Equal(t, u.Username+"@example.com", u.Email)
	assert.NotEqual(t, "changeme", u.PasswordHash)
}

func TestRandomRangeStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	lo, hi := slot.MustTimeToken(7, 0), slot.MustTimeToken(19, 0)

	for i := 0; i < 500; i++ {
		start, end, err := RandomRange(rng, lo, hi)
		require.NoError(t, err)
		assert.False(t, start.Before(lo))
		assert.False(t, hi.Before(end))
		assert.True(t, start.Before(end))
	}
}

func TestRandomWeekdays(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		days := RandomWeekdays(rng)
		require.NotEmpty(t, days)
		seen := make(map[string]bool)
		for _, d := range days {
			assert.True(t, d.IsRegular())
			assert.False(t, seen[d.Token()])
			seen[d.Token()] = true
		}
	}
}
