package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// Fixtures is the YAML document loaded by the seed command:
//
//	users:
//	  - {username: ann, fullName: Ann Lee, email: ann@example.com, role: staff}
//	locations:
//	  - {centerID: 1, name: Toddlers}
//	offers:
//	  - {staff: ann, day: w1, start: "0900", end: "1200"}
//	needs:
//	  - {location: Toddlers, day: w1, start: "0900", end: "1100", howMany: 2}
type Fixtures struct {
	Users     []UserFixture     `yaml:"users"`
	Locations []LocationFixture `yaml:"locations"`
	Offers    []OfferFixture    `yaml:"offers"`
	Needs     []NeedFixture     `yaml:"needs"`
}

type UserFixture struct {
	Username string      `yaml:"username"`
	FullName string      `yaml:"fullName"`
	Email    string      `yaml:"email"`
	Role     domain.Role `yaml:"role"`
	CenterID int64       `yaml:"centerID"`
}

type LocationFixture struct {
	CenterID int64  `yaml:"centerID"`
	Name     string `yaml:"name"`
}

type OfferFixture struct {
	Staff string `yaml:"staff"`
	Day   string `yaml:"day"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

type NeedFixture struct {
	Location string `yaml:"location"`
	Day      string `yaml:"day"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	HowMany  int    `yaml:"howMany"`
}

// LoadFixtures reads and checks a fixtures file. Token and reference errors
// are reported before anything is written.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixtures(data)
}

func ParseFixtures(data []byte) (*Fixtures, error) {
	fx := &Fixtures{}
	if err := yaml.Unmarshal(data, fx); err != nil {
		return nil, err
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return fx, nil
}

func (fx *Fixtures) validate() error {
	users := make(map[string]bool)
	for _, u := range fx.Users {
		if u.Username == "" {
			return errors.New("seed: user without username")
		}
		switch u.Role {
		case domain.RoleStaff, domain.RoleManager, domain.RoleAdmin:
		default:
			return fmt.Errorf("seed: user %s has unknown role %q", u.Username, u.Role)
		}
		users[u.Username] = true
	}

	locations := make(map[string]bool)
	for _, l := range fx.Locations {
		locations[l.Name] = true
	}

	for _, o := range fx.Offers {
		if !users[o.Staff] {
			return fmt.Errorf("seed: offer for unknown user %q", o.Staff)
		}
		if _, _, _, err := parseRange(o.Day, o.Start, o.End); err != nil {
			return fmt.Errorf("seed: offer for %s: %w", o.Staff, err)
		}
	}
	for _, n := range fx.Needs {
		if !locations[n.Location] {
			return fmt.Errorf("seed: need for unknown location %q", n.Location)
		}
		if n.HowMany < 1 {
			return fmt.Errorf("seed: need for %s: howMany must be at least 1", n.Location)
		}
		if _, _, _, err := parseRange(n.Day, n.Start, n.End); err != nil {
			return fmt.Errorf("seed: need for %s: %w", n.Location, err)
		}
	}

	return nil
}

func parseRange(day, start, end string) (slot.DayToken, slot.TimeToken, slot.TimeToken, error) {
	d, err := slot.ParseDayToken(day)
	if err != nil {
		return d, slot.TimeToken{}, slot.TimeToken{}, err
	}
	s, err := slot.ParseTimeToken(start)
	if err != nil {
		return d, s, slot.TimeToken{}, err
	}
	e, err := slot.ParseTimeToken(end)
	if err != nil {
		return d, s, e, err
	}
	if _, err := slot.NewTimeSlot(s, e); err != nil {
		return d, s, e, err
	}
	return d, s, e, nil
}

// Store is the part of the repository fixtures are written through.
type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	CreateLocation(ctx context.Context, loc *domain.Location) error
	GetAllLocations(ctx context.Context) ([]*domain.Location, error)
	AddOffers(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken, start, end slot.TimeToken) (*repository.Outcome, error)
	AddNeeds(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken, start, end slot.TimeToken, howMany int) (*repository.Outcome, error)
}

// Apply writes fx as actor. Users and locations that already exist are
// reused, so applying the same file twice only adds needs again.
func Apply(ctx context.Context, store Store, actor domain.Actor, fx *Fixtures, password string) error {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	userIDs := make(map[string]int64)
	for _, u := range fx.Users {
		user := &domain.User{
			Username:     u.Username,
			PasswordHash: string(passwordHash),
			FullName:     u.FullName,
			Email:        u.Email,
			Role:         u.Role,
			CenterID:     u.CenterID,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) || pgErr.ConstraintName != "users_username_key" {
				return fmt.Errorf("seed: create user %s: %w", u.Username, err)
			}
			if user, err = store.GetUserByUsername(ctx, u.Username); err != nil {
				return err
			}
			slog.Info("user already exists", "username", u.Username)
		}
		userIDs[u.Username] = user.ID
	}

	existing, err := store.GetAllLocations(ctx)
	if err != nil {
		return err
	}
	locationIDs := make(map[string]int64)
	for _, l := range existing {
		locationIDs[l.Name] = l.ID
	}
	for _, l := range fx.Locations {
		if _, ok := locationIDs[l.Name]; ok {
			continue
		}
		loc := &domain.Location{CenterID: l.CenterID, Name: l.Name}
		if err := store.CreateLocation(ctx, loc); err != nil {
			return fmt.Errorf("seed: create location %s: %w", l.Name, err)
		}
		locationIDs[l.Name] = loc.ID
	}

	for _, o := range fx.Offers {
		day, start, end, _ := parseRange(o.Day, o.Start, o.End)
		if _, err := store.AddOffers(ctx, actor, userIDs[o.Staff], day, start, end); err != nil {
			return fmt.Errorf("seed: offers for %s: %w", o.Staff, err)
		}
	}
	for _, n := range fx.Needs {
		day, start, end, _ := parseRange(n.Day, n.Start, n.End)
		if _, err := store.AddNeeds(ctx, actor, locationIDs[n.Location], day, start, end, n.HowMany); err != nil {
			return fmt.Errorf("seed: needs for %s: %w", n.Location, err)
		}
	}

	slog.Info("fixtures applied", "users", len(fx.Users), "locations", len(fx.Locations), "offers", len(fx.Offers), "needs", len(fx.Needs))
	return nil
}
