package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/s2c2-dev/staffing/backend/internal/config"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/seed"
	"github.com/s2c2-dev/staffing/backend/internal/slot"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var centerID int64
	var emailDomain string
	var fixtures string

	flag.IntVar(&op, "op", 0, "operation (1: random staff, 2: random locations, 3: random weekly offers and needs, 4: load fixtures file)")
	flag.IntVar(&n, "n", 5, "number of records to insert")
	flag.Int64Var(&centerID, "center-id", 1, "center of inserted staff and locations")
	flag.StringVar(&emailDomain, "email-domain", "example.com", "email domain of random staff")
	flag.StringVar(&fixtures, "fixtures", "", "fixtures file, defaults to SEED_FIXTURES_FILE")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)
	ctx = context.Background()

	// writes are recorded in the change log as the initial admin
	admin, err := repo.GetUserByUsername(ctx, cfg.InitialAdmin.Username)
	if err != nil {
		logger.Error("failed to load initial admin, run the api once first", "error", err)
		return
	}
	actor := domain.Actor{UserID: admin.ID, Role: admin.Role}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	switch op {
	case 0:
		slog.Error("no operation given")
	case 1:
		if n <= 0 {
			slog.Error("n must be positive")
			return
		}
		cnt := 0
		for i := 0; i < n; i++ {
			user, err := seed.RandomUser(rng, cfg.Seed.User.Password, emailDomain, centerID)
			if err != nil {
				slog.Error("failed to generate user", slog.String("error", err.Error()))
				continue
			}
			if err := repo.CreateUser(ctx, user); err != nil {
				slog.Error("failed to insert user", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		slog.Info("inserted staff", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			slog.Error("n must be positive")
			return
		}
		cnt := 0
		for i := 0; i < n; i++ {
			loc := &domain.Location{CenterID: centerID, Name: seed.RandomLocationName(rng)}
			if err := repo.CreateLocation(ctx, loc); err != nil {
				slog.Error("failed to insert location", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}
		slog.Info("inserted locations", slog.Int("count", cnt))
	case 3:
		seedWeeklyTemplates(ctx, repo, actor, rng, cfg, centerID)
	case 4:
		path := fixtures
		if path == "" {
			path = cfg.Seed.FixturesFile
		}
		fx, err := seed.LoadFixtures(path)
		if err != nil {
			slog.Error("failed to load fixtures", "path", path, "error", err)
			return
		}
		if err := seed.Apply(ctx, repo, actor, fx, cfg.Seed.User.Password); err != nil {
			slog.Error("failed to apply fixtures", "error", err)
			return
		}
	default:
		slog.Error("unknown operation", "op", op)
	}
}

// seedWeeklyTemplates gives every active staff member random weekly offers
// and every location random weekly needs within the configured choices.
func seedWeeklyTemplates(ctx context.Context, repo *repository.Repository, actor domain.Actor, rng *rand.Rand, cfg *config.Config, centerID int64) {
	lo, err := slot.ParseTimeToken(cfg.Slot.StartMin)
	if err != nil {
		slog.Error("invalid SLOT_START_MIN", "error", err)
		return
	}
	hi, err := slot.ParseTimeToken(cfg.Slot.EndMax)
	if err != nil {
		slog.Error("invalid SLOT_END_MAX", "error", err)
		return
	}

	users, err := repo.GetActiveStaff(ctx, centerID)
	if err != nil {
		slog.Error("failed to load users", "error", err)
		return
	}
	offers := 0
	for _, u := range users {
		for _, day := range seed.RandomWeekdays(rng) {
			start, end, err := seed.RandomRange(rng, lo, hi)
			if err != nil {
				slog.Error("failed to pick range", "error", err)
				return
			}
			out, err := repo.AddOffers(ctx, actor, u.ID, day, start, end)
			if err != nil {
				slog.Error("failed to insert offers", "username", u.Username, "error", err)
				continue
			}
			offers += len(out.Tokens)
		}
	}

	locations, err := repo.GetAllLocations(ctx)
	if err != nil {
		slog.Error("failed to load locations", "error", err)
		return
	}
	needs := 0
	for _, l := range locations {
		for _, day := range seed.RandomWeekdays(rng) {
			start, end, err := seed.RandomRange(rng, lo, hi)
			if err != nil {
				slog.Error("failed to pick range", "error", err)
				return
			}
			out, err := repo.AddNeeds(ctx, actor, l.ID, day, start, end, rng.Intn(2)+1)
			if err != nil {
				slog.Error("failed to insert needs", "location", l.Name, "error", err)
				continue
			}
			needs += len(out.Tokens)
		}
	}

	slog.Info("inserted weekly templates", slog.Int("offerTokens", offers), slog.Int("needTokens", needs))
}
