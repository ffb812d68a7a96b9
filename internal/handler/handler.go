package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/s2c2-dev/staffing/backend/internal/config"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/metrics"
	"github.com/s2c2-dev/staffing/backend/internal/repository"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	repository   *repository.Repository
	translator   ut.Translator
	eventChannel *amqp.Channel
	redisClient  *redis.Client
	metrics      *metrics.Metrics
	location     *time.Location
	startChoices []slot.Choice
	endChoices   []slot.Choice

	Mux *chi.Mux
}

// NewHandler builds the API. eventCh, rdb and m may be nil; events are then
// dropped, calendars are not cached and nothing is measured.
func NewHandler(cfg *config.Config, repo *repository.Repository, eventCh *amqp.Channel, rdb *redis.Client, m *metrics.Metrics) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}
	if err := registerTokenValidators(validate, trans); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Calendar.Timezone)
	if err != nil {
		return nil, err
	}

	startChoices, err := choices(cfg.Slot.StartMin, cfg.Slot.StartMax)
	if err != nil {
		return nil, err
	}
	endChoices, err := choices(cfg.Slot.EndMin, cfg.Slot.EndMax)
	if err != nil {
		return nil, err
	}

	return &Handler{
		validate:     validate,
		config:       cfg,
		repository:   repo,
		translator:   trans,
		eventChannel: eventCh,
		redisClient:  rdb,
		metrics:      m,
		location:     loc,
		startChoices: startChoices,
		endChoices:   endChoices,

		Mux: chi.NewRouter(),
	}, nil
}

func choices(min, max string) ([]slot.Choice, error) {
	lo, err := slot.ParseTimeToken(min)
	if err != nil {
		return nil, err
	}
	hi, err := slot.ParseTimeToken(max)
	if err != nil {
		return nil, err
	}
	return slot.Choices(lo, hi)
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.instrument)

	h.Mux.Method("GET", "/metrics", h.metrics.Handler())

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below requires a session
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/me", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Get("/time-choices", h.GetTimeChoices)

		r.Route("/staff/{uid}", func(r chi.Router) {
			r.Use(h.staffInfo)
			r.Get("/day", h.GetStaffDay)
			r.Get("/logs", h.GetStaffLogs)
			r.Get("/calendar/events", h.GetCalendarEvents)
			r.Get("/calendar.ics", h.GetCalendarICS)
			r.Group(func(r chi.Router) {
				r.Use(h.canEditStaff)
				r.Post("/offers", h.AddOffers)
				r.Delete("/offers", h.DeleteOffers)
				r.Post("/copy", h.CopyOfferTemplate)
			})
		})

		r.Route("/locations/{cid}", func(r chi.Router) {
			r.Use(h.locationInfo)
			r.Get("/day", h.GetLocationDay)
			r.Get("/logs", h.GetLocationLogs)
			r.Group(func(r chi.Router) {
				r.Use(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin}))
				r.Post("/needs", h.AddNeeds)
				r.Delete("/needs", h.DeleteNeeds)
				r.Post("/copy", h.CopyNeedTemplate)
				r.Post("/assign", h.AssignRange)
			})
		})

		r.Route("/needs/{id}", func(r chi.Router) {
			r.Use(h.needInfo)
			r.Get("/assignment", h.GetAssignment)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Post("/assignment", h.Assign)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Delete("/assignment", h.Unassign)
		})
	})
}
