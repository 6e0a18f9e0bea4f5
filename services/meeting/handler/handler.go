package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/health"

	"github.com/xilidan/meetings/pkg/logger"
	"github.com/xilidan/meetings/pkg/observability"
	"github.com/xilidan/meetings/services/meeting/usecase"
	ssousecase "github.com/xilidan/meetings/services/sso/usecase"
)

type Handler struct {
	usecase        usecase.Usecase
	sso            ssousecase.Usecase
	metrics        *observability.Metrics
	gatherer       prometheus.Gatherer
	health         *health.Server
	allowedOrigins []string
	log            *slog.Logger
}

type Options struct {
	Usecase        usecase.Usecase
	SSO            ssousecase.Usecase
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer
	Health         *health.Server
	AllowedOrigins []string
	Log            *slog.Logger
}

func New(opts Options) *Handler {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.NewRegistry()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if opts.Health == nil {
		opts.Health = health.NewServer()
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	return &Handler{
		usecase:        opts.Usecase,
		sso:            opts.SSO,
		metrics:        opts.Metrics,
		gatherer:       opts.Gatherer,
		health:         opts.Health,
		allowedOrigins: opts.AllowedOrigins,
		log:            opts.Log,
	}
}

func (h *Handler) Routes() http.Handler {
	h.log.Debug("registering HTTP routes")
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(h.log))
	r.Use(h.metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})

	r.Route("/meetings", func(r chi.Router) {
		r.Get("/", h.ListMeetings)
		r.Get("/{id}", h.GetMeeting)
		r.Get("/getMeetingUsers/{id}", h.GetMeetingUsers)
		r.Get("/getUsersMeeting/{id}", h.GetUsersMeeting)
		r.Get("/byUser/{userId}", h.ListMeetingsByUser)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/start", h.StartMeeting)
			r.Put("/update/{id}", h.UpdateMeeting)
			r.Put("/addUser/{id}", h.AddUser)
			r.Put("/updateOrAddMeetingUser/{id}", h.ReconcileUser)
			r.Put("/removeUser/{id}", h.RemoveUser)
			r.Put("/finish/{id}", h.FinishMeeting)
			r.Put("/summarize/{id}", h.SummarizeMeeting)
		})
	})

	r.Route("/chats", func(r chi.Router) {
		r.Get("/", h.ListChats)
		r.Get("/{meetingId}", h.GetChat)
		r.Get("/chatsByUser/{userId}", h.ListChatsByUser)

		r.With(h.Authenticate).Put("/saveMessage", h.SaveMessage)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Get("/{id}", h.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/register", h.RegisterUser)
			r.Put("/update/{id}", h.UpdateUser)
			r.Delete("/delete/{id}", h.DeleteUser)
		})
	})

	h.log.Info("all routes registered successfully")
	return r
}
