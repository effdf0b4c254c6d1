package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/adityaverma/docuchat/internal/account"
	"github.com/adityaverma/docuchat/internal/api/handlers"
	"github.com/adityaverma/docuchat/internal/api/middleware"
	"github.com/adityaverma/docuchat/internal/archive"
	"github.com/adityaverma/docuchat/internal/auth"
	"github.com/adityaverma/docuchat/internal/cache"
	"github.com/adityaverma/docuchat/internal/config"
	"github.com/adityaverma/docuchat/internal/queue"
	"github.com/adityaverma/docuchat/internal/rag"
	"github.com/adityaverma/docuchat/internal/telemetry"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	accounts *account.Service
	issuer   *auth.Issuer
	jwt      *auth.Middleware
	pipeline *rag.Pipeline
	metrics  *telemetry.Metrics
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, pipeline *rag.Pipeline, metrics *telemetry.Metrics) *Router {
	accounts := account.NewService(db)
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		accounts: accounts,
		issuer:   issuer,
		jwt:      auth.NewMiddleware(issuer, accounts),
		pipeline: pipeline,
		metrics:  metrics,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Unauthenticated endpoints
	health := handlers.NewHealthHandler(rt.db, rt.redis, rt.pipeline)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	archiveStore := archive.New(rt.cfg.Storage.ArchiveDir)
	queueClient := queue.NewClient(rt.cfg.Redis)
	answerCache := cache.NewCache(rt.redis)

	authH := handlers.NewAuthHandler(rt.accounts, rt.issuer)
	userH := handlers.NewUserHandler(rt.accounts)
	teamH := handlers.NewTeamHandler(rt.accounts, archiveStore)
	trainH := handlers.NewTrainHandler(rt.pipeline, queueClient, rt.cfg.Storage.StagingDir)
	chatH := handlers.NewChatHandler(rt.pipeline, answerCache)

	r.Route("/api/v1", func(r chi.Router) {
		// Signup and login stay open
		r.Post("/users", userH.Create)
		r.Post("/auth/token", authH.Token)
		r.Post("/teams", teamH.Create)

		r.Group(func(r chi.Router) {
			r.Use(rt.jwt.Authenticate)

			r.Get("/users/me", userH.Me)
			r.Get("/teams/names", teamH.Names)
			r.Get("/team-pdfs", teamH.PDFs)
			r.Post("/train-chatbot", trainH.Train)
			r.Post("/chat", chatH.Chat)
		})
	})

	return r
}
