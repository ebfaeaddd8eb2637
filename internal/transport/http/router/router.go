package router

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/chatcpe-service/internal/transport/http/middleware"
)

type HealthHandler interface {
	Root(w http.ResponseWriter, r *http.Request)
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type AuthHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	Token(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)

	// Email verification
	Verify(w http.ResponseWriter, r *http.Request)
	ResendVerification(w http.ResponseWriter, r *http.Request)

	Profile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
	SetRole(w http.ResponseWriter, r *http.Request)
}

type ChatHandler interface {
	Send(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	HistoryFor(w http.ResponseWriter, r *http.Request)
	Health(w http.ResponseWriter, r *http.Request)
}

type FAQHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type FilesHandler interface {
	Upload(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Forms(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health HealthHandler
	Auth   AuthHandler
	Chat   ChatHandler
	FAQ    FAQHandler
	Files  FilesHandler

	AuthMW         func(http.Handler) http.Handler // token required
	OptionalAuthMW func(http.Handler) http.Handler

	// nil means no limit on that route group
	RLAuth func(http.Handler) http.Handler
	RLChat func(http.Handler) http.Handler

	AllowedOrigins []string
	Metrics        http.Handler // defaults to promhttp.Handler()
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("nil Auth handler")
	}
	if deps.Chat == nil {
		return nil, fmt.Errorf("nil Chat handler")
	}
	if deps.FAQ == nil {
		return nil, fmt.Errorf("nil FAQ handler")
	}
	if deps.Files == nil {
		return nil, fmt.Errorf("nil Files handler")
	}
	if deps.AuthMW == nil {
		return nil, fmt.Errorf("nil Auth middleware")
	}
	if deps.OptionalAuthMW == nil {
		return nil, fmt.Errorf("nil optional Auth middleware")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.HeaderXRequestID},
		ExposedHeaders:   []string{middleware.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", deps.Health.Root)
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			use(r, deps.RLAuth)
			r.Post("/register", deps.Auth.Register)
			r.Post("/login", deps.Auth.Login)
			r.Post("/token", deps.Auth.Token)
			r.Post("/verify/resend", deps.Auth.ResendVerification)
		})
		r.Get("/verify", deps.Auth.Verify) // ?token=...
		r.Post("/logout", deps.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW)
			r.Get("/profile", deps.Auth.Profile)
			r.Put("/profile", deps.Auth.UpdateProfile)
			r.Patch("/users/{id}/role", deps.Auth.SetRole)
		})
	})

	r.Route("/chat", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(deps.OptionalAuthMW)
			use(r, deps.RLChat)
			r.Post("/send", deps.Chat.Send)
		})
		r.Get("/health", deps.Chat.Health)
		r.With(deps.AuthMW).Get("/history", deps.Chat.History)
		r.With(deps.AuthMW).Get("/history/{user_id}", deps.Chat.HistoryFor)
	})

	r.Route("/faq", func(r chi.Router) {
		r.Get("/", deps.FAQ.List)
		r.Get("/{id}", deps.FAQ.Get)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMW)
			r.Post("/", deps.FAQ.Create)
			r.Put("/{id}", deps.FAQ.Update)
			r.Delete("/{id}", deps.FAQ.Delete)
		})
	})

	r.Route("/files", func(r chi.Router) {
		r.Use(deps.AuthMW)
		r.Post("/upload", deps.Files.Upload)
		r.Get("/", deps.Files.List)
	})

	r.Get("/documents/forms", deps.Files.Forms)

	return r, nil
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}
