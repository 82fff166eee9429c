// Package server assembles the HTTP surface: the chi router with its
// middleware stack, the route table, and a graceful-shutdown server loop.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/auth"
	"github.com/user/accounts-go/config"
	_ "github.com/user/accounts-go/docs" // registers the swagger spec
	"github.com/user/accounts-go/logging"
	"github.com/user/accounts-go/store"
	"github.com/user/accounts-go/users"
)

const requestTimeout = 30 * time.Second

// ProfilePath is the absolute path of the profile endpoint under basePath.
// Registration responses point their Location header at it.
func ProfilePath(basePath string) string {
	return basePath + "/auth/profile"
}

// Deps are the collaborators the router wires into routes.
type Deps struct {
	Config       config.ServerConfig
	Store        store.Repository
	Tokens       *auth.TokenManager
	AuthHandlers *auth.Handlers
	UserHandlers *users.Handlers
	Logger       logging.Logger
}

// NewRouter builds the application handler. All routes live under
// Config.BasePath.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(recoverer(d.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteError(w, r, apperror.NewNotFoundError("route not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		auth.WriteJSON(w, http.StatusMethodNotAllowed, apperror.ErrorResponse{Error: "method not allowed"})
	})

	routes := func(r chi.Router) {
		r.Get("/healthz", handleHealth(d.Store))

		if d.Config.SwaggerEnabled {
			r.Get("/swagger/*", httpSwagger.Handler(
				httpSwagger.URL(d.Config.BasePath+"/swagger/doc.json"),
			))
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandlers.HandleRegister())
			r.Post("/login", d.AuthHandlers.HandleLogin())

			r.Group(func(r chi.Router) {
				r.Use(auth.JWTMiddleware(d.Tokens, d.Logger))
				r.Get("/profile", d.UserHandlers.HandleGetProfile())
			})
		})
	}

	if d.Config.BasePath == "" {
		routes(r)
	} else {
		r.Route(d.Config.BasePath, routes)
	}

	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func handleHealth(s store.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Ping(r.Context()); err != nil {
			auth.WriteError(w, r, apperror.NewDatabaseError("database unavailable", err))
			return
		}
		auth.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
