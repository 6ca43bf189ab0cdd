package app

import (
	"net/http"

	"todoTracker/internal/handlers"
	"todoTracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type routeHandlers struct {
	todos   *handlers.TodoHandler
	auth    *handlers.AuthHandler
	weather *handlers.WeatherHandler
	tokens  middleware.TokenParser
}

func (a *App) routes(h routeHandlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	r.Get("/health", h.todos.HealthCheck) // GET /health

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.auth.Register) // POST /api/auth/register
		r.Post("/auth/login", h.auth.Login)       // POST /api/auth/login

		r.Get("/weather", h.weather.GetWeather) // GET /api/weather?city=...

		r.Route("/todos", func(r chi.Router) {
			r.Use(middleware.Authenticate(h.tokens))

			r.Post("/", h.todos.CreateTodo) // POST /api/todos
			r.Get("/", h.todos.ListTodos)   // GET /api/todos?completed=&priority=&tag=&overdue=&page=&limit=

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.todos.GetTodo)       // GET /api/todos/{id}
				r.Put("/", h.todos.UpdateTodo)    // PUT /api/todos/{id}
				r.Delete("/", h.todos.DeleteTodo) // DELETE /api/todos/{id}

				r.Put("/completion", h.todos.SetCompletion)   // PUT /api/todos/{id}/completion?isCompleted=
				r.Patch("/completion", h.todos.SetCompletion) // PATCH /api/todos/{id}/completion?isCompleted=
			})
		})
	})

	return otelhttp.NewHandler(r, "todo-tracker")
}
