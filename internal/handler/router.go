package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/staffbook/backend/internal/handler/employee"
	"github.com/zhouzirui/staffbook/backend/internal/handler/events"
	middlewarePkg "github.com/zhouzirui/staffbook/backend/internal/middleware"
	"github.com/zhouzirui/staffbook/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(employees employee.Service, hub events.Subscriber, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middlewarePkg.CORS(corsOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	employee.New(employees).RegisterRoutes(r)

	// Change feeds are optional; without a hub only the CRUD routes exist.
	if hub != nil {
		events.New(hub).RegisterRoutes(r)
	}

	return r
}
