package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"roomres/infras/postgres"
	"roomres/transport/http/response"
)

type Handler struct {
	db *postgres.Connection
}

func New(db *postgres.Connection) Handler {
	return Handler{
		db: db,
	}
}

func (h *Handler) Router(router chi.Router) {
	router.Get("/health", h.Health)
}

// Health reports whether the service can reach its database.
// @Summary Health check
// @Description Report whether the service and its database are reachable.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Message "Service healthy"
// @Failure 503 {object} response.Error
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Read.PingContext(r.Context()); err != nil {
		log.Error().Err(err).Msg("read database unreachable")

		response.WithUnhealthy(w)

		return
	}

	if err := h.db.Write.PingContext(r.Context()); err != nil {
		log.Error().Err(err).Msg("write database unreachable")

		response.WithUnhealthy(w)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}
