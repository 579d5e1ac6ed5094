package reporting

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/courtline/courtline/internal/platform/httpx"
	"github.com/courtline/courtline/internal/shared"
)

// Handler exposes the report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/aggregate", h.aggregate)
	r.Get("/summary", h.summarize)
	r.Get("/course-counts", h.countPerCourse)
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid year")
		return
	}
	groupBy := GroupBy(r.URL.Query().Get("groupBy"))
	if groupBy == "" {
		groupBy = GroupByTrainer
	}
	var trainerID int64
	if v := r.URL.Query().Get("trainerId"); v != "" {
		if trainerID, err = strconv.ParseInt(v, 10, 64); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid trainer id")
			return
		}
	}
	// Trainers may only pull their own numbers, and only per trainer.
	if !caller.IsAdmin() {
		if groupBy != GroupByTrainer || trainerID != caller.UserID {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
	}

	rows, err := h.service.Aggregate(r.Context(), year, groupBy, trainerID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) summarize(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rows, err := h.service.Summarize(r.Context(), from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) countPerCourse(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	counts, err := h.service.CountPerCourse(r.Context(), from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}

func parseRange(r *http.Request) (shared.Day, shared.Day, error) {
	var from, to shared.Day
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = shared.ParseDay(v); err != nil {
			return shared.Day{}, shared.Day{}, err
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = shared.ParseDay(v); err != nil {
			return shared.Day{}, shared.Day{}, err
		}
	}
	return from, to, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidYear), errors.Is(err, ErrInvalidGroupBy), errors.Is(err, ErrMissingRange):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrTrainerNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("report request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
