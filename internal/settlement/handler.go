package settlement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/courtline/courtline/internal/platform/httpx"
	"github.com/courtline/courtline/internal/shared"
)

// Handler exposes settlement endpoints. All routes are admin-only.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers settlement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.settle)
	r.Get("/", h.list)
	r.Get("/open", h.openCompensations)
	r.Get("/{id}", h.get)
}

type settleRequest struct {
	TrainingIDs []int64 `json:"trainingIds"`
}

type paymentUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type paymentResponse struct {
	ID          int64       `json:"id"`
	User        paymentUser `json:"user"`
	CreatedAt   time.Time   `json:"createdAt"`
	TrainingIDs []int64     `json:"trainingIds"`
	TotalCents  int64       `json:"totalCents"`
}

type openCompensationResponse struct {
	TrainerID   int64   `json:"trainerId"`
	TrainerName string  `json:"trainerName"`
	TrainerIBAN string  `json:"trainerIban"`
	TrainingIDs []int64 `json:"trainingIds"`
	TotalCents  int64   `json:"totalCents"`
}

func toPaymentResponse(p Payment) paymentResponse {
	ids := p.TrainingIDs
	if ids == nil {
		ids = []int64{}
	}
	return paymentResponse{
		ID:          p.ID,
		User:        paymentUser{ID: p.CreatedBy, Name: p.CreatedByName},
		CreatedAt:   p.CreatedAt,
		TrainingIDs: ids,
		TotalCents:  int64(p.TotalCents),
	}
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
		return
	}
	var payload settleRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	payment, err := h.service.Settle(r.Context(), payload.TrainingIDs, caller.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPaymentResponse(payment))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
		return
	}

	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, toPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid payment id")
		return
	}

	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPaymentResponse(payment))
}

func (h *Handler) openCompensations(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
		return
	}

	open, err := h.service.OpenCompensations(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]openCompensationResponse, 0, len(open))
	for _, c := range open {
		out = append(out, openCompensationResponse{
			TrainerID:   c.TrainerID,
			TrainerName: c.TrainerName,
			TrainerIBAN: c.TrainerIBAN,
			TrainingIDs: c.TrainingIDs,
			TotalCents:  int64(c.TotalCents),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownAdmin):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrTrainingMissing), errors.Is(err, ErrPaymentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error("settlement request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
