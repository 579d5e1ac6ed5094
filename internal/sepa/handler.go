package sepa

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/courtline/courtline/internal/platform/httpx"
	"github.com/courtline/courtline/internal/shared"
)

// Handler exposes the export endpoint.
type Handler struct {
	logger    *slog.Logger
	generator *Generator
	validate  *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, generator *Generator) *Handler {
	return &Handler{logger: logger, generator: generator, validate: validator.New()}
}

// MountRoutes registers SEPA routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/export", h.export)
}

type exportPayload struct {
	Rows []exportRow `json:"rows" validate:"required,min=1,dive"`
}

type exportRow struct {
	RecipientName string `json:"recipientName" validate:"required"`
	RecipientIBAN string `json:"recipientIban" validate:"required"`
	AmountCents   int64  `json:"amountCents" validate:"gt=0"`
	Reference     string `json:"reference"`
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := shared.RequireAdmin(caller); err != nil {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	var payload exportPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	rows := make([]Row, 0, len(payload.Rows))
	for _, p := range payload.Rows {
		rows = append(rows, Row{
			RecipientName: p.RecipientName,
			RecipientIBAN: p.RecipientIBAN,
			AmountCents:   shared.Cents(p.AmountCents),
			Reference:     p.Reference,
		})
	}

	today := shared.Today()
	doc, err := h.generator.Generate(rows, today)
	if err != nil {
		h.respondError(w, err)
		return
	}

	filename := fmt.Sprintf("sepa-credit-transfer-%s.xml", today.String())
	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc); err != nil {
		h.logger.Error("writing sepa export", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidIBAN), errors.Is(err, ErrNoRows), errors.Is(err, ErrNonPositiveCents):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("sepa export failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
