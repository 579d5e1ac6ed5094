package training

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/courtline/courtline/internal/platform/httpx"
	"github.com/courtline/courtline/internal/shared"
)

// Handler exposes training endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers training routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/duplicates", h.findDuplicates)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Post("/{id}/transition", h.transition)
}

type trainingPayload struct {
	TrainerID         int64  `json:"trainerId"`
	CourseID          *int64 `json:"courseId"`
	Date              string `json:"date" validate:"required,datetime=2006-01-02"`
	CompensationCents int64  `json:"compensationCents"`
	ParticipantCount  int    `json:"participantCount" validate:"gte=0"`
	Comment           string `json:"comment"`
}

type transitionPayload struct {
	Status string `json:"status" validate:"required"`
}

type trainingResponse struct {
	ID                int64      `json:"id"`
	TrainerID         int64      `json:"trainerId"`
	CourseID          *int64     `json:"courseId"`
	Date              string     `json:"date"`
	CompensationCents int64      `json:"compensationCents"`
	ParticipantCount  int        `json:"participantCount"`
	Comment           string     `json:"comment"`
	Status            Status     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	ApprovedAt        *time.Time `json:"approvedAt,omitempty"`
	CompensatedAt     *time.Time `json:"compensatedAt,omitempty"`
	Payment           PaymentRef `json:"payment"`
}

type duplicateResponse struct {
	QueriedID            int64  `json:"queriedId"`
	DuplicateID          int64  `json:"duplicateId"`
	DuplicateTrainerName string `json:"duplicateTrainerName"`
	DuplicateCourseName  string `json:"duplicateCourseName"`
}

func toResponse(t Training) trainingResponse {
	return trainingResponse{
		ID:                t.ID,
		TrainerID:         t.TrainerID,
		CourseID:          t.CourseID,
		Date:              t.Date.String(),
		CompensationCents: int64(t.CompensationCents),
		ParticipantCount:  t.ParticipantCount,
		Comment:           t.Comment,
		Status:            t.Status,
		CreatedAt:         t.CreatedAt,
		ApprovedAt:        t.ApprovedAt,
		CompensatedAt:     t.CompensatedAt,
		Payment:           t.Payment(),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var payload trainingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := shared.ParseDay(payload.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), caller, CreateTrainingInput{
		TrainerID:         payload.TrainerID,
		CourseID:          payload.CourseID,
		Date:              date,
		CompensationCents: shared.Cents(payload.CompensationCents),
		ParticipantCount:  payload.ParticipantCount,
		Comment:           payload.Comment,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(created))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid training id")
		return
	}
	t, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	req := ListTrainingsRequest{Status: Status(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("trainerId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid trainer id")
			return
		}
		req.TrainerID = id
	}
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if req.From, err = shared.ParseDay(v); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if req.To, err = shared.ParseDay(v); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
	}

	trainings, err := h.service.List(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]trainingResponse, 0, len(trainings))
	for _, t := range trainings {
		out = append(out, toResponse(t))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid training id")
		return
	}
	var payload trainingPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	date, err := shared.ParseDay(payload.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), caller, id, UpdateTrainingInput{
		CourseID:          payload.CourseID,
		Date:              date,
		CompensationCents: shared.Cents(payload.CompensationCents),
		ParticipantCount:  payload.ParticipantCount,
		Comment:           payload.Comment,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(updated))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid training id")
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid training id")
		return
	}
	var payload transitionPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	t, err := h.service.Transition(r.Context(), caller, id, Status(payload.Status))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(t))
}

func (h *Handler) findDuplicates(w http.ResponseWriter, r *http.Request) {
	caller, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	ids, err := parseIDList(r.URL.Query().Get("ids"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	candidates, err := h.service.FindDuplicates(r.Context(), caller, ids)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]duplicateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, duplicateResponse{
			QueriedID:            c.QueriedID,
			DuplicateID:          c.DuplicateID,
			DuplicateTrainerName: c.DuplicateTrainerName,
			DuplicateCourseName:  c.DuplicateCourseName,
		})
	}
	httpx.JSON(w, http.StatusOK, out)
}

// parseIDList splits a comma separated id list; any non-numeric token fails
// the whole request.
func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.New("id list contains a non-numeric token")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTrainingNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrTrainingCompensated):
		httpx.ProblemCode(w, http.StatusConflict, "Conflict", err.Error(), "training_compensated")
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidReference):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error("training request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
