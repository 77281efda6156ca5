package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/romariotrain/content-pipeline/internal/content/models"
	"github.com/romariotrain/content-pipeline/internal/content/service"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RegisterUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req RegisterUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	c, err := h.svc.RegisterUpload(r.Context(), req.Type, req.Source)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toContentResponse(c))
}

// ContentByID обслуживает всё под /content/{id}...: сам элемент, finish,
// retry, status и derivatives. Роутинг как в health/media — TrimPrefix
// по голому ServeMux.
func (h *Handler) ContentByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/content/")
	if rest == "" || rest == r.URL.Path {
		writeErrorJSON(w, http.StatusBadRequest, "missing id")
		return
	}

	idStr, action, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return
	}

	switch action {
	case "":
		h.getContent(w, r, id)
	case "finish":
		h.finishUpload(w, r, id)
	case "retry":
		h.retry(w, r, id)
	case "status":
		h.changeStatus(w, r, id)
	case "derivatives":
		h.derivatives(w, r, id)
	default:
		writeErrorJSON(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) getContent(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	c, err := h.svc.GetContent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(c))
}

func (h *Handler) finishUpload(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	c, err := h.svc.FinishUpload(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(c))
}

func (h *Handler) retry(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	c, err := h.svc.Retry(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(c))
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodPatch {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid json body")
		return
	}

	c, err := h.svc.ChangeStatus(r.Context(), id, req.Status, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(c))
}

// derivatives — delivery-слой: статус + расположение артефактов.
func (h *Handler) derivatives(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	c, err := h.svc.GetContent(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ds, err := h.svc.ListDerivatives(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := DerivativesResponse{
		ContentID:   id,
		Status:      string(c.Status),
		Derivatives: make([]DerivativeResponse, 0, len(ds)),
	}
	for _, d := range ds {
		resp.Derivatives = append(resp.Derivatives, DerivativeResponse{
			ID:        d.ID,
			Kind:      d.Kind,
			Location:  d.Location,
			CreatedAt: d.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
	case errors.Is(err, models.ErrInvalidTransition):
		writeErrorJSON(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrConflict):
		writeErrorJSON(w, http.StatusConflict, "conflict")
	default:
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func toContentResponse(c *models.Content) ContentResponse {
	return ContentResponse{
		ID:            c.ID,
		Status:        string(c.Status),
		Type:          c.Type,
		Source:        c.Source,
		FailureReason: c.FailureReason,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
