package note

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/caredesk/case-management/internal"
	"github.com/caredesk/case-management/internal/auth"
	"github.com/caredesk/case-management/internal/transport"
	"github.com/caredesk/case-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	email, ok := internal.UserEmailFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requestType, requestID, ok := h.requestRef(w, r)
	if !ok {
		return
	}

	var dto CreateNoteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.Service.Add(email, requestType, requestID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, n)
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	requestType, requestID, ok := h.requestRef(w, r)
	if !ok {
		return
	}

	notes, err := h.Service.List(requestType, requestID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, notes)
}

func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	access, ok := auth.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	var dto UpdateNoteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.Service.Edit(access, noteID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, n)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	access, ok := auth.AccessFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(access, noteID); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) requestRef(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	requestType := chi.URLParam(r, "requestType")
	raw := chi.URLParam(r, "requestId")
	requestID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || requestID < 1 {
		h.WriteError(w, http.StatusBadRequest, "invalid request id")
		return "", 0, false
	}
	return requestType, requestID, true
}

func (h *Handler) noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "noteId")
	noteID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || noteID < 1 {
		h.WriteError(w, http.StatusBadRequest, "invalid note id")
		return 0, false
	}
	return noteID, true
}
