package project

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/inamate/geometry-go/internal/collab"
	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/engine"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the construction API on r. Mutating routes go through
// requireToken.
func (h *Handler) Routes(r *mux.Router, requireToken mux.MiddlewareFunc) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/constructions", h.List).Methods("GET")
	api.HandleFunc("/constructions", h.Create).Methods("POST")
	api.HandleFunc("/constructions/{constructionId}", h.Get).Methods("GET")
	api.HandleFunc("/constructions/{constructionId}/snapshot", h.GetSnapshot).Methods("GET")

	api.Handle("/constructions/{constructionId}/ops", requireToken(http.HandlerFunc(h.ApplyOps))).Methods("POST")
	api.Handle("/constructions/{constructionId}", requireToken(http.HandlerFunc(h.Delete))).Methods("DELETE")
}

type createRequest struct {
	Name         string                     `json:"name"`
	Sample       bool                       `json:"sample"`
	Construction *construction.Construction `json:"construction,omitempty"`
}

type opsRequest struct {
	Operations []collab.Operation `json:"operations"`
}

type appliedResponse struct {
	OperationID string        `json:"operationId"`
	ServerSeq   int64         `json:"serverSeq"`
	Result      engine.Result `json:"result"`
}

type opsResponse struct {
	Applied  []appliedResponse `json:"applied"`
	Snapshot *engine.Snapshot  `json:"snapshot,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type snapshotResponse struct {
	ServerSeq int64           `json:"serverSeq"`
	Snapshot  engine.Snapshot `json:"snapshot"`
}

type getResponse struct {
	Info
	Construction *construction.Construction `json:"construction"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" && req.Construction == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	created, err := h.service.Create(CreateParams{
		Name:         req.Name,
		Sample:       req.Sample,
		Construction: req.Construction,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("construction created", "construction", created.Construction.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	constructionID := mux.Vars(r)["constructionId"]

	info, err := h.service.Info(constructionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	c, err := h.service.Construction(constructionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getResponse{Info: *info, Construction: c})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	constructionID := mux.Vars(r)["constructionId"]

	snap, seq, err := h.service.Snapshot(constructionID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotResponse{ServerSeq: seq, Snapshot: snap})
}

// ApplyOps applies a batch of operations. When one is rejected the response
// lists the ones accepted before it alongside the error.
func (h *Handler) ApplyOps(w http.ResponseWriter, r *http.Request) {
	constructionID := mux.Vars(r)["constructionId"]

	var req opsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Operations) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "operations are required"})
		return
	}

	applied, err := h.service.ApplyOps(constructionID, req.Operations)
	if err != nil && errors.Is(err, ErrNotFound) {
		handleServiceError(w, err)
		return
	}

	resp := opsResponse{Applied: make([]appliedResponse, 0, len(applied))}
	for _, a := range applied {
		resp.Applied = append(resp.Applied, appliedResponse{
			OperationID: a.Operation.ID,
			ServerSeq:   a.ServerSeq,
			Result:      a.Result,
		})
	}
	if n := len(applied); n > 0 {
		resp.Snapshot = &applied[n-1].Snapshot
	}

	if err != nil {
		resp.Error = err.Error()
		writeJSON(w, operationStatus(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	constructionID := mux.Vars(r)["constructionId"]

	if err := h.service.Delete(constructionID); err != nil {
		handleServiceError(w, err)
		return
	}

	slog.Info("construction deleted", "construction", constructionID)
	w.WriteHeader(http.StatusNoContent)
}

// operationStatus maps a rejected operation to a status code.
func operationStatus(err error) int {
	switch {
	case errors.Is(err, construction.ErrReferenced),
		errors.Is(err, collab.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, engine.ErrPointNotFound),
		errors.Is(err, construction.ErrUnknownObject):
		return http.StatusNotFound
	default:
		return http.StatusUnprocessableEntity
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
