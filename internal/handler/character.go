package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/service"
)

// CharacterHandler handles character HTTP requests
type CharacterHandler struct {
	svc *service.CharacterService
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(svc *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{svc: svc}
}

// CloneRequest carries the optional name for a cloned resource.
type CloneRequest struct {
	Name string `json:"name,omitempty"`
}

// BulkUpdateRequest is the body for bulk character updates.
type BulkUpdateRequest struct {
	Updates []service.CharacterUpdate `json:"updates"`
}

// BulkDeleteRequest is the body for bulk character deletes.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// Character Management Endpoints

// Create handles POST /v1/characters
func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req model.CreateCharacterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidCharacterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.Create(ctx, userID, &req))
}

// List handles GET /v1/characters
func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.List(ctx, userID))
}

// Get handles GET /v1/characters/{characterId}
func (h *CharacterHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Get(ctx, userID, r.PathValue("characterId")))
}

// Update handles PATCH /v1/characters/{characterId}
func (h *CharacterHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req model.UpdateCharacterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidCharacterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.Update(ctx, userID, r.PathValue("characterId"), &req))
}

// Delete handles DELETE /v1/characters/{characterId}
func (h *CharacterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	result := h.svc.Delete(ctx, userID, r.PathValue("characterId"))
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}
	WriteNoContent(w)
}

// Search handles GET /v1/characters/search
func (h *CharacterHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	q := r.URL.Query()
	criteria := &model.CharacterSearchCriteria{
		Name:     q.Get("name"),
		Race:     q.Get("race"),
		Class:    q.Get("class"),
		MinLevel: queryInt(q.Get("min_level")),
		MaxLevel: queryInt(q.Get("max_level")),
	}

	Respond(w, http.StatusOK, h.svc.Search(ctx, userID, criteria))
}

// Stats handles GET /v1/characters/stats
func (h *CharacterHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Stats(ctx, userID))
}

// Clone handles POST /v1/characters/{characterId}/clone
func (h *CharacterHandler) Clone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	// The body is optional; an empty body clones with the default name.
	var req CloneRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorCode(w, model.CodeInvalidCharacterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.Clone(ctx, userID, r.PathValue("characterId"), req.Name))
}

// Bulk Endpoints

// BulkCreate handles POST /v1/characters/bulk
func (h *CharacterHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var reqs []*model.CreateCharacterRequest
	if err := DecodeJSON(r, &reqs); err != nil {
		WriteErrorCode(w, model.CodeInvalidCharacterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.BulkCreate(ctx, userID, reqs))
}

// BulkUpdate handles PATCH /v1/characters/bulk
func (h *CharacterHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req BulkUpdateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidCharacterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.BulkUpdate(ctx, userID, req.Updates))
}

// BulkDelete handles POST /v1/characters/bulk-delete
func (h *CharacterHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req BulkDeleteRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidCharacterData, "Invalid request body")
		return
	}

	result := h.svc.BulkDelete(ctx, userID, req.IDs)
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}
	WriteNoContent(w)
}

// queryInt parses a numeric query parameter, treating absence or garbage as
// zero so the criteria validation reports the real problem.
func queryInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
