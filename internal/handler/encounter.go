package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/service"
)

// EncounterHandler handles encounter HTTP requests
type EncounterHandler struct {
	svc *service.EncounterService
}

// NewEncounterHandler creates a new encounter handler
func NewEncounterHandler(svc *service.EncounterService) *EncounterHandler {
	return &EncounterHandler{svc: svc}
}

// ShareRequest identifies the user an encounter is shared with.
type ShareRequest struct {
	UserID string `json:"user_id"`
}

// VisibilityRequest toggles public visibility.
type VisibilityRequest struct {
	IsPublic bool `json:"is_public"`
}

// Encounter Management Endpoints

// Create handles POST /v1/encounters
func (h *EncounterHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req model.CreateEncounterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.Create(ctx, userID, &req))
}

// List handles GET /v1/encounters
func (h *EncounterHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.List(ctx, userID))
}

// ListShared handles GET /v1/encounters/shared
func (h *EncounterHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.ListShared(ctx, userID))
}

// Get handles GET /v1/encounters/{encounterId}
func (h *EncounterHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Get(ctx, userID, r.PathValue("encounterId")))
}

// GetShared handles GET /v1/encounters/shared/{encounterId}. The route sits
// behind optional authentication so share links work without an account.
func (h *EncounterHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)

	Respond(w, http.StatusOK, h.svc.GetShared(ctx, viewerID, r.PathValue("encounterId")))
}

// Update handles PATCH /v1/encounters/{encounterId}
func (h *EncounterHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req model.UpdateEncounterRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.Update(ctx, userID, r.PathValue("encounterId"), &req))
}

// Delete handles DELETE /v1/encounters/{encounterId}
func (h *EncounterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	result := h.svc.Delete(ctx, userID, r.PathValue("encounterId"))
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}
	WriteNoContent(w)
}

// Search handles GET /v1/encounters/search
func (h *EncounterHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	q := r.URL.Query()
	criteria := &model.EncounterSearchCriteria{
		Name:       q.Get("name"),
		Tag:        q.Get("tag"),
		Difficulty: q.Get("difficulty"),
		Status:     q.Get("status"),
		MinLevel:   queryInt(q.Get("min_level")),
		MaxLevel:   queryInt(q.Get("max_level")),
	}

	Respond(w, http.StatusOK, h.svc.Search(ctx, userID, criteria))
}

// Stats handles GET /v1/encounters/stats
func (h *EncounterHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Stats(ctx, userID))
}

// Sharing Endpoints

// Share handles POST /v1/encounters/{encounterId}/share
func (h *EncounterHandler) Share(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req ShareRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.ShareWith(ctx, userID, r.PathValue("encounterId"), req.UserID))
}

// Unshare handles DELETE /v1/encounters/{encounterId}/share/{userId}
func (h *EncounterHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.Unshare(ctx, userID, r.PathValue("encounterId"), r.PathValue("userId")))
}

// SetVisibility handles PUT /v1/encounters/{encounterId}/visibility
func (h *EncounterHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var req VisibilityRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.SetPublic(ctx, userID, r.PathValue("encounterId"), req.IsPublic))
}

// Participant Endpoints

// AddParticipant handles POST /v1/encounters/{encounterId}/participants
func (h *EncounterHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var input model.ParticipantInput
	if err := DecodeJSON(r, &input); err != nil {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.AddParticipant(ctx, userID, r.PathValue("encounterId"), &input))
}

// UpdateParticipant handles PATCH /v1/encounters/{encounterId}/participants/{participantId}
func (h *EncounterHandler) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	var input model.ParticipantInput
	if err := DecodeJSON(r, &input); err != nil {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusOK, h.svc.UpdateParticipant(ctx, userID, r.PathValue("encounterId"), r.PathValue("participantId"), &input))
}

// RemoveParticipant handles DELETE /v1/encounters/{encounterId}/participants/{participantId}
func (h *EncounterHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.RemoveParticipant(ctx, userID, r.PathValue("encounterId"), r.PathValue("participantId")))
}

// Combat Endpoints

// StartCombat handles POST /v1/encounters/{encounterId}/combat/start
func (h *EncounterHandler) StartCombat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.StartCombat(ctx, userID, r.PathValue("encounterId")))
}

// NextTurn handles POST /v1/encounters/{encounterId}/combat/next
func (h *EncounterHandler) NextTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.NextTurn(ctx, userID, r.PathValue("encounterId")))
}

// EndCombat handles POST /v1/encounters/{encounterId}/combat/end
func (h *EncounterHandler) EndCombat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	Respond(w, http.StatusOK, h.svc.EndCombat(ctx, userID, r.PathValue("encounterId")))
}

// Duplicate handles POST /v1/encounters/{encounterId}/duplicate
func (h *EncounterHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	// The body is optional; an empty body duplicates with the default name.
	var req CloneRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.Duplicate(ctx, userID, r.PathValue("encounterId"), req.Name))
}
