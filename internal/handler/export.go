package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/service"
)

// maxImportBytes caps the accepted size of an uploaded export file.
const maxImportBytes = 4 << 20

// ExportHandler handles encounter export, import, and template endpoints
type ExportHandler struct {
	svc *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// TemplateRequest carries the optional name for a new template.
type TemplateRequest struct {
	Name string `json:"name,omitempty"`
}

// Export handles GET /v1/encounters/{encounterId}/export. The format query
// parameter selects json (default) or xml; the remaining parameters map to
// export options.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}
	encounterID := r.PathValue("encounterId")

	q := r.URL.Query()
	opts := model.ExportOptions{
		IncludeCharacterSheets: q.Get("include_character_sheets") == "true",
		StripPersonalData:      q.Get("strip_personal_data") == "true",
		IncludePrivateNotes:    q.Get("include_private_notes") == "true",
	}

	format := q.Get("format")
	if format == "" {
		format = string(model.FormatJSON)
	}

	var result model.ServiceResult[[]byte]
	var contentType string
	switch format {
	case string(model.FormatJSON):
		result = h.svc.ExportToJSON(ctx, userID, encounterID, opts)
		contentType = "application/json"
	case string(model.FormatXML):
		result = h.svc.ExportToXML(ctx, userID, encounterID, opts)
		contentType = "application/xml"
	default:
		WriteErrorCode(w, model.CodeInvalidJSONFormat, "Export format must be json or xml")
		return
	}

	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "encounter-"+encounterID+"."+format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// Import handles POST /v1/encounters/import. The body is a raw export
// envelope as produced by the JSON export.
func (h *ExportHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		WriteErrorCode(w, model.CodeInvalidJSONFormat, "Failed to read request body")
		return
	}
	if len(data) > maxImportBytes {
		WriteErrorCode(w, model.CodeInvalidJSONFormat, "Import file is too large")
		return
	}

	Respond(w, http.StatusCreated, h.svc.ImportFromJSON(ctx, userID, data))
}

// ShareLink handles POST /v1/encounters/{encounterId}/share-link
func (h *ExportHandler) ShareLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	result := h.svc.GenerateShareableLink(ctx, userID, r.PathValue("encounterId"))
	if !result.Success {
		WriteFailure(w, result.Error)
		return
	}

	WriteJSON(w, http.StatusCreated, model.OK(map[string]string{"url": result.Data}))
}

// CreateTemplate handles POST /v1/encounters/{encounterId}/template
func (h *ExportHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		writeAuthRequired(w)
		return
	}

	// The body is optional; an empty body names the template after the
	// source encounter.
	var req TemplateRequest
	if err := DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		WriteErrorCode(w, model.CodeInvalidEncounterData, "Invalid request body")
		return
	}

	Respond(w, http.StatusCreated, h.svc.CreateTemplate(ctx, userID, r.PathValue("encounterId"), req.Name))
}
