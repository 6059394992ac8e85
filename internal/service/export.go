package service

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/sanitize"
)

// ExportService handles encounter interchange: JSON/XML export, JSON import,
// shareable links, and templates.
type ExportService struct {
	encounterRepo EncounterRepository
	characterRepo CharacterRepository
	userRepo      UserReader
	baseURL       string
	appVersion    string
}

// ExportServiceConfig holds configuration for the export service
type ExportServiceConfig struct {
	EncounterRepo EncounterRepository
	CharacterRepo CharacterRepository
	UserRepo      UserReader
	// BaseURL is prefixed onto generated share links.
	BaseURL string
	// AppVersion is recorded in export metadata.
	AppVersion string
}

// NewExportService creates a new export service
func NewExportService(cfg ExportServiceConfig) *ExportService {
	appVersion := cfg.AppVersion
	if appVersion == "" {
		appVersion = "dev"
	}
	return &ExportService{
		encounterRepo: cfg.EncounterRepo,
		characterRepo: cfg.CharacterRepo,
		userRepo:      cfg.UserRepo,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		appVersion:    appVersion,
	}
}

// ExportToJSON serializes an encounter into the versioned JSON envelope.
func (s *ExportService) ExportToJSON(ctx context.Context, userID, encounterID string, opts model.ExportOptions) model.ServiceResult[[]byte] {
	envelope := Execute(ctx, func(ctx context.Context) (*model.EncounterExport, error) {
		return s.buildEnvelope(ctx, userID, encounterID, model.FormatJSON, opts)
	}, "Failed to export encounter")
	if !envelope.Success {
		return model.Fail[[]byte](envelope.Error)
	}

	return ExecuteSync(func() ([]byte, error) {
		return json.MarshalIndent(envelope.Data, "", "  ")
	}, "Failed to serialize encounter export")
}

// ExportToXML serializes an encounter into the <encounterExport> document,
// declaration header included. Element order is fixed for round-trip
// stability.
func (s *ExportService) ExportToXML(ctx context.Context, userID, encounterID string, opts model.ExportOptions) model.ServiceResult[[]byte] {
	envelope := Execute(ctx, func(ctx context.Context) (*model.EncounterExport, error) {
		return s.buildEnvelope(ctx, userID, encounterID, model.FormatXML, opts)
	}, "Failed to export encounter")
	if !envelope.Success {
		return model.Fail[[]byte](envelope.Error)
	}

	return ExecuteSync(func() ([]byte, error) {
		body, err := xml.MarshalIndent(toXMLExport(envelope.Data), "", "  ")
		if err != nil {
			return nil, err
		}
		return append([]byte(xml.Header), body...), nil
	}, "Failed to serialize encounter export")
}

// ImportFromJSON parses an export envelope and recreates the encounter under
// userID. Combat state is reset and participants get fresh ids; nothing from
// the source account leaks into the copy.
func (s *ExportService) ImportFromJSON(ctx context.Context, userID string, data []byte) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(userID) {
		return model.Failf[*model.Encounter](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}

	parsed := ExecuteWithCustomError(ctx, func(ctx context.Context) (*model.EncounterExport, error) {
		var envelope model.EncounterExport
		if err := json.Unmarshal(data, &envelope); err != nil {
			return nil, err
		}
		return &envelope, nil
	}, model.CodeInvalidJSONFormat, "Failed to import encounter from JSON")
	if !parsed.Success {
		return model.Fail[*model.Encounter](parsed.Error)
	}
	envelope := parsed.Data
	if errs := envelope.Validate(); len(errs) > 0 {
		return model.Failf[*model.Encounter](model.CodeInvalidJSONFormat, "Invalid JSON format: %s", model.JoinFieldErrors(errs))
	}

	if serr := checkEncounterLimit(ctx, s.userRepo, s.encounterRepo, userID); serr != nil {
		return model.Fail[*model.Encounter](serr)
	}

	e := encounterFromEnvelope(userID, envelope)

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		if err := s.encounterRepo.Create(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	}, "Failed to import encounter")
}

// GenerateShareableLink returns the public URL for an encounter. Anyone who
// can view the encounter (owner, shared, or public) may generate the link,
// the same rule exports follow.
func (s *ExportService) GenerateShareableLink(ctx context.Context, userID, encounterID string) model.ServiceResult[string] {
	if !model.IsValidID(encounterID) {
		return model.Failf[string](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if serr := CheckUserID(userID); serr != nil {
		return model.Fail[string](serr)
	}

	return Execute(ctx, func(ctx context.Context) (string, error) {
		e, err := s.encounterRepo.GetByID(ctx, encounterID)
		if err != nil {
			return "", err
		}
		if e == nil {
			return "", model.NewServiceError(model.CodeEncounterNotFound, "Encounter not found")
		}
		if CheckAccess(e, userID) != nil {
			return "", model.NewServiceError(model.CodeUnauthorizedAccess, "You do not have permission to share this encounter")
		}
		return fmt.Sprintf("%s/encounters/shared/%s", s.baseURL, e.ID), nil
	}, "Failed to generate share link")
}

// CreateTemplate copies an encounter into a reusable starting point: a
// private draft with full hit points, no conditions, and no combat history.
func (s *ExportService) CreateTemplate(ctx context.Context, userID, encounterID, templateName string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		source, err := s.encounterRepo.GetByID(ctx, encounterID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return nil, model.NewServiceError(model.CodeEncounterNotFound, "Encounter not found")
		}
		if serr := CheckAccess(source, userID); serr != nil {
			return nil, serr
		}
		if serr := checkEncounterLimit(ctx, s.userRepo, s.encounterRepo, userID); serr != nil {
			return nil, serr
		}

		template := *source
		template.ID = model.NewID()
		template.OwnerID = userID
		template.Status = model.EncounterStatusDraft
		template.IsPublic = false
		template.SharedWith = nil
		template.Version = 1
		template.CombatState.Reset()
		if templateName != "" {
			template.Name = sanitize.Text(templateName)
		} else {
			template.Name = fmt.Sprintf("%s Template", source.Name)
		}
		template.Participants = rekeyParticipants(source.Participants)

		if err := s.encounterRepo.Create(ctx, &template); err != nil {
			return nil, err
		}
		return &template, nil
	}, "Failed to create template")
}

// buildEnvelope loads an encounter, checks access, and applies export options.
func (s *ExportService) buildEnvelope(ctx context.Context, userID, encounterID string, format model.ExportFormat, opts model.ExportOptions) (*model.EncounterExport, error) {
	if !model.IsValidID(encounterID) {
		return nil, model.NewServiceError(model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if serr := CheckUserID(userID); serr != nil {
		return nil, serr
	}

	e, err := s.encounterRepo.GetByID(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, model.NewServiceError(model.CodeEncounterNotFound, "Encounter not found")
	}
	if CheckAccess(e, userID) != nil {
		return nil, model.NewServiceError(model.CodeUnauthorizedAccess, "You do not have permission to export this encounter")
	}

	participants := make([]model.Participant, len(e.Participants))
	copy(participants, e.Participants)
	for i := range participants {
		if !opts.IncludePrivateNotes {
			participants[i].Notes = ""
		}
	}

	exported := model.ExportedEncounter{
		Name:         e.Name,
		Description:  e.Description,
		Tags:         e.Tags,
		Difficulty:   e.Difficulty,
		TargetLevel:  e.TargetLevel,
		Status:       e.Status,
		Participants: participants,
		Settings:     e.Settings,
		CombatState:  e.CombatState,
	}
	// Stripping scopes to personal notes and backstories; structural fields
	// like the description stay in the export.
	if opts.StripPersonalData {
		for i := range exported.Participants {
			exported.Participants[i].Notes = ""
		}
	}

	if opts.IncludeCharacterSheets {
		sheets, err := s.collectCharacterSheets(ctx, userID, e, opts)
		if err != nil {
			return nil, err
		}
		exported.CharacterSheets = sheets
	}

	return &model.EncounterExport{
		Metadata: model.ExportMetadata{
			ExportedAt: time.Now().UTC(),
			ExportedBy: userID,
			Format:     format,
			Version:    model.ExportVersion,
			AppVersion: s.appVersion,
		},
		Encounter: exported,
	}, nil
}

// collectCharacterSheets resolves the character sheets linked from
// participants, skipping sheets the exporting user cannot see.
func (s *ExportService) collectCharacterSheets(ctx context.Context, userID string, e *model.Encounter, opts model.ExportOptions) ([]model.Character, error) {
	seen := make(map[string]bool)
	sheets := make([]model.Character, 0)

	for _, p := range e.Participants {
		if p.CharacterID == nil || seen[*p.CharacterID] {
			continue
		}
		seen[*p.CharacterID] = true

		c, err := s.characterRepo.GetByID(ctx, *p.CharacterID)
		if err != nil {
			return nil, err
		}
		if c == nil || CheckAccess(c, userID) != nil {
			continue
		}

		sheet := *c
		if opts.StripPersonalData {
			sheet.Backstory = ""
			sheet.Notes = ""
		}
		if !opts.IncludePrivateNotes {
			sheet.Notes = ""
		}
		sheets = append(sheets, sheet)
	}

	return sheets, nil
}

// encounterFromEnvelope builds a fresh encounter from an imported envelope.
func encounterFromEnvelope(userID string, envelope *model.EncounterExport) *model.Encounter {
	src := envelope.Encounter

	difficulty := src.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	status := src.Status
	if status == "" {
		status = model.EncounterStatusDraft
	}
	targetLevel := src.TargetLevel
	if targetLevel < model.MinTargetLevel || targetLevel > model.MaxTargetLevel {
		targetLevel = model.MinTargetLevel
	}

	participants := make([]model.Participant, 0, len(src.Participants))
	for _, p := range src.Participants {
		copyP := p
		copyP.ID = model.NewID()
		// Character links are meaningless in the importing account.
		copyP.CharacterID = nil
		copyP.Name = sanitize.Text(p.Name)
		copyP.Notes = sanitize.Text(p.Notes)
		copyP.Conditions = sanitize.TextSlice(append([]string{}, p.Conditions...))
		copyP.HitPoints.Clamp()
		participants = append(participants, copyP)
	}

	e := &model.Encounter{
		ID:           model.NewID(),
		OwnerID:      userID,
		Name:         sanitize.Text(src.Name),
		Description:  sanitize.Text(src.Description),
		Tags:         sanitize.TextSlice(append([]string{}, src.Tags...)),
		Difficulty:   difficulty,
		TargetLevel:  targetLevel,
		Status:       status,
		Participants: participants,
		Settings:     src.Settings,
		Version:      1,
	}
	e.CombatState.Reset()
	return e
}

// toXMLExport maps the envelope onto the fixed-order XML document types.
func toXMLExport(envelope *model.EncounterExport) *model.XMLEncounterExport {
	doc := &model.XMLEncounterExport{
		Metadata: model.XMLExportMetadata{
			ExportedAt: envelope.Metadata.ExportedAt.Format(time.RFC3339),
			ExportedBy: envelope.Metadata.ExportedBy,
			Format:     string(envelope.Metadata.Format),
			Version:    envelope.Metadata.Version,
			AppVersion: envelope.Metadata.AppVersion,
		},
		Name:        envelope.Encounter.Name,
		Description: envelope.Encounter.Description,
		Difficulty:  string(envelope.Encounter.Difficulty),
		TargetLevel: envelope.Encounter.TargetLevel,
		Status:      string(envelope.Encounter.Status),
		Tags:        envelope.Encounter.Tags,
		Settings: model.XMLSettings{
			AutoRollInitiative: envelope.Encounter.Settings.AutoRollInitiative,
			ShowEnemyHP:        envelope.Encounter.Settings.ShowEnemyHP,
			AllowPlayerView:    envelope.Encounter.Settings.AllowPlayerView,
			RoundTimeLimit:     envelope.Encounter.Settings.RoundTimeLimit,
		},
		CombatState: model.XMLCombatState{
			IsActive:     envelope.Encounter.CombatState.IsActive,
			CurrentRound: envelope.Encounter.CombatState.CurrentRound,
			CurrentTurn:  envelope.Encounter.CombatState.CurrentTurn,
		},
	}

	for _, p := range envelope.Encounter.Participants {
		doc.Participants = append(doc.Participants, model.XMLParticipant{
			Name:        p.Name,
			Type:        string(p.Type),
			MaxHP:       p.HitPoints.Max,
			CurrentHP:   p.HitPoints.Current,
			TemporaryHP: p.HitPoints.Temporary,
			ArmorClass:  p.ArmorClass,
			Initiative:  p.Initiative,
			Conditions:  p.Conditions,
			Notes:       p.Notes,
		})
	}

	return doc
}
