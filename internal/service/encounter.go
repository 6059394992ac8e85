package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/sanitize"
)

// EncounterRepository defines the interface for encounter storage
type EncounterRepository interface {
	Create(ctx context.Context, e *model.Encounter) error
	GetByID(ctx context.Context, id string) (*model.Encounter, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error)
	SetParticipants(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Encounter, error)
	ListSharedWith(ctx context.Context, userID string) ([]*model.Encounter, error)
	Search(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) ([]*model.Encounter, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// EncounterService handles encounter business logic
type EncounterService struct {
	encounterRepo EncounterRepository
	userRepo      UserReader
}

// EncounterServiceConfig holds configuration for the encounter service
type EncounterServiceConfig struct {
	EncounterRepo EncounterRepository
	UserRepo      UserReader
}

// NewEncounterService creates a new encounter service
func NewEncounterService(cfg EncounterServiceConfig) *EncounterService {
	return &EncounterService{
		encounterRepo: cfg.EncounterRepo,
		userRepo:      cfg.UserRepo,
	}
}

// Create validates, sanitizes, and persists a new encounter for userID.
// Creation counts against the owner's subscription tier.
func (s *EncounterService) Create(ctx context.Context, userID string, req *model.CreateEncounterRequest) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(userID) {
		return model.Failf[*model.Encounter](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterData, "Invalid encounter data: %s", model.JoinFieldErrors(errs))
	}

	if serr := checkEncounterLimit(ctx, s.userRepo, s.encounterRepo, userID); serr != nil {
		return model.Fail[*model.Encounter](serr)
	}

	e := buildEncounter(userID, req)

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		if err := s.encounterRepo.Create(ctx, e); err != nil {
			return nil, err
		}
		return e, nil
	}, "Failed to create encounter")
}

// Get retrieves an encounter visible to userID.
func (s *EncounterService) Get(ctx context.Context, userID, encounterID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.encounterRepo.GetByID(ctx, encounterID)
		if err != nil {
			return nil, err
		}
		if e == nil {
			return nil, model.NewServiceError(model.CodeEncounterNotFound, "Encounter not found")
		}
		if serr := CheckAccess(e, userID); serr != nil {
			return nil, serr
		}
		return e, nil
	}, "Failed to get encounter")
}

// GetShared retrieves an encounter through a share link. Anonymous viewers
// only see public encounters; authenticated viewers get the regular access
// rules.
func (s *EncounterService) GetShared(ctx context.Context, viewerID, encounterID string) model.ServiceResult[*model.Encounter] {
	if viewerID != "" {
		return s.Get(ctx, viewerID, encounterID)
	}
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.encounterRepo.GetByID(ctx, encounterID)
		if err != nil {
			return nil, err
		}
		if e == nil || !e.IsPublic {
			return nil, model.NewServiceError(model.CodeEncounterNotFound, "Encounter not found")
		}
		return e, nil
	}, "Failed to get encounter")
}

// Update applies a partial update to an encounter owned by userID.
func (s *EncounterService) Update(ctx context.Context, userID, encounterID string, req *model.UpdateEncounterRequest) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterData, "Invalid encounter data: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		existing, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}

		updates := encounterUpdates(req)
		if len(updates) == 0 {
			return existing, nil
		}
		return s.encounterRepo.Update(ctx, encounterID, updates)
	}, "Failed to update encounter")
}

// Delete removes an encounter owned by userID.
func (s *EncounterService) Delete(ctx context.Context, userID, encounterID string) model.ServiceResult[struct{}] {
	if !model.IsValidID(encounterID) {
		return model.Failf[struct{}](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (struct{}, error) {
		if _, err := s.getOwned(ctx, userID, encounterID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, s.encounterRepo.Delete(ctx, encounterID)
	}, "Failed to delete encounter")
}

// List returns every encounter owned by ownerID, newest first.
func (s *EncounterService) List(ctx context.Context, ownerID string) model.ServiceResult[[]*model.Encounter] {
	if !model.IsValidID(ownerID) {
		return model.Failf[[]*model.Encounter](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}

	return Execute(ctx, func(ctx context.Context) ([]*model.Encounter, error) {
		return s.encounterRepo.ListByOwner(ctx, ownerID)
	}, "Failed to list encounters")
}

// ListShared returns encounters other users have shared with userID.
func (s *EncounterService) ListShared(ctx context.Context, userID string) model.ServiceResult[[]*model.Encounter] {
	if !model.IsValidID(userID) {
		return model.Failf[[]*model.Encounter](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) ([]*model.Encounter, error) {
		return s.encounterRepo.ListSharedWith(ctx, userID)
	}, "Failed to list shared encounters")
}

// Search filters ownerID's encounters. At least one criterion is required.
func (s *EncounterService) Search(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) model.ServiceResult[[]*model.Encounter] {
	if !model.IsValidID(ownerID) {
		return model.Failf[[]*model.Encounter](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}
	if criteria == nil || criteria.IsEmpty() {
		return model.Failf[[]*model.Encounter](model.CodeInvalidSearchCriteria, "At least one search criterion must be provided")
	}
	if errs := criteria.Validate(); len(errs) > 0 {
		return model.Failf[[]*model.Encounter](model.CodeInvalidSearchCriteria, "Invalid search criteria: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) ([]*model.Encounter, error) {
		return s.encounterRepo.Search(ctx, ownerID, criteria)
	}, "Failed to search encounters")
}

// Stats aggregates ownerID's encounter collection.
func (s *EncounterService) Stats(ctx context.Context, ownerID string) model.ServiceResult[*model.EncounterStats] {
	if !model.IsValidID(ownerID) {
		return model.Failf[*model.EncounterStats](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.EncounterStats, error) {
		encounters, err := s.encounterRepo.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		stats := &model.EncounterStats{
			Total:        len(encounters),
			ByStatus:     make(map[string]int),
			ByDifficulty: make(map[string]int),
		}
		totalParticipants := 0
		for _, e := range encounters {
			stats.ByStatus[string(e.Status)]++
			stats.ByDifficulty[string(e.Difficulty)]++
			totalParticipants += len(e.Participants)
			if e.CombatState.IsActive {
				stats.ActiveCombats++
			}
			if e.IsPublic {
				stats.PublicCount++
			}
		}
		if stats.Total > 0 {
			stats.AverageParticipants = float64(totalParticipants) / float64(stats.Total)
		}
		return stats, nil
	}, "Failed to compute encounter stats")
}

// ShareWith grants targetUserID view access. The owner is never added to the
// shared list; sharing with the owner is a no-op.
func (s *EncounterService) ShareWith(ctx context.Context, userID, encounterID, targetUserID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if !model.IsValidID(targetUserID) {
		return model.Failf[*model.Encounter](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}
		if targetUserID == e.OwnerID || e.IsSharedWith(targetUserID) {
			return e, nil
		}

		shared := append(append([]string{}, e.SharedWith...), targetUserID)
		return s.encounterRepo.Update(ctx, encounterID, map[string]interface{}{"shared_with": shared})
	}, "Failed to share encounter")
}

// Unshare revokes targetUserID's view access.
func (s *EncounterService) Unshare(ctx context.Context, userID, encounterID, targetUserID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if !model.IsValidID(targetUserID) {
		return model.Failf[*model.Encounter](model.CodeInvalidUserID, "Invalid user ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}
		if !e.IsSharedWith(targetUserID) {
			return e, nil
		}

		shared := make([]string, 0, len(e.SharedWith))
		for _, id := range e.SharedWith {
			if id != targetUserID {
				shared = append(shared, id)
			}
		}
		return s.encounterRepo.Update(ctx, encounterID, map[string]interface{}{"shared_with": shared})
	}, "Failed to unshare encounter")
}

// SetPublic toggles public visibility.
func (s *EncounterService) SetPublic(ctx context.Context, userID, encounterID string, isPublic bool) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		if _, err := s.getOwned(ctx, userID, encounterID); err != nil {
			return nil, err
		}
		return s.encounterRepo.Update(ctx, encounterID, map[string]interface{}{"is_public": isPublic})
	}, "Failed to update encounter visibility")
}

// AddParticipant appends a combatant to an encounter owned by userID.
func (s *EncounterService) AddParticipant(ctx context.Context, userID, encounterID string, input *model.ParticipantInput) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if errs := input.Validate("participant"); len(errs) > 0 {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterData, "Invalid participant data: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}
		if len(e.Participants) >= model.MaxParticipants {
			return nil, model.NewServiceError(model.CodeInvalidEncounterData,
				fmt.Sprintf("Encounter already has the maximum of %d participants", model.MaxParticipants))
		}

		sanitizeParticipantInput(input)
		participants := append(append([]model.Participant{}, e.Participants...), input.ToParticipant())
		return s.encounterRepo.SetParticipants(ctx, encounterID, participants)
	}, "Failed to add participant")
}

// UpdateParticipant replaces a combatant's fields, keeping its id. Hit points
// are clamped so current never exceeds max plus temporary.
func (s *EncounterService) UpdateParticipant(ctx context.Context, userID, encounterID, participantID string, input *model.ParticipantInput) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}
	if errs := input.Validate("participant"); len(errs) > 0 {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterData, "Invalid participant data: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}

		sanitizeParticipantInput(input)
		found := false
		participants := append([]model.Participant{}, e.Participants...)
		for i := range participants {
			if participants[i].ID != participantID {
				continue
			}
			updated := input.ToParticipant()
			updated.ID = participantID
			participants[i] = updated
			found = true
			break
		}
		if !found {
			return nil, model.NewServiceError(model.CodeEncounterNotFound, "Participant not found")
		}

		return s.encounterRepo.SetParticipants(ctx, encounterID, participants)
	}, "Failed to update participant")
}

// RemoveParticipant removes a combatant from an encounter owned by userID.
func (s *EncounterService) RemoveParticipant(ctx context.Context, userID, encounterID, participantID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}

		participants := make([]model.Participant, 0, len(e.Participants))
		removed := false
		for _, p := range e.Participants {
			if p.ID == participantID {
				removed = true
				continue
			}
			participants = append(participants, p)
		}
		if !removed {
			return nil, model.NewServiceError(model.CodeEncounterNotFound, "Participant not found")
		}

		return s.encounterRepo.SetParticipants(ctx, encounterID, participants)
	}, "Failed to remove participant")
}

// StartCombat activates combat: round one, first turn, initiative order
// sorted highest first.
func (s *EncounterService) StartCombat(ctx context.Context, userID, encounterID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}
		if len(e.Participants) == 0 {
			return nil, model.NewServiceError(model.CodeInvalidEncounterData, "Cannot start combat without participants")
		}

		order := make([]model.Participant, len(e.Participants))
		copy(order, e.Participants)
		sort.SliceStable(order, func(i, j int) bool {
			return order[i].Initiative > order[j].Initiative
		})
		ids := make([]string, 0, len(order))
		for _, p := range order {
			ids = append(ids, p.ID)
		}

		return s.encounterRepo.Update(ctx, encounterID, map[string]interface{}{
			"status": string(model.EncounterStatusActive),
			"combat_state": map[string]interface{}{
				"is_active":        true,
				"current_round":    1,
				"current_turn":     0,
				"initiative_order": ids,
			},
		})
	}, "Failed to start combat")
}

// NextTurn advances the turn pointer, rolling into a new round at the end of
// the order.
func (s *EncounterService) NextTurn(ctx context.Context, userID, encounterID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		e, err := s.getOwned(ctx, userID, encounterID)
		if err != nil {
			return nil, err
		}
		if !e.CombatState.IsActive {
			return nil, model.NewServiceError(model.CodeInvalidEncounterData, "Combat is not active")
		}

		turn := e.CombatState.CurrentTurn + 1
		round := e.CombatState.CurrentRound
		if turn >= len(e.CombatState.InitiativeOrder) {
			turn = 0
			round++
		}

		return s.encounterRepo.Update(ctx, encounterID, map[string]interface{}{
			"combat_state": map[string]interface{}{
				"is_active":        true,
				"current_round":    round,
				"current_turn":     turn,
				"initiative_order": e.CombatState.InitiativeOrder,
			},
		})
	}, "Failed to advance turn")
}

// EndCombat deactivates combat and marks the encounter completed.
func (s *EncounterService) EndCombat(ctx context.Context, userID, encounterID string) model.ServiceResult[*model.Encounter] {
	if !model.IsValidID(encounterID) {
		return model.Failf[*model.Encounter](model.CodeInvalidEncounterID, "Invalid encounter ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Encounter, error) {
		if _, err := s.getOwned(ctx, userID, encounterID); err != nil {
			return nil, err
		}

		return s.encounterRepo.Update(ctx, encounterID, map[string]interface{}{
			"status": string(model.EncounterStatusCompleted),
			"combat_state": map[string]interface{}{
				"is_active":        false,
				"current_round":    0,
				"current_turn":     0,
				"initiative_order": []string{},
			},
		})
	}, "Failed to end combat")
}

// Duplicate copies an encounter visible to userID into their collection. The
// copy is a private draft with fresh participant ids and no combat history.
func (s *EncounterService) Duplicate(ctx context.Context, userID, encounterID, newName string) model.ServiceResult[*model.Encounter] {
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

		copyEnc := *source
		copyEnc.ID = model.NewID()
		copyEnc.OwnerID = userID
		copyEnc.Status = model.EncounterStatusDraft
		copyEnc.IsPublic = false
		copyEnc.SharedWith = nil
		copyEnc.Version = 1
		copyEnc.CombatState.Reset()
		if newName != "" {
			copyEnc.Name = sanitize.Text(newName)
		} else {
			copyEnc.Name = fmt.Sprintf("Copy of %s", source.Name)
		}
		copyEnc.Participants = rekeyParticipants(source.Participants)

		if err := s.encounterRepo.Create(ctx, &copyEnc); err != nil {
			return nil, err
		}
		return &copyEnc, nil
	}, "Failed to duplicate encounter")
}

// getOwned fetches an encounter and enforces ownership, translating absence
// and denial into service errors.
func (s *EncounterService) getOwned(ctx context.Context, userID, encounterID string) (*model.Encounter, error) {
	e, err := s.encounterRepo.GetByID(ctx, encounterID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, model.NewServiceError(model.CodeEncounterNotFound, "Encounter not found")
	}
	if serr := CheckOwnership(e, userID); serr != nil {
		return nil, serr
	}
	return e, nil
}

// checkEncounterLimit enforces the owner's subscription tier.
func checkEncounterLimit(ctx context.Context, users UserReader, encounters EncounterRepository, userID string) *model.ServiceError {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return model.NewServiceError(model.CodeDatabaseError, "Failed to load user")
	}
	if user == nil {
		return model.NewServiceError(model.CodeUserNotFound, "User not found")
	}

	count, err := encounters.CountByOwner(ctx, userID)
	if err != nil {
		return model.NewServiceError(model.CodeDatabaseError, "Failed to count encounters")
	}
	limits := user.Tier.Limits()
	if count >= limits.MaxEncounters {
		return model.NewServiceError(model.CodeEncounterLimitExceeded,
			fmt.Sprintf("Encounter limit of %d reached for your subscription tier", limits.MaxEncounters))
	}
	return nil
}

// buildEncounter converts a validated create request into a persisted shape.
// Sanitization happens here, after validation.
func buildEncounter(userID string, req *model.CreateEncounterRequest) *model.Encounter {
	settings := model.EncounterSettings{ShowEnemyHP: false, AllowPlayerView: false}
	if req.Settings != nil {
		settings = *req.Settings
	}

	participants := make([]model.Participant, 0, len(req.Participants))
	for i := range req.Participants {
		input := req.Participants[i]
		sanitizeParticipantInput(&input)
		participants = append(participants, input.ToParticipant())
	}

	return &model.Encounter{
		ID:           model.NewID(),
		OwnerID:      userID,
		Name:         sanitize.Text(req.Name),
		Description:  sanitize.Text(req.Description),
		Tags:         sanitize.TextSlice(req.Tags),
		Difficulty:   model.EncounterDifficulty(req.Difficulty),
		TargetLevel:  req.TargetLevel,
		Status:       model.EncounterStatusDraft,
		IsPublic:     req.IsPublic,
		Participants: participants,
		Settings:     settings,
		Version:      1,
	}
}

// encounterUpdates converts a validated update request into a field map,
// sanitizing free text on the way.
func encounterUpdates(req *model.UpdateEncounterRequest) map[string]interface{} {
	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = sanitize.Text(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = sanitize.Text(*req.Description)
	}
	if req.Tags != nil {
		updates["tags"] = sanitize.TextSlice(req.Tags)
	}
	if req.Difficulty != nil {
		updates["difficulty"] = *req.Difficulty
	}
	if req.TargetLevel != nil {
		updates["target_level"] = *req.TargetLevel
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.Settings != nil {
		updates["settings"] = map[string]interface{}{
			"auto_roll_initiative": req.Settings.AutoRollInitiative,
			"show_enemy_hp":        req.Settings.ShowEnemyHP,
			"allow_player_view":    req.Settings.AllowPlayerView,
			"round_time_limit":     req.Settings.RoundTimeLimit,
		}
	}

	return updates
}

func sanitizeParticipantInput(input *model.ParticipantInput) {
	input.Name = sanitize.Text(input.Name)
	input.Notes = sanitize.Text(input.Notes)
	input.Conditions = sanitize.TextSlice(input.Conditions)
}

// rekeyParticipants deep-copies participants under fresh ids with battle
// history cleared.
func rekeyParticipants(participants []model.Participant) []model.Participant {
	out := make([]model.Participant, 0, len(participants))
	for _, p := range participants {
		copyP := p
		copyP.ID = model.NewID()
		copyP.Conditions = append([]string{}, p.Conditions...)
		copyP.ResetForReuse()
		out = append(out, copyP)
	}
	return out
}
