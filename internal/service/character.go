package service

import (
	"context"
	"fmt"

	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/sanitize"
)

// CharacterRepository defines the interface for character storage
type CharacterRepository interface {
	Create(ctx context.Context, c *model.Character) error
	GetByID(ctx context.Context, id string) (*model.Character, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Character, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Character, error)
	Search(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// UserReader is the slice of user storage the entity services need for tier
// limit checks.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// CharacterService handles character sheet business logic
type CharacterService struct {
	characterRepo CharacterRepository
	userRepo      UserReader
}

// CharacterServiceConfig holds configuration for the character service
type CharacterServiceConfig struct {
	CharacterRepo CharacterRepository
	UserRepo      UserReader
}

// NewCharacterService creates a new character service
func NewCharacterService(cfg CharacterServiceConfig) *CharacterService {
	return &CharacterService{
		characterRepo: cfg.CharacterRepo,
		userRepo:      cfg.UserRepo,
	}
}

// Create validates, sanitizes, and persists a new character for userID.
// Creation counts against the owner's subscription tier.
func (s *CharacterService) Create(ctx context.Context, userID string, req *model.CreateCharacterRequest) model.ServiceResult[*model.Character] {
	if !model.IsValidID(userID) {
		return model.Failf[*model.Character](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return model.Failf[*model.Character](model.CodeInvalidCharacterData, "Invalid character data: %s", model.JoinFieldErrors(errs))
	}
	if errs := req.ValidateLevels(); len(errs) > 0 {
		return model.Failf[*model.Character](model.CodeInvalidCharacterLevel, "Invalid character level: %s", model.JoinFieldErrors(errs))
	}

	if serr := s.checkCharacterLimit(ctx, userID); serr != nil {
		return model.Fail[*model.Character](serr)
	}

	c := s.buildCharacter(userID, req)

	return Execute(ctx, func(ctx context.Context) (*model.Character, error) {
		if err := s.characterRepo.Create(ctx, c); err != nil {
			return nil, err
		}
		return c, nil
	}, "Failed to create character")
}

// Get retrieves a character visible to userID.
func (s *CharacterService) Get(ctx context.Context, userID, characterID string) model.ServiceResult[*model.Character] {
	if !model.IsValidID(characterID) {
		return model.Failf[*model.Character](model.CodeInvalidCharacterID, "Invalid character ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Character, error) {
		c, err := s.characterRepo.GetByID(ctx, characterID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, model.NewServiceError(model.CodeCharacterNotFound, "Character not found")
		}
		if serr := CheckAccess(c, userID); serr != nil {
			return nil, serr
		}
		return c, nil
	}, "Failed to get character")
}

// Update applies a partial update to a character owned by userID.
func (s *CharacterService) Update(ctx context.Context, userID, characterID string, req *model.UpdateCharacterRequest) model.ServiceResult[*model.Character] {
	if !model.IsValidID(characterID) {
		return model.Failf[*model.Character](model.CodeInvalidCharacterID, "Invalid character ID format")
	}
	if errs := req.Validate(); len(errs) > 0 {
		return model.Failf[*model.Character](model.CodeInvalidCharacterData, "Invalid character data: %s", model.JoinFieldErrors(errs))
	}
	if errs := req.ValidateLevels(); len(errs) > 0 {
		return model.Failf[*model.Character](model.CodeInvalidCharacterLevel, "Invalid character level: %s", model.JoinFieldErrors(errs))
	}

	return Execute(ctx, func(ctx context.Context) (*model.Character, error) {
		existing, err := s.characterRepo.GetByID(ctx, characterID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, model.NewServiceError(model.CodeCharacterNotFound, "Character not found")
		}
		if serr := CheckOwnership(existing, userID); serr != nil {
			return nil, serr
		}

		updates := characterUpdates(req)
		if len(updates) == 0 {
			return existing, nil
		}
		return s.characterRepo.Update(ctx, characterID, updates)
	}, "Failed to update character")
}

// Delete removes a character owned by userID.
func (s *CharacterService) Delete(ctx context.Context, userID, characterID string) model.ServiceResult[struct{}] {
	if !model.IsValidID(characterID) {
		return model.Failf[struct{}](model.CodeInvalidCharacterID, "Invalid character ID format")
	}

	return Execute(ctx, func(ctx context.Context) (struct{}, error) {
		existing, err := s.characterRepo.GetByID(ctx, characterID)
		if err != nil {
			return struct{}{}, err
		}
		if existing == nil {
			return struct{}{}, model.NewServiceError(model.CodeCharacterNotFound, "Character not found")
		}
		if serr := CheckOwnership(existing, userID); serr != nil {
			return struct{}{}, serr
		}
		return struct{}{}, s.characterRepo.Delete(ctx, characterID)
	}, "Failed to delete character")
}

// List returns every character owned by ownerID, newest first.
func (s *CharacterService) List(ctx context.Context, ownerID string) model.ServiceResult[[]*model.Character] {
	if !model.IsValidID(ownerID) {
		return model.Failf[[]*model.Character](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}

	return Execute(ctx, func(ctx context.Context) ([]*model.Character, error) {
		return s.characterRepo.ListByOwner(ctx, ownerID)
	}, "Failed to list characters")
}

// Search filters ownerID's characters. At least one criterion is required.
func (s *CharacterService) Search(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) model.ServiceResult[[]*model.Character] {
	checks := []func() *model.ServiceError{
		func() *model.ServiceError {
			if !model.IsValidID(ownerID) {
				return model.NewServiceError(model.CodeInvalidOwnerID, "Invalid owner ID format")
			}
			return nil
		},
		func() *model.ServiceError {
			if criteria == nil || criteria.IsEmpty() {
				return model.NewServiceError(model.CodeInvalidSearchCriteria, "At least one search criterion must be provided")
			}
			return nil
		},
		func() *model.ServiceError {
			if errs := criteria.Validate(); len(errs) > 0 {
				return model.NewServiceError(model.CodeInvalidSearchCriteria,
					fmt.Sprintf("Invalid search criteria: %s", model.JoinFieldErrors(errs)))
			}
			return nil
		},
	}

	return ExecuteWithChecks(ctx, checks, func(ctx context.Context) ([]*model.Character, error) {
		return s.characterRepo.Search(ctx, ownerID, criteria)
	}, "Failed to search characters")
}

// Stats aggregates ownerID's character collection.
func (s *CharacterService) Stats(ctx context.Context, ownerID string) model.ServiceResult[*model.CharacterStats] {
	if !model.IsValidID(ownerID) {
		return model.Failf[*model.CharacterStats](model.CodeInvalidOwnerID, "Invalid owner ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.CharacterStats, error) {
		characters, err := s.characterRepo.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		stats := &model.CharacterStats{
			Total:             len(characters),
			ClassDistribution: make(map[string]int),
		}
		totalLevels := 0
		for _, c := range characters {
			totalLevels += c.TotalLevel()
			for _, cl := range c.Classes {
				stats.ClassDistribution[cl.Name]++
			}
			if c.IsPublic {
				stats.PublicCount++
			}
		}
		if stats.Total > 0 {
			stats.AverageLevel = float64(totalLevels) / float64(stats.Total)
		}
		return stats, nil
	}, "Failed to compute character stats")
}

// Clone copies a character visible to userID into userID's collection. The
// copy is private, starts at version 1, and counts against the tier limit.
func (s *CharacterService) Clone(ctx context.Context, userID, characterID, newName string) model.ServiceResult[*model.Character] {
	if !model.IsValidID(characterID) {
		return model.Failf[*model.Character](model.CodeInvalidCharacterID, "Invalid character ID format")
	}

	return Execute(ctx, func(ctx context.Context) (*model.Character, error) {
		source, err := s.characterRepo.GetByID(ctx, characterID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			return nil, model.NewServiceError(model.CodeCharacterNotFound, "Character not found")
		}
		if serr := CheckAccess(source, userID); serr != nil {
			return nil, serr
		}
		if serr := s.checkCharacterLimit(ctx, userID); serr != nil {
			return nil, serr
		}

		clone := *source
		clone.ID = model.NewID()
		clone.OwnerID = userID
		clone.IsPublic = false
		clone.SharedWith = nil
		clone.Version = 1
		if newName != "" {
			clone.Name = sanitize.Text(newName)
		} else {
			clone.Name = fmt.Sprintf("Copy of %s", source.Name)
		}

		if err := s.characterRepo.Create(ctx, &clone); err != nil {
			return nil, err
		}
		return &clone, nil
	}, "Failed to clone character")
}

// BulkCreate creates characters independently: valid entries succeed even
// when others fail.
func (s *CharacterService) BulkCreate(ctx context.Context, userID string, reqs []*model.CreateCharacterRequest) model.ServiceResult[BulkResult[*model.Character]] {
	if len(reqs) == 0 {
		return model.Failf[BulkResult[*model.Character]](model.CodeNoCharactersProvided, "No characters provided")
	}

	return ExecuteBulk(ctx, reqs, func(ctx context.Context, req *model.CreateCharacterRequest) model.ServiceResult[*model.Character] {
		return s.Create(ctx, userID, req)
	})
}

// CharacterUpdate pairs a character id with its partial update for bulk
// operations.
type CharacterUpdate struct {
	ID      string                        `json:"id"`
	Request *model.UpdateCharacterRequest `json:"request"`
}

// BulkUpdate applies updates independently: valid entries succeed even when
// others fail.
func (s *CharacterService) BulkUpdate(ctx context.Context, userID string, updates []CharacterUpdate) model.ServiceResult[BulkResult[*model.Character]] {
	if len(updates) == 0 {
		return model.Failf[BulkResult[*model.Character]](model.CodeNoCharactersProvided, "No characters provided")
	}

	return ExecuteBulk(ctx, updates, func(ctx context.Context, u CharacterUpdate) model.ServiceResult[*model.Character] {
		return s.Update(ctx, userID, u.ID, u.Request)
	})
}

// BulkDelete removes a set of characters atomically. Every id must be valid,
// every character must exist, and userID must own them all; otherwise nothing
// is deleted.
func (s *CharacterService) BulkDelete(ctx context.Context, userID string, ids []string) model.ServiceResult[struct{}] {
	if len(ids) == 0 {
		return model.Failf[struct{}](model.CodeNoCharactersProvided, "No characters provided")
	}
	for _, id := range ids {
		if !model.IsValidID(id) {
			return model.Failf[struct{}](model.CodeInvalidCharacterID, "Invalid character ID format")
		}
	}

	owned := make([]model.Owned, 0, len(ids))
	steps := []func(context.Context) *model.ServiceError{
		func(ctx context.Context) *model.ServiceError {
			for _, id := range ids {
				c, err := s.characterRepo.GetByID(ctx, id)
				if err != nil {
					return model.NewServiceError(model.CodeDatabaseError,
						fmt.Sprintf("Failed to delete characters: %s", err))
				}
				if c == nil {
					return model.NewServiceError(model.CodeCharacterNotFound, "Character not found")
				}
				owned = append(owned, c)
			}
			return nil
		},
		func(ctx context.Context) *model.ServiceError {
			return CheckMultipleOwnership(owned, userID)
		},
	}

	return ExecuteSequence(ctx, steps, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.characterRepo.DeleteMany(ctx, ids)
	}, "Failed to delete characters")
}

// checkCharacterLimit enforces the owner's subscription tier.
func (s *CharacterService) checkCharacterLimit(ctx context.Context, userID string) *model.ServiceError {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return model.NewServiceError(model.CodeDatabaseError, "Failed to load user")
	}
	if user == nil {
		return model.NewServiceError(model.CodeUserNotFound, "User not found")
	}

	count, err := s.characterRepo.CountByOwner(ctx, userID)
	if err != nil {
		return model.NewServiceError(model.CodeDatabaseError, "Failed to count characters")
	}
	limits := user.Tier.Limits()
	if count >= limits.MaxCharacters {
		return model.NewServiceError(model.CodeCharacterLimitExceeded,
			fmt.Sprintf("Character limit of %d reached for your subscription tier", limits.MaxCharacters))
	}
	return nil
}

// buildCharacter converts a validated create request into a persisted shape.
// Sanitization happens here, after validation.
func (s *CharacterService) buildCharacter(userID string, req *model.CreateCharacterRequest) *model.Character {
	size := model.CharacterSize(req.Size)
	if size == "" {
		size = model.SizeMedium
	}

	classes := make([]model.ClassLevel, 0, len(req.Classes))
	total := 0
	for _, cl := range req.Classes {
		classes = append(classes, model.ClassLevel{Name: sanitize.Text(cl.Name), Level: cl.Level})
		total += cl.Level
	}

	c := &model.Character{
		ID:               model.NewID(),
		OwnerID:          userID,
		Name:             sanitize.Text(req.Name),
		Race:             sanitize.Text(req.Race),
		Size:             size,
		Classes:          classes,
		AbilityScores:    req.AbilityScores,
		HitPoints:        req.HitPoints,
		ArmorClass:       req.ArmorClass,
		Speed:            req.Speed,
		ProficiencyBonus: proficiencyBonus(total),
		SavingThrows:     req.SavingThrows,
		Skills:           req.Skills,
		Equipment:        sanitize.TextSlice(req.Equipment),
		Spells:           sanitize.TextSlice(req.Spells),
		Backstory:        sanitize.Text(req.Backstory),
		Notes:            sanitize.Text(req.Notes),
		IsPublic:         req.IsPublic,
		Version:          1,
	}
	c.HitPoints.Clamp()
	return c
}

// characterUpdates converts a validated update request into a field map,
// sanitizing free text on the way.
func characterUpdates(req *model.UpdateCharacterRequest) map[string]interface{} {
	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = sanitize.Text(*req.Name)
	}
	if req.Race != nil {
		updates["race"] = sanitize.Text(*req.Race)
	}
	if req.Size != nil && *req.Size != "" {
		updates["size"] = *req.Size
	}
	if req.Classes != nil {
		classes := make([]map[string]interface{}, 0, len(req.Classes))
		for _, cl := range req.Classes {
			classes = append(classes, map[string]interface{}{"name": sanitize.Text(cl.Name), "level": cl.Level})
		}
		updates["classes"] = classes
	}
	if req.AbilityScores != nil {
		updates["ability_scores"] = map[string]interface{}{
			"strength":     req.AbilityScores.Strength,
			"dexterity":    req.AbilityScores.Dexterity,
			"constitution": req.AbilityScores.Constitution,
			"intelligence": req.AbilityScores.Intelligence,
			"wisdom":       req.AbilityScores.Wisdom,
			"charisma":     req.AbilityScores.Charisma,
		}
	}
	if req.HitPoints != nil {
		hp := *req.HitPoints
		hp.Clamp()
		updates["hit_points"] = map[string]interface{}{
			"max":       hp.Max,
			"current":   hp.Current,
			"temporary": hp.Temporary,
		}
	}
	if req.ArmorClass != nil {
		updates["armor_class"] = *req.ArmorClass
	}
	if req.Speed != nil {
		updates["speed"] = *req.Speed
	}
	if req.SavingThrows != nil {
		updates["saving_throws"] = map[string]interface{}{
			"strength":     req.SavingThrows.Strength,
			"dexterity":    req.SavingThrows.Dexterity,
			"constitution": req.SavingThrows.Constitution,
			"intelligence": req.SavingThrows.Intelligence,
			"wisdom":       req.SavingThrows.Wisdom,
			"charisma":     req.SavingThrows.Charisma,
		}
	}
	if req.Skills != nil {
		updates["skills"] = req.Skills
	}
	if req.Equipment != nil {
		updates["equipment"] = sanitize.TextSlice(req.Equipment)
	}
	if req.Spells != nil {
		updates["spells"] = sanitize.TextSlice(req.Spells)
	}
	if req.Backstory != nil {
		updates["backstory"] = sanitize.Text(*req.Backstory)
	}
	if req.Notes != nil {
		updates["notes"] = sanitize.Text(*req.Notes)
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	return updates
}

// proficiencyBonus derives the bonus from a combined character level.
func proficiencyBonus(totalLevel int) int {
	if totalLevel < 1 {
		return 2
	}
	return 2 + (totalLevel-1)/4
}
