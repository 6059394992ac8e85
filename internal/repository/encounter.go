package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/critforge/api/internal/database"
	"github.com/critforge/api/internal/model"
)

const encounterTable = "encounter"

// EncounterRepository handles encounter data access
type EncounterRepository struct {
	db database.Database
}

// NewEncounterRepository creates a new encounter repository
func NewEncounterRepository(db database.Database) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// Create persists a new encounter with its participants. The caller assigns
// the id.
func (r *EncounterRepository) Create(ctx context.Context, e *model.Encounter) error {
	fields := []string{
		"owner_id: $owner_id",
		"name: $name",
		"difficulty: $difficulty",
		"target_level: $target_level",
		"status: $status",
		"is_public: $is_public",
		"shared_with: $shared_with",
		"participants: $participants",
		"settings: $settings",
		"combat_state: $combat_state",
		"version: $version",
		"created_on: time::now()",
		"updated_on: time::now()",
	}
	vars := map[string]interface{}{
		"id":           recordID(encounterTable, e.ID),
		"owner_id":     e.OwnerID,
		"name":         e.Name,
		"difficulty":   string(e.Difficulty),
		"target_level": e.TargetLevel,
		"status":       string(e.Status),
		"is_public":    e.IsPublic,
		"shared_with":  stringSliceOrEmpty(e.SharedWith),
		"participants": participantMaps(e.Participants),
		"settings":     settingsMap(e.Settings),
		"combat_state": combatStateMap(e.CombatState),
		"version":      e.Version,
	}

	if e.Description != "" {
		fields = append(fields, "description: $description")
		vars["description"] = e.Description
	}
	if len(e.Tags) > 0 {
		fields = append(fields, "tags: $tags")
		vars["tags"] = e.Tags
	}

	query := fmt.Sprintf("CREATE type::record($id) CONTENT { %s }", strings.Join(fields, ", "))

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to create encounter: %w", err)
	}
	return nil
}

// GetByID retrieves an encounter by its bare id. Returns nil when the record
// does not exist.
func (r *EncounterRepository) GetByID(ctx context.Context, id string) (*model.Encounter, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": recordID(encounterTable, id)})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get encounter: %w", err)
	}

	return parseEncounter(result)
}

// Update applies a field map to an encounter and bumps its version counter.
func (r *EncounterRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error) {
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	setClause := ""
	vars := map[string]interface{}{"id": recordID(encounterTable, id)}
	i := 0
	for key, value := range updates {
		if i > 0 {
			setClause += ", "
		}
		varName := fmt.Sprintf("v%d", i)
		setClause += fmt.Sprintf("%s = $%s", key, varName)
		vars[varName] = value
		i++
	}

	query := fmt.Sprintf(`
		UPDATE type::record($id) SET %s, version = version + 1, updated_on = time::now()
		RETURN AFTER
	`, setClause)

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update encounter: %w", err)
	}

	return parseEncounter(result)
}

// SetParticipants replaces the participant list wholesale.
func (r *EncounterRepository) SetParticipants(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error) {
	return r.Update(ctx, id, map[string]interface{}{
		"participants": participantMaps(participants),
	})
}

// Delete removes an encounter
func (r *EncounterRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	if err := r.db.Execute(ctx, query, map[string]interface{}{"id": recordID(encounterTable, id)}); err != nil {
		return fmt.Errorf("failed to delete encounter: %w", err)
	}
	return nil
}

// DeleteMany removes a set of encounters atomically: either every record is
// deleted or none are.
func (r *EncounterRepository) DeleteMany(ctx context.Context, ids []string) error {
	batch := database.NewBatch()
	for _, id := range ids {
		batch.Add("DELETE type::record($id)", map[string]interface{}{"id": recordID(encounterTable, id)})
	}
	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to delete encounters: %w", err)
	}
	return nil
}

// ListByOwner retrieves all encounters owned by a user, newest first.
func (r *EncounterRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Encounter, error) {
	query := `
		SELECT * FROM encounter
		WHERE owner_id = $owner_id
		ORDER BY created_on DESC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list encounters: %w", err)
	}

	return parseEncounters(result), nil
}

// ListSharedWith retrieves encounters shared with a user, newest first.
func (r *EncounterRepository) ListSharedWith(ctx context.Context, userID string) ([]*model.Encounter, error) {
	query := `
		SELECT * FROM encounter
		WHERE $user_id IN shared_with
		ORDER BY created_on DESC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list shared encounters: %w", err)
	}

	return parseEncounters(result), nil
}

// Search filters a user's encounters by the given criteria.
func (r *EncounterRepository) Search(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) ([]*model.Encounter, error) {
	conditions := []string{"owner_id = $owner_id"}
	vars := map[string]interface{}{"owner_id": ownerID}

	if criteria.Name != "" {
		conditions = append(conditions, "string::lowercase(name) CONTAINS string::lowercase($name)")
		vars["name"] = criteria.Name
	}
	if criteria.Tag != "" {
		conditions = append(conditions, "$tag IN tags")
		vars["tag"] = criteria.Tag
	}
	if criteria.Difficulty != "" {
		conditions = append(conditions, "difficulty = $difficulty")
		vars["difficulty"] = criteria.Difficulty
	}
	if criteria.Status != "" {
		conditions = append(conditions, "status = $status")
		vars["status"] = criteria.Status
	}
	if criteria.MinLevel > 0 {
		conditions = append(conditions, "target_level >= $min_level")
		vars["min_level"] = criteria.MinLevel
	}
	if criteria.MaxLevel > 0 {
		conditions = append(conditions, "target_level <= $max_level")
		vars["max_level"] = criteria.MaxLevel
	}

	query := fmt.Sprintf(`
		SELECT * FROM encounter
		WHERE %s
		ORDER BY created_on DESC
	`, strings.Join(conditions, " AND "))

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to search encounters: %w", err)
	}

	return parseEncounters(result), nil
}

// CountByOwner returns how many encounters a user owns.
func (r *EncounterRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	query := `SELECT count() AS count FROM encounter WHERE owner_id = $owner_id GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count encounters: %w", err)
	}
	return extractCount(result), nil
}

// Parsing helpers

func parseEncounter(result interface{}) (*model.Encounter, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	e := &model.Encounter{
		ID:          entityID(data["id"]),
		OwnerID:     getString(data, "owner_id"),
		Name:        getString(data, "name"),
		Description: getString(data, "description"),
		Tags:        getStringSlice(data, "tags"),
		Difficulty:  model.EncounterDifficulty(getString(data, "difficulty")),
		TargetLevel: getInt(data, "target_level"),
		Status:      model.EncounterStatus(getString(data, "status")),
		IsPublic:    getBool(data, "is_public"),
		SharedWith:  getStringSlice(data, "shared_with"),
		Version:     getInt(data, "version"),
	}

	for _, p := range getMapSlice(data, "participants") {
		e.Participants = append(e.Participants, parseParticipant(p))
	}
	if settings := getMap(data, "settings"); settings != nil {
		e.Settings = model.EncounterSettings{
			AutoRollInitiative: getBool(settings, "auto_roll_initiative"),
			ShowEnemyHP:        getBool(settings, "show_enemy_hp"),
			AllowPlayerView:    getBool(settings, "allow_player_view"),
			RoundTimeLimit:     getInt(settings, "round_time_limit"),
		}
	}
	if combat := getMap(data, "combat_state"); combat != nil {
		e.CombatState = model.CombatState{
			IsActive:        getBool(combat, "is_active"),
			CurrentRound:    getInt(combat, "current_round"),
			CurrentTurn:     getInt(combat, "current_turn"),
			InitiativeOrder: getStringSlice(combat, "initiative_order"),
		}
	}
	if t := getTime(data, "created_on"); t != nil {
		e.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		e.UpdatedOn = *t
	}

	return e, nil
}

func parseEncounters(result []interface{}) []*model.Encounter {
	encounters := make([]*model.Encounter, 0)
	for _, row := range unwrapRows(result) {
		e, err := parseEncounter(row)
		if err != nil {
			continue
		}
		encounters = append(encounters, e)
	}
	return encounters
}

func parseParticipant(m map[string]interface{}) model.Participant {
	p := model.Participant{
		ID:          getString(m, "id"),
		CharacterID: getStringPtr(m, "character_id"),
		Name:        getString(m, "name"),
		Type:        model.ParticipantType(getString(m, "type")),
		ArmorClass:  getInt(m, "armor_class"),
		Initiative:  getInt(m, "initiative"),
		Conditions:  getStringSlice(m, "conditions"),
		Notes:       getString(m, "notes"),
		IsVisible:   getBool(m, "is_visible"),
	}
	if hp := getMap(m, "hit_points"); hp != nil {
		p.HitPoints = parseHitPoints(hp)
	}
	return p
}

// Serialization helpers

func participantMaps(participants []model.Participant) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(participants))
	for _, p := range participants {
		m := map[string]interface{}{
			"id":          p.ID,
			"name":        p.Name,
			"type":        string(p.Type),
			"hit_points":  hitPointMap(p.HitPoints),
			"armor_class": p.ArmorClass,
			"initiative":  p.Initiative,
			"conditions":  stringSliceOrEmpty(p.Conditions),
			"notes":       p.Notes,
			"is_visible":  p.IsVisible,
		}
		if p.CharacterID != nil {
			m["character_id"] = *p.CharacterID
		}
		out = append(out, m)
	}
	return out
}

func settingsMap(s model.EncounterSettings) map[string]interface{} {
	return map[string]interface{}{
		"auto_roll_initiative": s.AutoRollInitiative,
		"show_enemy_hp":        s.ShowEnemyHP,
		"allow_player_view":    s.AllowPlayerView,
		"round_time_limit":     s.RoundTimeLimit,
	}
}

func combatStateMap(c model.CombatState) map[string]interface{} {
	return map[string]interface{}{
		"is_active":        c.IsActive,
		"current_round":    c.CurrentRound,
		"current_turn":     c.CurrentTurn,
		"initiative_order": stringSliceOrEmpty(c.InitiativeOrder),
	}
}
