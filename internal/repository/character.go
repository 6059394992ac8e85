package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/critforge/api/internal/database"
	"github.com/critforge/api/internal/model"
)

const characterTable = "character"

// CharacterRepository handles character sheet data access
type CharacterRepository struct {
	db database.Database
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(db database.Database) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create persists a new character. The caller assigns the id.
func (r *CharacterRepository) Create(ctx context.Context, c *model.Character) error {
	fields := []string{
		"owner_id: $owner_id",
		"name: $name",
		"race: $race",
		"size: $size",
		"classes: $classes",
		"ability_scores: $ability_scores",
		"hit_points: $hit_points",
		"armor_class: $armor_class",
		"speed: $speed",
		"proficiency_bonus: $proficiency_bonus",
		"saving_throws: $saving_throws",
		"is_public: $is_public",
		"shared_with: $shared_with",
		"version: $version",
		"created_on: time::now()",
		"updated_on: time::now()",
	}
	vars := map[string]interface{}{
		"id":                recordID(characterTable, c.ID),
		"owner_id":          c.OwnerID,
		"name":              c.Name,
		"race":              c.Race,
		"size":              string(c.Size),
		"classes":           classLevelMaps(c.Classes),
		"ability_scores":    abilityScoreMap(c.AbilityScores),
		"hit_points":        hitPointMap(c.HitPoints),
		"armor_class":       c.ArmorClass,
		"speed":             c.Speed,
		"proficiency_bonus": c.ProficiencyBonus,
		"saving_throws":     savingThrowMap(c.SavingThrows),
		"is_public":         c.IsPublic,
		"shared_with":       stringSliceOrEmpty(c.SharedWith),
		"version":           c.Version,
	}

	if len(c.Skills) > 0 {
		fields = append(fields, "skills: $skills")
		vars["skills"] = c.Skills
	}
	if len(c.Equipment) > 0 {
		fields = append(fields, "equipment: $equipment")
		vars["equipment"] = c.Equipment
	}
	if len(c.Spells) > 0 {
		fields = append(fields, "spells: $spells")
		vars["spells"] = c.Spells
	}
	if c.Backstory != "" {
		fields = append(fields, "backstory: $backstory")
		vars["backstory"] = c.Backstory
	}
	if c.Notes != "" {
		fields = append(fields, "notes: $notes")
		vars["notes"] = c.Notes
	}

	query := fmt.Sprintf("CREATE type::record($id) CONTENT { %s }", strings.Join(fields, ", "))

	if err := r.db.Execute(ctx, query, vars); err != nil {
		return fmt.Errorf("failed to create character: %w", err)
	}
	return nil
}

// GetByID retrieves a character by its bare id. Returns nil when the record
// does not exist.
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*model.Character, error) {
	query := `SELECT * FROM type::record($id)`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"id": recordID(characterTable, id)})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get character: %w", err)
	}

	return parseCharacter(result)
}

// Update applies a field map to a character and bumps its version counter.
func (r *CharacterRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Character, error) {
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	setClause := ""
	vars := map[string]interface{}{"id": recordID(characterTable, id)}
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
		return nil, fmt.Errorf("failed to update character: %w", err)
	}

	return parseCharacter(result)
}

// Delete removes a character
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE type::record($id)`
	if err := r.db.Execute(ctx, query, map[string]interface{}{"id": recordID(characterTable, id)}); err != nil {
		return fmt.Errorf("failed to delete character: %w", err)
	}
	return nil
}

// DeleteMany removes a set of characters atomically: either every record is
// deleted or none are.
func (r *CharacterRepository) DeleteMany(ctx context.Context, ids []string) error {
	batch := database.NewBatch()
	for _, id := range ids {
		batch.Add("DELETE type::record($id)", map[string]interface{}{"id": recordID(characterTable, id)})
	}
	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("failed to delete characters: %w", err)
	}
	return nil
}

// ListByOwner retrieves all characters owned by a user, newest first.
func (r *CharacterRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Character, error) {
	query := `
		SELECT * FROM character
		WHERE owner_id = $owner_id
		ORDER BY created_on DESC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}

	return parseCharacters(result), nil
}

// Search filters a user's characters by the given criteria.
func (r *CharacterRepository) Search(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error) {
	conditions := []string{"owner_id = $owner_id"}
	vars := map[string]interface{}{"owner_id": ownerID}

	if criteria.Name != "" {
		conditions = append(conditions, "string::lowercase(name) CONTAINS string::lowercase($name)")
		vars["name"] = criteria.Name
	}
	if criteria.Race != "" {
		conditions = append(conditions, "string::lowercase(race) = string::lowercase($race)")
		vars["race"] = criteria.Race
	}
	if criteria.Class != "" {
		conditions = append(conditions, "string::lowercase($class) IN classes.name.map(|$n| string::lowercase($n))")
		vars["class"] = criteria.Class
	}
	if criteria.MinLevel > 0 {
		conditions = append(conditions, "math::sum(classes.level) >= $min_level")
		vars["min_level"] = criteria.MinLevel
	}
	if criteria.MaxLevel > 0 {
		conditions = append(conditions, "math::sum(classes.level) <= $max_level")
		vars["max_level"] = criteria.MaxLevel
	}

	query := fmt.Sprintf(`
		SELECT * FROM character
		WHERE %s
		ORDER BY created_on DESC
	`, strings.Join(conditions, " AND "))

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to search characters: %w", err)
	}

	return parseCharacters(result), nil
}

// CountByOwner returns how many characters a user owns.
func (r *CharacterRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	query := `SELECT count() AS count FROM character WHERE owner_id = $owner_id GROUP ALL`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"owner_id": ownerID})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to count characters: %w", err)
	}
	return extractCount(result), nil
}

// Parsing helpers

func parseCharacter(result interface{}) (*model.Character, error) {
	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	c := &model.Character{
		ID:               entityID(data["id"]),
		OwnerID:          getString(data, "owner_id"),
		Name:             getString(data, "name"),
		Race:             getString(data, "race"),
		Size:             model.CharacterSize(getString(data, "size")),
		ArmorClass:       getInt(data, "armor_class"),
		Speed:            getInt(data, "speed"),
		ProficiencyBonus: getInt(data, "proficiency_bonus"),
		Skills:           getBoolMap(data, "skills"),
		Equipment:        getStringSlice(data, "equipment"),
		Spells:           getStringSlice(data, "spells"),
		Backstory:        getString(data, "backstory"),
		Notes:            getString(data, "notes"),
		IsPublic:         getBool(data, "is_public"),
		SharedWith:       getStringSlice(data, "shared_with"),
		Version:          getInt(data, "version"),
	}

	for _, cl := range getMapSlice(data, "classes") {
		c.Classes = append(c.Classes, model.ClassLevel{
			Name:  getString(cl, "name"),
			Level: getInt(cl, "level"),
		})
	}
	if scores := getMap(data, "ability_scores"); scores != nil {
		c.AbilityScores = model.AbilityScores{
			Strength:     getInt(scores, "strength"),
			Dexterity:    getInt(scores, "dexterity"),
			Constitution: getInt(scores, "constitution"),
			Intelligence: getInt(scores, "intelligence"),
			Wisdom:       getInt(scores, "wisdom"),
			Charisma:     getInt(scores, "charisma"),
		}
	}
	if hp := getMap(data, "hit_points"); hp != nil {
		c.HitPoints = parseHitPoints(hp)
	}
	if saves := getMap(data, "saving_throws"); saves != nil {
		c.SavingThrows = model.SavingThrows{
			Strength:     getBool(saves, "strength"),
			Dexterity:    getBool(saves, "dexterity"),
			Constitution: getBool(saves, "constitution"),
			Intelligence: getBool(saves, "intelligence"),
			Wisdom:       getBool(saves, "wisdom"),
			Charisma:     getBool(saves, "charisma"),
		}
	}
	if t := getTime(data, "created_on"); t != nil {
		c.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		c.UpdatedOn = *t
	}

	return c, nil
}

func parseCharacters(result []interface{}) []*model.Character {
	characters := make([]*model.Character, 0)
	for _, row := range unwrapRows(result) {
		c, err := parseCharacter(row)
		if err != nil {
			continue
		}
		characters = append(characters, c)
	}
	return characters
}

func parseHitPoints(m map[string]interface{}) model.HitPoints {
	return model.HitPoints{
		Max:       getInt(m, "max"),
		Current:   getInt(m, "current"),
		Temporary: getInt(m, "temporary"),
	}
}

// Serialization helpers shared with the encounter repository.

func classLevelMaps(classes []model.ClassLevel) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(classes))
	for _, cl := range classes {
		out = append(out, map[string]interface{}{"name": cl.Name, "level": cl.Level})
	}
	return out
}

func abilityScoreMap(a model.AbilityScores) map[string]interface{} {
	return map[string]interface{}{
		"strength":     a.Strength,
		"dexterity":    a.Dexterity,
		"constitution": a.Constitution,
		"intelligence": a.Intelligence,
		"wisdom":       a.Wisdom,
		"charisma":     a.Charisma,
	}
}

func savingThrowMap(s model.SavingThrows) map[string]interface{} {
	return map[string]interface{}{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

func hitPointMap(h model.HitPoints) map[string]interface{} {
	return map[string]interface{}{
		"max":       h.Max,
		"current":   h.Current,
		"temporary": h.Temporary,
	}
}

func stringSliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
