package model

import (
	"fmt"
	"time"
)

// CharacterSize represents a creature size category
type CharacterSize string

const (
	SizeTiny       CharacterSize = "tiny"
	SizeSmall      CharacterSize = "small"
	SizeMedium     CharacterSize = "medium"
	SizeLarge      CharacterSize = "large"
	SizeHuge       CharacterSize = "huge"
	SizeGargantuan CharacterSize = "gargantuan"
)

// ValidSizes lists every accepted size category.
var ValidSizes = []CharacterSize{SizeTiny, SizeSmall, SizeMedium, SizeLarge, SizeHuge, SizeGargantuan}

// ClassLevel is one class/level pair on a character sheet. Multiclassing is a
// list of these; the combined level is capped at MaxCharacterLevel.
type ClassLevel struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// AbilityScores holds the six named ability scores.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// each returns the scores paired with their field names, for validation.
func (a AbilityScores) each() map[string]int {
	return map[string]int{
		"strength":     a.Strength,
		"dexterity":    a.Dexterity,
		"constitution": a.Constitution,
		"intelligence": a.Intelligence,
		"wisdom":       a.Wisdom,
		"charisma":     a.Charisma,
	}
}

// SavingThrows holds the six saving-throw proficiency flags.
type SavingThrows struct {
	Strength     bool `json:"strength"`
	Dexterity    bool `json:"dexterity"`
	Constitution bool `json:"constitution"`
	Intelligence bool `json:"intelligence"`
	Wisdom       bool `json:"wisdom"`
	Charisma     bool `json:"charisma"`
}

// HitPoints is the max/current/temporary hit point triple.
type HitPoints struct {
	Max       int `json:"max"`
	Current   int `json:"current"`
	Temporary int `json:"temporary"`
}

// Clamp enforces current <= max + temporary and keeps all values non-negative.
func (h *HitPoints) Clamp() {
	if h.Max < 0 {
		h.Max = 0
	}
	if h.Temporary < 0 {
		h.Temporary = 0
	}
	if h.Current < 0 {
		h.Current = 0
	}
	if ceiling := h.Max + h.Temporary; h.Current > ceiling {
		h.Current = ceiling
	}
}

// Character is a persisted character sheet.
type Character struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"owner_id"`
	Name             string          `json:"name"`
	Race             string          `json:"race"`
	Size             CharacterSize   `json:"size"`
	Classes          []ClassLevel    `json:"classes"`
	AbilityScores    AbilityScores   `json:"ability_scores"`
	HitPoints        HitPoints       `json:"hit_points"`
	ArmorClass       int             `json:"armor_class"`
	Speed            int             `json:"speed"`
	ProficiencyBonus int             `json:"proficiency_bonus"`
	SavingThrows     SavingThrows    `json:"saving_throws"`
	Skills           map[string]bool `json:"skills,omitempty"`
	Equipment        []string        `json:"equipment,omitempty"`
	Spells           []string        `json:"spells,omitempty"`
	Backstory        string          `json:"backstory,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	IsPublic         bool            `json:"is_public"`
	SharedWith       []string        `json:"shared_with,omitempty"`
	Version          int             `json:"version"`
	CreatedOn        time.Time       `json:"created_on"`
	UpdatedOn        time.Time       `json:"updated_on"`
}

// GetOwnerID implements Owned.
func (c *Character) GetOwnerID() string { return c.OwnerID }

// GetSharedWith implements Owned.
func (c *Character) GetSharedWith() []string { return c.SharedWith }

// GetIsPublic implements Owned.
func (c *Character) GetIsPublic() bool { return c.IsPublic }

// TotalLevel returns the combined level across all classes.
func (c *Character) TotalLevel() int {
	total := 0
	for _, cl := range c.Classes {
		total += cl.Level
	}
	return total
}

// Constraints
const (
	MaxCharacterLevel      = 20
	MinAbilityScore        = 1
	MaxAbilityScore        = 30
	MaxCharacterNameLength = 100
	MaxRaceLength          = 50
	MaxClassNameLength     = 50
	MaxBackstoryLength     = 5000
	MaxCharacterNotesLen   = 2000
	MaxEquipmentEntries    = 100
	MaxSpellEntries        = 100
)

// CreateCharacterRequest represents a request to create a character.
type CreateCharacterRequest struct {
	Name          string          `json:"name"`
	Race          string          `json:"race"`
	Size          string          `json:"size,omitempty"`
	Classes       []ClassLevel    `json:"classes"`
	AbilityScores AbilityScores   `json:"ability_scores"`
	HitPoints     HitPoints       `json:"hit_points"`
	ArmorClass    int             `json:"armor_class"`
	Speed         int             `json:"speed"`
	SavingThrows  SavingThrows    `json:"saving_throws,omitempty"`
	Skills        map[string]bool `json:"skills,omitempty"`
	Equipment     []string        `json:"equipment,omitempty"`
	Spells        []string        `json:"spells,omitempty"`
	Backstory     string          `json:"backstory,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	IsPublic      bool            `json:"is_public,omitempty"`
}

// Validate checks the create request shape and reports every violation.
// Class-level totals are checked separately via ValidateLevels so the caller
// can report them under their own error code.
func (r *CreateCharacterRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxCharacterNameLength {
		errors = append(errors, FieldError{Field: "name", Message: fmt.Sprintf("name must be %d characters or less", MaxCharacterNameLength)})
	}
	if len(r.Race) > MaxRaceLength {
		errors = append(errors, FieldError{Field: "race", Message: fmt.Sprintf("race must be %d characters or less", MaxRaceLength)})
	}
	if r.Size != "" && !isValidSize(r.Size) {
		errors = append(errors, FieldError{Field: "size", Message: "size must be one of tiny, small, medium, large, huge, gargantuan"})
	}
	if len(r.Classes) == 0 {
		errors = append(errors, FieldError{Field: "classes", Message: "at least one class is required"})
	}
	for i, cl := range r.Classes {
		if cl.Name == "" {
			errors = append(errors, FieldError{Field: fmt.Sprintf("classes[%d].name", i), Message: "class name is required"})
		} else if len(cl.Name) > MaxClassNameLength {
			errors = append(errors, FieldError{Field: fmt.Sprintf("classes[%d].name", i), Message: fmt.Sprintf("class name must be %d characters or less", MaxClassNameLength)})
		}
	}
	for name, score := range (r.AbilityScores).each() {
		if score < MinAbilityScore || score > MaxAbilityScore {
			errors = append(errors, FieldError{
				Field:   "ability_scores." + name,
				Message: fmt.Sprintf("score must be between %d and %d", MinAbilityScore, MaxAbilityScore),
			})
		}
	}
	if r.HitPoints.Max <= 0 {
		errors = append(errors, FieldError{Field: "hit_points.max", Message: "max hit points must be positive"})
	}
	if r.ArmorClass < 0 {
		errors = append(errors, FieldError{Field: "armor_class", Message: "armor class cannot be negative"})
	}
	if r.Speed < 0 {
		errors = append(errors, FieldError{Field: "speed", Message: "speed cannot be negative"})
	}
	if len(r.Backstory) > MaxBackstoryLength {
		errors = append(errors, FieldError{Field: "backstory", Message: fmt.Sprintf("backstory must be %d characters or less", MaxBackstoryLength)})
	}
	if len(r.Notes) > MaxCharacterNotesLen {
		errors = append(errors, FieldError{Field: "notes", Message: fmt.Sprintf("notes must be %d characters or less", MaxCharacterNotesLen)})
	}
	if len(r.Equipment) > MaxEquipmentEntries {
		errors = append(errors, FieldError{Field: "equipment", Message: fmt.Sprintf("at most %d equipment entries allowed", MaxEquipmentEntries)})
	}
	if len(r.Spells) > MaxSpellEntries {
		errors = append(errors, FieldError{Field: "spells", Message: fmt.Sprintf("at most %d spell entries allowed", MaxSpellEntries)})
	}

	return errors
}

// ValidateLevels checks class level bounds: each entry 1-20 and the combined
// total at most MaxCharacterLevel.
func (r *CreateCharacterRequest) ValidateLevels() []FieldError {
	return validateClassLevels(r.Classes)
}

func validateClassLevels(classes []ClassLevel) []FieldError {
	var errors []FieldError
	total := 0
	for i, cl := range classes {
		if cl.Level < 1 || cl.Level > MaxCharacterLevel {
			errors = append(errors, FieldError{
				Field:   fmt.Sprintf("classes[%d].level", i),
				Message: fmt.Sprintf("level must be between 1 and %d", MaxCharacterLevel),
			})
		}
		total += cl.Level
	}
	if total > MaxCharacterLevel {
		errors = append(errors, FieldError{
			Field:   "classes",
			Message: fmt.Sprintf("combined class levels must not exceed %d, got %d", MaxCharacterLevel, total),
		})
	}
	return errors
}

func isValidSize(s string) bool {
	for _, v := range ValidSizes {
		if s == string(v) {
			return true
		}
	}
	return false
}

// UpdateCharacterRequest represents a partial character update.
type UpdateCharacterRequest struct {
	Name          *string         `json:"name,omitempty"`
	Race          *string         `json:"race,omitempty"`
	Size          *string         `json:"size,omitempty"`
	Classes       []ClassLevel    `json:"classes,omitempty"`
	AbilityScores *AbilityScores  `json:"ability_scores,omitempty"`
	HitPoints     *HitPoints      `json:"hit_points,omitempty"`
	ArmorClass    *int            `json:"armor_class,omitempty"`
	Speed         *int            `json:"speed,omitempty"`
	SavingThrows  *SavingThrows   `json:"saving_throws,omitempty"`
	Skills        map[string]bool `json:"skills,omitempty"`
	Equipment     []string        `json:"equipment,omitempty"`
	Spells        []string        `json:"spells,omitempty"`
	Backstory     *string         `json:"backstory,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	IsPublic      *bool           `json:"is_public,omitempty"`
}

// Validate checks the update request shape.
func (r *UpdateCharacterRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		if *r.Name == "" {
			errors = append(errors, FieldError{Field: "name", Message: "name cannot be empty"})
		} else if len(*r.Name) > MaxCharacterNameLength {
			errors = append(errors, FieldError{Field: "name", Message: fmt.Sprintf("name must be %d characters or less", MaxCharacterNameLength)})
		}
	}
	if r.Size != nil && *r.Size != "" && !isValidSize(*r.Size) {
		errors = append(errors, FieldError{Field: "size", Message: "size must be one of tiny, small, medium, large, huge, gargantuan"})
	}
	if r.AbilityScores != nil {
		for name, score := range r.AbilityScores.each() {
			if score < MinAbilityScore || score > MaxAbilityScore {
				errors = append(errors, FieldError{
					Field:   "ability_scores." + name,
					Message: fmt.Sprintf("score must be between %d and %d", MinAbilityScore, MaxAbilityScore),
				})
			}
		}
	}
	if r.HitPoints != nil && r.HitPoints.Max <= 0 {
		errors = append(errors, FieldError{Field: "hit_points.max", Message: "max hit points must be positive"})
	}
	if r.ArmorClass != nil && *r.ArmorClass < 0 {
		errors = append(errors, FieldError{Field: "armor_class", Message: "armor class cannot be negative"})
	}
	if r.Backstory != nil && len(*r.Backstory) > MaxBackstoryLength {
		errors = append(errors, FieldError{Field: "backstory", Message: fmt.Sprintf("backstory must be %d characters or less", MaxBackstoryLength)})
	}
	if r.Notes != nil && len(*r.Notes) > MaxCharacterNotesLen {
		errors = append(errors, FieldError{Field: "notes", Message: fmt.Sprintf("notes must be %d characters or less", MaxCharacterNotesLen)})
	}

	return errors
}

// ValidateLevels checks class level bounds when classes are being replaced.
func (r *UpdateCharacterRequest) ValidateLevels() []FieldError {
	if r.Classes == nil {
		return nil
	}
	return validateClassLevels(r.Classes)
}

// CharacterSearchCriteria filters character searches. At least one criterion
// must be set.
type CharacterSearchCriteria struct {
	Name     string `json:"name,omitempty"`
	Race     string `json:"race,omitempty"`
	Class    string `json:"class,omitempty"`
	MinLevel int    `json:"min_level,omitempty"`
	MaxLevel int    `json:"max_level,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c *CharacterSearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.Race == "" && c.Class == "" && c.MinLevel == 0 && c.MaxLevel == 0
}

// Validate checks criterion bounds.
func (c *CharacterSearchCriteria) Validate() []FieldError {
	var errors []FieldError
	if c.MinLevel < 0 || c.MinLevel > MaxCharacterLevel {
		errors = append(errors, FieldError{Field: "min_level", Message: fmt.Sprintf("min_level must be between 0 and %d", MaxCharacterLevel)})
	}
	if c.MaxLevel < 0 || c.MaxLevel > MaxCharacterLevel {
		errors = append(errors, FieldError{Field: "max_level", Message: fmt.Sprintf("max_level must be between 0 and %d", MaxCharacterLevel)})
	}
	if c.MinLevel > 0 && c.MaxLevel > 0 && c.MinLevel > c.MaxLevel {
		errors = append(errors, FieldError{Field: "min_level", Message: "min_level cannot exceed max_level"})
	}
	return errors
}

// CharacterStats aggregates a user's character collection.
type CharacterStats struct {
	Total             int            `json:"total"`
	AverageLevel      float64        `json:"average_level"`
	ClassDistribution map[string]int `json:"class_distribution"`
	PublicCount       int            `json:"public_count"`
}
