package model

import (
	"fmt"
	"time"
)

// EncounterDifficulty represents the challenge rating band of an encounter
type EncounterDifficulty string

const (
	DifficultyTrivial EncounterDifficulty = "trivial"
	DifficultyEasy    EncounterDifficulty = "easy"
	DifficultyMedium  EncounterDifficulty = "medium"
	DifficultyHard    EncounterDifficulty = "hard"
	DifficultyDeadly  EncounterDifficulty = "deadly"
)

// ValidDifficulties lists every accepted difficulty.
var ValidDifficulties = []EncounterDifficulty{DifficultyTrivial, DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyDeadly}

// EncounterStatus represents the lifecycle stage of an encounter
type EncounterStatus string

const (
	EncounterStatusDraft     EncounterStatus = "draft"
	EncounterStatusActive    EncounterStatus = "active"
	EncounterStatusCompleted EncounterStatus = "completed"
	EncounterStatusArchived  EncounterStatus = "archived"
)

// ValidEncounterStatuses lists every accepted status.
var ValidEncounterStatuses = []EncounterStatus{EncounterStatusDraft, EncounterStatusActive, EncounterStatusCompleted, EncounterStatusArchived}

// ParticipantType distinguishes player characters from DM-controlled creatures
type ParticipantType string

const (
	ParticipantPC      ParticipantType = "pc"
	ParticipantNPC     ParticipantType = "npc"
	ParticipantMonster ParticipantType = "monster"
)

// Participant is one combatant in an encounter. Participants are owned by
// exactly one encounter and share its lifecycle.
type Participant struct {
	ID          string          `json:"id"`
	CharacterID *string         `json:"character_id,omitempty"`
	Name        string          `json:"name"`
	Type        ParticipantType `json:"type"`
	HitPoints   HitPoints       `json:"hit_points"`
	ArmorClass  int             `json:"armor_class"`
	Initiative  int             `json:"initiative"`
	Conditions  []string        `json:"conditions,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	IsVisible   bool            `json:"is_visible"`
}

// ResetForReuse clears battle history: full hit points, no temporary hit
// points, no conditions.
func (p *Participant) ResetForReuse() {
	p.HitPoints.Current = p.HitPoints.Max
	p.HitPoints.Temporary = 0
	p.Conditions = nil
}

// EncounterSettings holds per-encounter table options.
type EncounterSettings struct {
	AutoRollInitiative bool `json:"auto_roll_initiative"`
	ShowEnemyHP        bool `json:"show_enemy_hp"`
	AllowPlayerView    bool `json:"allow_player_view"`
	RoundTimeLimit     int  `json:"round_time_limit,omitempty"`
}

// CombatState tracks the runtime state of an active encounter.
type CombatState struct {
	IsActive        bool     `json:"is_active"`
	CurrentRound    int      `json:"current_round"`
	CurrentTurn     int      `json:"current_turn"`
	InitiativeOrder []string `json:"initiative_order,omitempty"`
}

// Reset returns combat to the inactive, round-zero state.
func (c *CombatState) Reset() {
	c.IsActive = false
	c.CurrentRound = 0
	c.CurrentTurn = 0
	c.InitiativeOrder = nil
}

// Encounter is a persisted encounter document.
type Encounter struct {
	ID           string              `json:"id"`
	OwnerID      string              `json:"owner_id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Difficulty   EncounterDifficulty `json:"difficulty"`
	TargetLevel  int                 `json:"target_level"`
	Status       EncounterStatus     `json:"status"`
	IsPublic     bool                `json:"is_public"`
	SharedWith   []string            `json:"shared_with,omitempty"`
	Participants []Participant       `json:"participants"`
	Settings     EncounterSettings   `json:"settings"`
	CombatState  CombatState         `json:"combat_state"`
	Version      int                 `json:"version"`
	CreatedOn    time.Time           `json:"created_on"`
	UpdatedOn    time.Time           `json:"updated_on"`
}

// GetOwnerID implements Owned.
func (e *Encounter) GetOwnerID() string { return e.OwnerID }

// GetSharedWith implements Owned.
func (e *Encounter) GetSharedWith() []string { return e.SharedWith }

// GetIsPublic implements Owned.
func (e *Encounter) GetIsPublic() bool { return e.IsPublic }

// IsSharedWith reports whether userID appears in the shared list.
func (e *Encounter) IsSharedWith(userID string) bool {
	for _, id := range e.SharedWith {
		if id == userID {
			return true
		}
	}
	return false
}

// ClampParticipants enforces the hit point invariant on every participant.
func (e *Encounter) ClampParticipants() {
	for i := range e.Participants {
		e.Participants[i].HitPoints.Clamp()
	}
}

// Constraints
const (
	MaxEncounterNameLength = 100
	MaxEncounterDescLength = 2000
	MaxTagsPerEncounter    = 20
	MaxTagLength           = 40
	MaxParticipants        = 50
	MaxParticipantNameLen  = 100
	MaxParticipantNotesLen = 1000
	MaxConditions          = 20
	MinTargetLevel         = 1
	MaxTargetLevel         = 20
)

// ParticipantInput describes a participant in a create/update request.
type ParticipantInput struct {
	CharacterID *string   `json:"character_id,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	HitPoints   HitPoints `json:"hit_points"`
	ArmorClass  int       `json:"armor_class"`
	Initiative  int       `json:"initiative"`
	Conditions  []string  `json:"conditions,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	IsVisible   *bool     `json:"is_visible,omitempty"`
}

// Validate checks one participant entry, prefixing field paths with prefix.
func (p *ParticipantInput) Validate(prefix string) []FieldError {
	var errors []FieldError

	if p.Name == "" {
		errors = append(errors, FieldError{Field: prefix + ".name", Message: "name is required"})
	} else if len(p.Name) > MaxParticipantNameLen {
		errors = append(errors, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("name must be %d characters or less", MaxParticipantNameLen)})
	}
	switch ParticipantType(p.Type) {
	case ParticipantPC, ParticipantNPC, ParticipantMonster:
	default:
		errors = append(errors, FieldError{Field: prefix + ".type", Message: "type must be pc, npc, or monster"})
	}
	if p.CharacterID != nil && !IsValidID(*p.CharacterID) {
		errors = append(errors, FieldError{Field: prefix + ".character_id", Message: "character_id is not a valid identifier"})
	}
	if p.HitPoints.Max <= 0 {
		errors = append(errors, FieldError{Field: prefix + ".hit_points.max", Message: "max hit points must be positive"})
	}
	if len(p.Conditions) > MaxConditions {
		errors = append(errors, FieldError{Field: prefix + ".conditions", Message: fmt.Sprintf("at most %d conditions allowed", MaxConditions)})
	}
	if len(p.Notes) > MaxParticipantNotesLen {
		errors = append(errors, FieldError{Field: prefix + ".notes", Message: fmt.Sprintf("notes must be %d characters or less", MaxParticipantNotesLen)})
	}

	return errors
}

// ToParticipant converts the input into a Participant with a fresh id and the
// hit point invariant applied.
func (p *ParticipantInput) ToParticipant() Participant {
	visible := true
	if p.IsVisible != nil {
		visible = *p.IsVisible
	}
	participant := Participant{
		ID:          NewID(),
		CharacterID: p.CharacterID,
		Name:        p.Name,
		Type:        ParticipantType(p.Type),
		HitPoints:   p.HitPoints,
		ArmorClass:  p.ArmorClass,
		Initiative:  p.Initiative,
		Conditions:  p.Conditions,
		Notes:       p.Notes,
		IsVisible:   visible,
	}
	participant.HitPoints.Clamp()
	return participant
}

// CreateEncounterRequest represents a request to create an encounter.
type CreateEncounterRequest struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Difficulty   string             `json:"difficulty"`
	TargetLevel  int                `json:"target_level"`
	IsPublic     bool               `json:"is_public,omitempty"`
	Participants []ParticipantInput `json:"participants,omitempty"`
	Settings     *EncounterSettings `json:"settings,omitempty"`
}

// Validate checks the create request and reports every violation.
func (r *CreateEncounterRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name == "" {
		errors = append(errors, FieldError{Field: "name", Message: "name is required"})
	} else if len(r.Name) > MaxEncounterNameLength {
		errors = append(errors, FieldError{Field: "name", Message: fmt.Sprintf("name must be %d characters or less", MaxEncounterNameLength)})
	}
	if len(r.Description) > MaxEncounterDescLength {
		errors = append(errors, FieldError{Field: "description", Message: fmt.Sprintf("description must be %d characters or less", MaxEncounterDescLength)})
	}
	if !isValidDifficulty(r.Difficulty) {
		errors = append(errors, FieldError{Field: "difficulty", Message: "difficulty must be one of trivial, easy, medium, hard, deadly"})
	}
	if r.TargetLevel < MinTargetLevel || r.TargetLevel > MaxTargetLevel {
		errors = append(errors, FieldError{Field: "target_level", Message: fmt.Sprintf("target_level must be between %d and %d", MinTargetLevel, MaxTargetLevel)})
	}
	if len(r.Tags) > MaxTagsPerEncounter {
		errors = append(errors, FieldError{Field: "tags", Message: fmt.Sprintf("at most %d tags allowed", MaxTagsPerEncounter)})
	}
	for i, tag := range r.Tags {
		if len(tag) > MaxTagLength {
			errors = append(errors, FieldError{Field: fmt.Sprintf("tags[%d]", i), Message: fmt.Sprintf("tag must be %d characters or less", MaxTagLength)})
		}
	}
	if len(r.Participants) > MaxParticipants {
		errors = append(errors, FieldError{Field: "participants", Message: fmt.Sprintf("at most %d participants allowed", MaxParticipants)})
	}
	for i := range r.Participants {
		errors = append(errors, r.Participants[i].Validate(fmt.Sprintf("participants[%d]", i))...)
	}

	return errors
}

func isValidDifficulty(s string) bool {
	for _, d := range ValidDifficulties {
		if s == string(d) {
			return true
		}
	}
	return false
}

// UpdateEncounterRequest represents a partial encounter update.
type UpdateEncounterRequest struct {
	Name        *string            `json:"name,omitempty"`
	Description *string            `json:"description,omitempty"`
	Tags        []string           `json:"tags,omitempty"`
	Difficulty  *string            `json:"difficulty,omitempty"`
	TargetLevel *int               `json:"target_level,omitempty"`
	Status      *string            `json:"status,omitempty"`
	IsPublic    *bool              `json:"is_public,omitempty"`
	Settings    *EncounterSettings `json:"settings,omitempty"`
}

// Validate checks the update request shape.
func (r *UpdateEncounterRequest) Validate() []FieldError {
	var errors []FieldError

	if r.Name != nil {
		if *r.Name == "" {
			errors = append(errors, FieldError{Field: "name", Message: "name cannot be empty"})
		} else if len(*r.Name) > MaxEncounterNameLength {
			errors = append(errors, FieldError{Field: "name", Message: fmt.Sprintf("name must be %d characters or less", MaxEncounterNameLength)})
		}
	}
	if r.Description != nil && len(*r.Description) > MaxEncounterDescLength {
		errors = append(errors, FieldError{Field: "description", Message: fmt.Sprintf("description must be %d characters or less", MaxEncounterDescLength)})
	}
	if r.Difficulty != nil && !isValidDifficulty(*r.Difficulty) {
		errors = append(errors, FieldError{Field: "difficulty", Message: "difficulty must be one of trivial, easy, medium, hard, deadly"})
	}
	if r.TargetLevel != nil && (*r.TargetLevel < MinTargetLevel || *r.TargetLevel > MaxTargetLevel) {
		errors = append(errors, FieldError{Field: "target_level", Message: fmt.Sprintf("target_level must be between %d and %d", MinTargetLevel, MaxTargetLevel)})
	}
	if r.Status != nil {
		valid := false
		for _, s := range ValidEncounterStatuses {
			if *r.Status == string(s) {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, FieldError{Field: "status", Message: "status must be one of draft, active, completed, archived"})
		}
	}
	if len(r.Tags) > MaxTagsPerEncounter {
		errors = append(errors, FieldError{Field: "tags", Message: fmt.Sprintf("at most %d tags allowed", MaxTagsPerEncounter)})
	}

	return errors
}

// EncounterSearchCriteria filters encounter searches.
type EncounterSearchCriteria struct {
	Name       string `json:"name,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Status     string `json:"status,omitempty"`
	MinLevel   int    `json:"min_level,omitempty"`
	MaxLevel   int    `json:"max_level,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c *EncounterSearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.Tag == "" && c.Difficulty == "" && c.Status == "" && c.MinLevel == 0 && c.MaxLevel == 0
}

// Validate checks criterion values.
func (c *EncounterSearchCriteria) Validate() []FieldError {
	var errors []FieldError
	if c.Difficulty != "" && !isValidDifficulty(c.Difficulty) {
		errors = append(errors, FieldError{Field: "difficulty", Message: "difficulty must be one of trivial, easy, medium, hard, deadly"})
	}
	if c.MinLevel < 0 || c.MinLevel > MaxTargetLevel {
		errors = append(errors, FieldError{Field: "min_level", Message: fmt.Sprintf("min_level must be between 0 and %d", MaxTargetLevel)})
	}
	if c.MaxLevel < 0 || c.MaxLevel > MaxTargetLevel {
		errors = append(errors, FieldError{Field: "max_level", Message: fmt.Sprintf("max_level must be between 0 and %d", MaxTargetLevel)})
	}
	return errors
}

// EncounterStats aggregates a user's encounter collection.
type EncounterStats struct {
	Total               int            `json:"total"`
	ByStatus            map[string]int `json:"by_status"`
	ByDifficulty        map[string]int `json:"by_difficulty"`
	AverageParticipants float64        `json:"average_participants"`
	ActiveCombats       int            `json:"active_combats"`
	PublicCount         int            `json:"public_count"`
}

// Permissions describes what a requesting user may do with an entity.
type Permissions struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanShare  bool `json:"can_share"`
}
