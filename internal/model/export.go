package model

import (
	"encoding/xml"
	"time"
)

// ExportVersion is the interchange format version embedded in every envelope.
// Field names and nesting of the envelope are a compatibility surface: they
// must round-trip exactly for re-import.
const ExportVersion = "1.0.0"

// ExportFormat identifies the serialization of an export envelope
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatXML  ExportFormat = "xml"
)

// ExportMetadata describes who produced an export and when.
type ExportMetadata struct {
	ExportedAt time.Time    `json:"exportedAt"`
	ExportedBy string       `json:"exportedBy"`
	Format     ExportFormat `json:"format"`
	Version    string       `json:"version"`
	AppVersion string       `json:"appVersion"`
}

// ExportedEncounter is the encounter payload inside an export envelope.
type ExportedEncounter struct {
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Tags            []string            `json:"tags,omitempty"`
	Difficulty      EncounterDifficulty `json:"difficulty"`
	TargetLevel     int                 `json:"targetLevel"`
	Status          EncounterStatus     `json:"status"`
	Participants    []Participant       `json:"participants"`
	Settings        EncounterSettings   `json:"settings"`
	CombatState     CombatState         `json:"combatState"`
	CharacterSheets []Character         `json:"characterSheets,omitempty"`
}

// EncounterExport is the metadata+payload envelope used for interchange
// between accounts and installations.
type EncounterExport struct {
	Metadata  ExportMetadata    `json:"metadata"`
	Encounter ExportedEncounter `json:"encounter"`
}

// Validate checks an envelope parsed from imported JSON. It reports every
// violation so a malformed file is diagnosed in one pass.
func (e *EncounterExport) Validate() []FieldError {
	var errors []FieldError

	if e.Metadata.Version == "" {
		errors = append(errors, FieldError{Field: "metadata.version", Message: "version is required"})
	}
	if e.Metadata.Format != FormatJSON && e.Metadata.Format != FormatXML {
		errors = append(errors, FieldError{Field: "metadata.format", Message: "format must be json or xml"})
	}
	if e.Encounter.Name == "" {
		errors = append(errors, FieldError{Field: "encounter.name", Message: "name is required"})
	} else if len(e.Encounter.Name) > MaxEncounterNameLength {
		errors = append(errors, FieldError{Field: "encounter.name", Message: "name exceeds maximum length"})
	}
	if e.Encounter.Difficulty != "" && !isValidDifficulty(string(e.Encounter.Difficulty)) {
		errors = append(errors, FieldError{Field: "encounter.difficulty", Message: "unknown difficulty"})
	}
	if len(e.Encounter.Participants) > MaxParticipants {
		errors = append(errors, FieldError{Field: "encounter.participants", Message: "too many participants"})
	}
	for _, p := range e.Encounter.Participants {
		if p.Name == "" {
			errors = append(errors, FieldError{Field: "encounter.participants", Message: "participant name is required"})
			break
		}
	}

	return errors
}

// XML rendering of the export envelope. Element order is fixed by the struct
// layout so exports are byte-stable for round-trip consumers.

// XMLEncounterExport is the root <encounterExport> document.
type XMLEncounterExport struct {
	XMLName      xml.Name          `xml:"encounterExport"`
	Metadata     XMLExportMetadata `xml:"metadata"`
	Name         string            `xml:"name"`
	Description  string            `xml:"description,omitempty"`
	Difficulty   string            `xml:"difficulty"`
	TargetLevel  int               `xml:"targetLevel"`
	Status       string            `xml:"status"`
	Tags         []string          `xml:"tags>tag,omitempty"`
	Participants []XMLParticipant  `xml:"participants>participant"`
	Settings     XMLSettings       `xml:"settings"`
	CombatState  XMLCombatState    `xml:"combatState"`
}

// XMLExportMetadata mirrors ExportMetadata in XML form.
type XMLExportMetadata struct {
	ExportedAt string `xml:"exportedAt"`
	ExportedBy string `xml:"exportedBy"`
	Format     string `xml:"format"`
	Version    string `xml:"version"`
	AppVersion string `xml:"appVersion"`
}

// XMLParticipant mirrors Participant in XML form.
type XMLParticipant struct {
	Name        string   `xml:"name"`
	Type        string   `xml:"type"`
	MaxHP       int      `xml:"maxHitPoints"`
	CurrentHP   int      `xml:"currentHitPoints"`
	TemporaryHP int      `xml:"temporaryHitPoints"`
	ArmorClass  int      `xml:"armorClass"`
	Initiative  int      `xml:"initiative"`
	Conditions  []string `xml:"conditions>condition,omitempty"`
	Notes       string   `xml:"notes,omitempty"`
}

// XMLSettings mirrors EncounterSettings in XML form.
type XMLSettings struct {
	AutoRollInitiative bool `xml:"autoRollInitiative"`
	ShowEnemyHP        bool `xml:"showEnemyHP"`
	AllowPlayerView    bool `xml:"allowPlayerView"`
	RoundTimeLimit     int  `xml:"roundTimeLimit"`
}

// XMLCombatState mirrors CombatState in XML form.
type XMLCombatState struct {
	IsActive     bool `xml:"isActive"`
	CurrentRound int  `xml:"currentRound"`
	CurrentTurn  int  `xml:"currentTurn"`
}

// ExportOptions controls what an export envelope contains.
type ExportOptions struct {
	// IncludeCharacterSheets embeds the full character sheet of every linked
	// participant.
	IncludeCharacterSheets bool `json:"include_character_sheets,omitempty"`
	// StripPersonalData zeroes notes and backstory fields on participants and
	// embedded character sheets.
	StripPersonalData bool `json:"strip_personal_data,omitempty"`
	// IncludePrivateNotes keeps participant notes in the export. Defaults to
	// false: private notes are excluded regardless of StripPersonalData.
	IncludePrivateNotes bool `json:"include_private_notes,omitempty"`
}
