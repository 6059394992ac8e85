package model

import (
	"strings"
	"testing"
)

func validCreateEncounterRequest() CreateEncounterRequest {
	return CreateEncounterRequest{
		Name:        "Goblin Ambush",
		Description: "Goblins attack on the forest road",
		Difficulty:  "medium",
		TargetLevel: 3,
		Participants: []ParticipantInput{
			{Name: "Goblin Boss", Type: "monster", HitPoints: HitPoints{Max: 21, Current: 21}, ArmorClass: 17},
		},
	}
}

func TestCreateEncounterRequestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid request passes", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		if errs := req.Validate(); len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		req.Name = ""
		if errs := req.Validate(); !hasFieldError(errs, "name") {
			t.Error("expected name error")
		}
	})

	t.Run("unknown difficulty", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		req.Difficulty = "impossible"
		if errs := req.Validate(); !hasFieldError(errs, "difficulty") {
			t.Error("expected difficulty error")
		}
	})

	t.Run("target level out of range", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		req.TargetLevel = 21
		if errs := req.Validate(); !hasFieldError(errs, "target_level") {
			t.Error("expected target_level error")
		}
	})

	t.Run("too many tags", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		req.Tags = make([]string, MaxTagsPerEncounter+1)
		if errs := req.Validate(); !hasFieldError(errs, "tags") {
			t.Error("expected tags error")
		}
	})

	t.Run("participant errors carry index", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		req.Participants = append(req.Participants, ParticipantInput{Type: "monster", HitPoints: HitPoints{Max: 10}})
		if errs := req.Validate(); !hasFieldError(errs, "participants[1].name") {
			t.Error("expected participants[1].name error")
		}
	})

	t.Run("all violations reported together", func(t *testing.T) {
		t.Parallel()
		req := validCreateEncounterRequest()
		req.Name = strings.Repeat("x", MaxEncounterNameLength+1)
		req.Difficulty = "nope"
		req.TargetLevel = 0
		errs := req.Validate()
		for _, field := range []string{"name", "difficulty", "target_level"} {
			if !hasFieldError(errs, field) {
				t.Errorf("expected error for %s", field)
			}
		}
	})
}

func TestParticipantInputValidate(t *testing.T) {
	t.Parallel()

	t.Run("bad type", func(t *testing.T) {
		t.Parallel()
		p := ParticipantInput{Name: "Wolf", Type: "beast", HitPoints: HitPoints{Max: 11}}
		if errs := p.Validate("participants[0]"); !hasFieldError(errs, "participants[0].type") {
			t.Error("expected type error")
		}
	})

	t.Run("malformed character id", func(t *testing.T) {
		t.Parallel()
		bad := "not-an-id"
		p := ParticipantInput{Name: "Aria", Type: "pc", CharacterID: &bad, HitPoints: HitPoints{Max: 30}}
		if errs := p.Validate("participants[0]"); !hasFieldError(errs, "participants[0].character_id") {
			t.Error("expected character_id error")
		}
	})

	t.Run("non-positive max hit points", func(t *testing.T) {
		t.Parallel()
		p := ParticipantInput{Name: "Wolf", Type: "monster"}
		if errs := p.Validate("participants[0]"); !hasFieldError(errs, "participants[0].hit_points.max") {
			t.Error("expected hit_points.max error")
		}
	})
}

func TestParticipantInputToParticipant(t *testing.T) {
	t.Parallel()

	t.Run("assigns fresh id and clamps hit points", func(t *testing.T) {
		t.Parallel()
		in := ParticipantInput{Name: "Ogre", Type: "monster", HitPoints: HitPoints{Max: 59, Current: 80}}
		p := in.ToParticipant()
		if !IsValidID(p.ID) {
			t.Errorf("expected valid id, got %q", p.ID)
		}
		if p.HitPoints.Current != 59 {
			t.Errorf("current should be clamped to 59, got %d", p.HitPoints.Current)
		}
		if !p.IsVisible {
			t.Error("visibility should default to true")
		}
	})

	t.Run("explicit visibility preserved", func(t *testing.T) {
		t.Parallel()
		hidden := false
		in := ParticipantInput{Name: "Assassin", Type: "npc", HitPoints: HitPoints{Max: 78}, IsVisible: &hidden}
		if p := in.ToParticipant(); p.IsVisible {
			t.Error("expected hidden participant")
		}
	})
}

func TestParticipantResetForReuse(t *testing.T) {
	t.Parallel()

	p := Participant{
		HitPoints:  HitPoints{Max: 40, Current: 12, Temporary: 5},
		Conditions: []string{"poisoned", "prone"},
	}
	p.ResetForReuse()
	if p.HitPoints.Current != 40 || p.HitPoints.Temporary != 0 {
		t.Errorf("hit points not reset: %+v", p.HitPoints)
	}
	if p.Conditions != nil {
		t.Errorf("conditions not cleared: %v", p.Conditions)
	}
}

func TestCombatStateReset(t *testing.T) {
	t.Parallel()

	c := CombatState{IsActive: true, CurrentRound: 4, CurrentTurn: 2, InitiativeOrder: []string{"a", "b"}}
	c.Reset()
	if c.IsActive || c.CurrentRound != 0 || c.CurrentTurn != 0 || c.InitiativeOrder != nil {
		t.Errorf("combat state not fully reset: %+v", c)
	}
}

func TestEncounterIsSharedWith(t *testing.T) {
	t.Parallel()

	e := Encounter{SharedWith: []string{"aaaaaaaaaaaaaaaaaaaaaaaa"}}
	if !e.IsSharedWith("aaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Error("expected shared user to be recognized")
	}
	if e.IsSharedWith("bbbbbbbbbbbbbbbbbbbbbbbb") {
		t.Error("unexpected share match")
	}
}

func TestEncounterExportValidate(t *testing.T) {
	t.Parallel()

	valid := func() EncounterExport {
		return EncounterExport{
			Metadata: ExportMetadata{Format: FormatJSON, Version: ExportVersion},
			Encounter: ExportedEncounter{
				Name:         "Goblin Ambush",
				Difficulty:   DifficultyMedium,
				Participants: []Participant{{Name: "Goblin", HitPoints: HitPoints{Max: 7, Current: 7}}},
			},
		}
	}

	t.Run("valid envelope passes", func(t *testing.T) {
		t.Parallel()
		env := valid()
		if errs := env.Validate(); len(errs) != 0 {
			t.Errorf("expected no errors, got %v", errs)
		}
	})

	t.Run("missing version", func(t *testing.T) {
		t.Parallel()
		env := valid()
		env.Metadata.Version = ""
		if errs := env.Validate(); !hasFieldError(errs, "metadata.version") {
			t.Error("expected metadata.version error")
		}
	})

	t.Run("missing encounter name", func(t *testing.T) {
		t.Parallel()
		env := valid()
		env.Encounter.Name = ""
		if errs := env.Validate(); !hasFieldError(errs, "encounter.name") {
			t.Error("expected encounter.name error")
		}
	})

	t.Run("unknown difficulty", func(t *testing.T) {
		t.Parallel()
		env := valid()
		env.Encounter.Difficulty = "brutal"
		if errs := env.Validate(); !hasFieldError(errs, "encounter.difficulty") {
			t.Error("expected encounter.difficulty error")
		}
	})
}

func TestIsValidID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid hex id", "507f1f77bcf86cd799439011", true},
		{"generated id", NewID(), true},
		{"too short", "507f1f77bcf86cd79943901", false},
		{"too long", "507f1f77bcf86cd7994390111", false},
		{"uppercase rejected", "507F1F77BCF86CD799439011", false},
		{"non-hex characters", "507f1f77bcf86cd79943901z", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsValidID(tt.id); got != tt.want {
				t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
