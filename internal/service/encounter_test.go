package service

import (
	"context"
	"testing"

	"github.com/critforge/api/internal/model"
)

const encounterID = "dddddddddddddddddddddddd"

func validEncounterRequest() *model.CreateEncounterRequest {
	return &model.CreateEncounterRequest{
		Name:        "Goblin Ambush",
		Difficulty:  "medium",
		TargetLevel: 3,
	}
}

func combatant(id, name string, initiative int) model.Participant {
	return model.Participant{
		ID:         id,
		Name:       name,
		Type:       model.ParticipantMonster,
		HitPoints:  model.HitPoints{Max: 7, Current: 7},
		ArmorClass: 13,
		Initiative: initiative,
		IsVisible:  true,
	}
}

func storedEncounter() *model.Encounter {
	return &model.Encounter{
		ID:          encounterID,
		OwnerID:     ownerID,
		Name:        "Goblin Ambush",
		Difficulty:  model.DifficultyMedium,
		TargetLevel: 3,
		Status:      model.EncounterStatusDraft,
		Participants: []model.Participant{
			combatant("111111111111111111111111", "Goblin A", 12),
			combatant("222222222222222222222222", "Goblin Boss", 18),
		},
		Version: 2,
	}
}

func newEncounterService(encs *mockEncounterRepo, user *model.User) *EncounterService {
	return NewEncounterService(EncounterServiceConfig{
		EncounterRepo: encs,
		UserRepo:      userReaderFor(user),
	})
}

// passthroughUpdate records the update map and echoes it onto a stored copy.
func passthroughUpdate(t *testing.T, captured *map[string]interface{}) func(context.Context, string, map[string]interface{}) (*model.Encounter, error) {
	t.Helper()
	return func(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error) {
		*captured = updates
		return storedEncounter(), nil
	}
}

func TestEncounterServiceCreate(t *testing.T) {
	t.Parallel()

	t.Run("new encounters start as drafts", func(t *testing.T) {
		t.Parallel()
		var created *model.Encounter
		encs := &mockEncounterRepo{
			countByOwnerFn: func(ctx context.Context, owner string) (int, error) { return 0, nil },
			createFn: func(ctx context.Context, e *model.Encounter) error {
				created = e
				return nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.Create(context.Background(), ownerID, validEncounterRequest())
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		if created.Status != model.EncounterStatusDraft {
			t.Errorf("status = %q, want draft", created.Status)
		}
		if created.CombatState.IsActive {
			t.Error("new encounter must not be in combat")
		}
		if created.Version != 1 {
			t.Errorf("version = %d, want 1", created.Version)
		}
	})

	t.Run("free tier limit blocks creation", func(t *testing.T) {
		t.Parallel()
		encs := &mockEncounterRepo{
			countByOwnerFn: func(ctx context.Context, owner string) (int, error) {
				return model.TierFree.Limits().MaxEncounters, nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.Create(context.Background(), ownerID, validEncounterRequest())
		if result.Success || result.Error.Code != model.CodeEncounterLimitExceeded {
			t.Errorf("expected ENCOUNTER_LIMIT_EXCEEDED, got %v", result.Error)
		}
	})

	t.Run("unknown difficulty rejected", func(t *testing.T) {
		t.Parallel()
		svc := newEncounterService(&mockEncounterRepo{}, freeUser(ownerID))

		req := validEncounterRequest()
		req.Difficulty = "apocalyptic"
		result := svc.Create(context.Background(), ownerID, req)
		if result.Success || result.Error.Code != model.CodeInvalidEncounterData {
			t.Errorf("expected INVALID_ENCOUNTER_DATA, got %v", result.Error)
		}
	})
}

func TestEncounterServiceSharing(t *testing.T) {
	t.Parallel()

	t.Run("sharing with the owner is a no-op", func(t *testing.T) {
		t.Parallel()
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
			updateFn: func(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error) {
				t.Error("the owner must never be added to the shared list")
				return nil, nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.ShareWith(context.Background(), ownerID, encounterID, ownerID)
		if !result.Success {
			t.Errorf("expected success, got %v", result.Error)
		}
	})

	t.Run("sharing twice does not duplicate", func(t *testing.T) {
		t.Parallel()
		e := storedEncounter()
		e.SharedWith = []string{sharedID}
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) { return e, nil },
			updateFn: func(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error) {
				t.Error("an already shared user must not trigger a write")
				return nil, nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.ShareWith(context.Background(), ownerID, encounterID, sharedID)
		if !result.Success {
			t.Errorf("expected success, got %v", result.Error)
		}
	})

	t.Run("share appends to the persisted list", func(t *testing.T) {
		t.Parallel()
		var captured map[string]interface{}
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
		}
		encs.updateFn = passthroughUpdate(t, &captured)
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.ShareWith(context.Background(), ownerID, encounterID, sharedID)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		shared, ok := captured["shared_with"].([]string)
		if !ok || len(shared) != 1 || shared[0] != sharedID {
			t.Errorf("unexpected shared list: %v", captured["shared_with"])
		}
	})

	t.Run("only the owner may share", func(t *testing.T) {
		t.Parallel()
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
		}
		svc := newEncounterService(encs, freeUser(sharedID))

		result := svc.ShareWith(context.Background(), sharedID, encounterID, strangerID)
		if result.Success || result.Error.Code != model.CodeUnauthorizedAccess {
			t.Errorf("expected UNAUTHORIZED_ACCESS, got %v", result.Error)
		}
	})
}

func TestEncounterServiceParticipants(t *testing.T) {
	t.Parallel()

	t.Run("participant cap enforced", func(t *testing.T) {
		t.Parallel()
		e := storedEncounter()
		e.Participants = make([]model.Participant, model.MaxParticipants)
		for i := range e.Participants {
			e.Participants[i] = combatant(model.NewID(), "Filler", 10)
		}
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) { return e, nil },
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		input := &model.ParticipantInput{
			Name: "One Too Many", Type: "monster",
			HitPoints: model.HitPoints{Max: 5, Current: 5},
		}
		result := svc.AddParticipant(context.Background(), ownerID, encounterID, input)
		if result.Success || result.Error.Code != model.CodeInvalidEncounterData {
			t.Errorf("expected INVALID_ENCOUNTER_DATA, got %v", result.Error)
		}
	})

	t.Run("added participant gets an id and clamped hit points", func(t *testing.T) {
		t.Parallel()
		var saved []model.Participant
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
			setParticipantsFn: func(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error) {
				saved = participants
				return storedEncounter(), nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		input := &model.ParticipantInput{
			Name: "Ogre", Type: "monster",
			HitPoints: model.HitPoints{Max: 59, Current: 80},
		}
		result := svc.AddParticipant(context.Background(), ownerID, encounterID, input)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		if len(saved) != 3 {
			t.Fatalf("participants = %d, want 3", len(saved))
		}
		added := saved[2]
		if !model.IsValidID(added.ID) {
			t.Errorf("participant id malformed: %q", added.ID)
		}
		if added.HitPoints.Current != 59 {
			t.Errorf("current hp = %d, want clamped to 59", added.HitPoints.Current)
		}
	})

	t.Run("updating an unknown participant fails", func(t *testing.T) {
		t.Parallel()
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		input := &model.ParticipantInput{
			Name: "Ghost", Type: "npc",
			HitPoints: model.HitPoints{Max: 10, Current: 10},
		}
		result := svc.UpdateParticipant(context.Background(), ownerID, encounterID, "999999999999999999999999", input)
		if result.Success || result.Error.Message != "Participant not found" {
			t.Errorf("expected participant not found, got %v", result.Error)
		}
	})

	t.Run("update keeps the participant id", func(t *testing.T) {
		t.Parallel()
		var saved []model.Participant
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
			setParticipantsFn: func(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error) {
				saved = participants
				return storedEncounter(), nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		input := &model.ParticipantInput{
			Name: "Goblin A (bloodied)", Type: "monster",
			HitPoints: model.HitPoints{Max: 7, Current: 3},
		}
		result := svc.UpdateParticipant(context.Background(), ownerID, encounterID, "111111111111111111111111", input)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		if saved[0].ID != "111111111111111111111111" {
			t.Errorf("participant id changed: %q", saved[0].ID)
		}
		if saved[0].Name != "Goblin A (bloodied)" {
			t.Errorf("name not applied: %q", saved[0].Name)
		}
	})
}

func TestEncounterServiceCombat(t *testing.T) {
	t.Parallel()

	t.Run("start sorts initiative highest first", func(t *testing.T) {
		t.Parallel()
		var captured map[string]interface{}
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
		}
		encs.updateFn = passthroughUpdate(t, &captured)
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.StartCombat(context.Background(), ownerID, encounterID)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		if captured["status"] != string(model.EncounterStatusActive) {
			t.Errorf("status = %v, want active", captured["status"])
		}
		state := captured["combat_state"].(map[string]interface{})
		order := state["initiative_order"].([]string)
		if len(order) != 2 || order[0] != "222222222222222222222222" {
			t.Errorf("boss at initiative 18 must act first, got %v", order)
		}
		if state["current_round"] != 1 || state["current_turn"] != 0 {
			t.Errorf("unexpected opening state: %v", state)
		}
	})

	t.Run("cannot start without participants", func(t *testing.T) {
		t.Parallel()
		e := storedEncounter()
		e.Participants = nil
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) { return e, nil },
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.StartCombat(context.Background(), ownerID, encounterID)
		if result.Success || result.Error.Message != "Cannot start combat without participants" {
			t.Errorf("unexpected result: %v", result.Error)
		}
	})

	t.Run("last turn rolls into a new round", func(t *testing.T) {
		t.Parallel()
		e := storedEncounter()
		e.CombatState = model.CombatState{
			IsActive:        true,
			CurrentRound:    1,
			CurrentTurn:     1,
			InitiativeOrder: []string{"222222222222222222222222", "111111111111111111111111"},
		}
		var captured map[string]interface{}
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) { return e, nil },
		}
		encs.updateFn = passthroughUpdate(t, &captured)
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.NextTurn(context.Background(), ownerID, encounterID)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		state := captured["combat_state"].(map[string]interface{})
		if state["current_round"] != 2 || state["current_turn"] != 0 {
			t.Errorf("expected round 2 turn 0, got %v", state)
		}
	})

	t.Run("advancing outside combat fails", func(t *testing.T) {
		t.Parallel()
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
		}
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.NextTurn(context.Background(), ownerID, encounterID)
		if result.Success || result.Error.Message != "Combat is not active" {
			t.Errorf("unexpected result: %v", result.Error)
		}
	})

	t.Run("end marks the encounter completed", func(t *testing.T) {
		t.Parallel()
		var captured map[string]interface{}
		encs := &mockEncounterRepo{
			getByIDFn: func(ctx context.Context, id string) (*model.Encounter, error) {
				return storedEncounter(), nil
			},
		}
		encs.updateFn = passthroughUpdate(t, &captured)
		svc := newEncounterService(encs, freeUser(ownerID))

		result := svc.EndCombat(context.Background(), ownerID, encounterID)
		if !result.Success {
			t.Fatalf("expected success, got %v", result.Error)
		}
		if captured["status"] != string(model.EncounterStatusCompleted) {
			t.Errorf("status = %v, want completed", captured["status"])
		}
		state := captured["combat_state"].(map[string]interface{})
		if state["is_active"] != false {
			t.Errorf("combat still active: %v", state)
		}
	})
}

func TestEncounterServiceDuplicate(t *testing.T) {
	t.Parallel()

	source := storedEncounter()
	source.IsPublic = true
	source.Status = model.EncounterStatusCompleted
	source.Participants[0].HitPoints.Current = 0
	source.Participants[0].Conditions = []string{"unconscious"}
	source.CombatState = model.CombatState{IsActive: true, CurrentRound: 5, CurrentTurn: 1}

	encs := &mockEncounterRepo{
		getByIDFn:      func(ctx context.Context, id string) (*model.Encounter, error) { return source, nil },
		countByOwnerFn: func(ctx context.Context, owner string) (int, error) { return 0, nil },
		createFn:       func(ctx context.Context, e *model.Encounter) error { return nil },
	}
	svc := newEncounterService(encs, freeUser(strangerID))

	result := svc.Duplicate(context.Background(), strangerID, encounterID, "")
	if !result.Success {
		t.Fatalf("expected success, got %v", result.Error)
	}
	dup := result.Data
	if dup.ID == source.ID {
		t.Error("duplicate kept the source id")
	}
	if dup.OwnerID != strangerID {
		t.Errorf("owner = %q, want %q", dup.OwnerID, strangerID)
	}
	if dup.Status != model.EncounterStatusDraft || dup.IsPublic || dup.SharedWith != nil {
		t.Error("duplicate must be a private draft")
	}
	if dup.Name != "Copy of Goblin Ambush" {
		t.Errorf("unexpected default name: %q", dup.Name)
	}
	if dup.CombatState.IsActive || dup.CombatState.CurrentRound != 0 {
		t.Errorf("combat history survived: %+v", dup.CombatState)
	}
	for i, p := range dup.Participants {
		if p.ID == source.Participants[i].ID {
			t.Errorf("participant %d kept its id", i)
		}
		if p.HitPoints.Current != p.HitPoints.Max {
			t.Errorf("participant %d not healed: %+v", i, p.HitPoints)
		}
		if len(p.Conditions) != 0 {
			t.Errorf("participant %d kept conditions: %v", i, p.Conditions)
		}
	}
}
