package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/critforge/api/internal/middleware"
	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/internal/service"
)

const (
	testOwnerID     = "aaaaaaaaaaaaaaaaaaaaaaaa"
	testCharacterID = "ffffffffffffffffffffffff"
	testEncounterID = "dddddddddddddddddddddddd"
)

// Function-field repository mocks. Unset functions return zero values so a
// test only wires what it asserts on.

type stubCharacterRepo struct {
	createFn      func(ctx context.Context, c *model.Character) error
	getByIDFn     func(ctx context.Context, id string) (*model.Character, error)
	updateFn      func(ctx context.Context, id string, updates map[string]interface{}) (*model.Character, error)
	deleteFn      func(ctx context.Context, id string) error
	deleteManyFn  func(ctx context.Context, ids []string) error
	listByOwnerFn func(ctx context.Context, ownerID string) ([]*model.Character, error)
	searchFn      func(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error)
	countFn       func(ctx context.Context, ownerID string) (int, error)
}

func (m *stubCharacterRepo) Create(ctx context.Context, c *model.Character) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *stubCharacterRepo) GetByID(ctx context.Context, id string) (*model.Character, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *stubCharacterRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Character, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, updates)
	}
	return nil, nil
}

func (m *stubCharacterRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *stubCharacterRepo) DeleteMany(ctx context.Context, ids []string) error {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return nil
}

func (m *stubCharacterRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Character, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *stubCharacterRepo) Search(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, ownerID, criteria)
	}
	return nil, nil
}

func (m *stubCharacterRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, ownerID)
	}
	return 0, nil
}

type stubEncounterRepo struct {
	createFn          func(ctx context.Context, e *model.Encounter) error
	getByIDFn         func(ctx context.Context, id string) (*model.Encounter, error)
	updateFn          func(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error)
	setParticipantsFn func(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error)
	deleteFn          func(ctx context.Context, id string) error
	deleteManyFn      func(ctx context.Context, ids []string) error
	listByOwnerFn     func(ctx context.Context, ownerID string) ([]*model.Encounter, error)
	listSharedWithFn  func(ctx context.Context, userID string) ([]*model.Encounter, error)
	searchFn          func(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) ([]*model.Encounter, error)
	countFn           func(ctx context.Context, ownerID string) (int, error)
}

func (m *stubEncounterRepo) Create(ctx context.Context, e *model.Encounter) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return nil
}

func (m *stubEncounterRepo) GetByID(ctx context.Context, id string) (*model.Encounter, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *stubEncounterRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, updates)
	}
	return nil, nil
}

func (m *stubEncounterRepo) SetParticipants(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error) {
	if m.setParticipantsFn != nil {
		return m.setParticipantsFn(ctx, id, participants)
	}
	return nil, nil
}

func (m *stubEncounterRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *stubEncounterRepo) DeleteMany(ctx context.Context, ids []string) error {
	if m.deleteManyFn != nil {
		return m.deleteManyFn(ctx, ids)
	}
	return nil
}

func (m *stubEncounterRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Encounter, error) {
	if m.listByOwnerFn != nil {
		return m.listByOwnerFn(ctx, ownerID)
	}
	return nil, nil
}

func (m *stubEncounterRepo) ListSharedWith(ctx context.Context, userID string) ([]*model.Encounter, error) {
	if m.listSharedWithFn != nil {
		return m.listSharedWithFn(ctx, userID)
	}
	return nil, nil
}

func (m *stubEncounterRepo) Search(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) ([]*model.Encounter, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, ownerID, criteria)
	}
	return nil, nil
}

func (m *stubEncounterRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, ownerID)
	}
	return 0, nil
}

// stubUserReader serves tier lookups for a single known user.
type stubUserReader struct {
	user *model.User
}

func (m *stubUserReader) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.user != nil && m.user.ID == id {
		return m.user, nil
	}
	return nil, nil
}

func testUser(id string) *model.User {
	return &model.User{
		ID:       id,
		Email:    "dm@example.com",
		Username: "dungeonmaster",
		Role:     model.UserRoleUser,
		Tier:     model.TierFree,
	}
}

// authed builds a request carrying an authenticated user id, the way the auth
// middleware would.
func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

// decodeEnvelope unmarshals a response body into a generic envelope.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response JSON: %v (%q)", err, rr.Body.String())
	}
	return envelope
}

func testEncounter() *model.Encounter {
	return &model.Encounter{
		ID:          testEncounterID,
		OwnerID:     testOwnerID,
		Name:        "Goblin Ambush",
		Difficulty:  model.DifficultyMedium,
		TargetLevel: 3,
		Status:      model.EncounterStatusDraft,
		Participants: []model.Participant{
			{
				ID:         "111111111111111111111111",
				Name:       "Goblin A",
				Type:       model.ParticipantMonster,
				Initiative: 12,
				ArmorClass: 13,
				HitPoints:  model.HitPoints{Max: 7, Current: 7},
			},
		},
		Version: 1,
	}
}

func newCharacterHandler(repo *stubCharacterRepo) *CharacterHandler {
	svc := service.NewCharacterService(service.CharacterServiceConfig{
		CharacterRepo: repo,
		UserRepo:      &stubUserReader{user: testUser(testOwnerID)},
	})
	return NewCharacterHandler(svc)
}

func newEncounterHandler(repo *stubEncounterRepo) *EncounterHandler {
	svc := service.NewEncounterService(service.EncounterServiceConfig{
		EncounterRepo: repo,
		UserRepo:      &stubUserReader{user: testUser(testOwnerID)},
	})
	return NewEncounterHandler(svc)
}

func bodyContains(rr *httptest.ResponseRecorder, substr string) bool {
	return strings.Contains(rr.Body.String(), substr)
}
