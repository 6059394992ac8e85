package service

import (
	"context"

	"github.com/critforge/api/internal/model"
)

// Function-field mocks. Tests override only the calls they care about;
// anything else panics loudly instead of passing silently.

type mockCharacterRepo struct {
	createFn       func(ctx context.Context, c *model.Character) error
	getByIDFn      func(ctx context.Context, id string) (*model.Character, error)
	updateFn       func(ctx context.Context, id string, updates map[string]interface{}) (*model.Character, error)
	deleteFn       func(ctx context.Context, id string) error
	deleteManyFn   func(ctx context.Context, ids []string) error
	listByOwnerFn  func(ctx context.Context, ownerID string) ([]*model.Character, error)
	searchFn       func(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error)
	countByOwnerFn func(ctx context.Context, ownerID string) (int, error)
}

func (m *mockCharacterRepo) Create(ctx context.Context, c *model.Character) error {
	return m.createFn(ctx, c)
}

func (m *mockCharacterRepo) GetByID(ctx context.Context, id string) (*model.Character, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockCharacterRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Character, error) {
	return m.updateFn(ctx, id, updates)
}

func (m *mockCharacterRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockCharacterRepo) DeleteMany(ctx context.Context, ids []string) error {
	return m.deleteManyFn(ctx, ids)
}

func (m *mockCharacterRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Character, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockCharacterRepo) Search(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error) {
	return m.searchFn(ctx, ownerID, criteria)
}

func (m *mockCharacterRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return m.countByOwnerFn(ctx, ownerID)
}

type mockEncounterRepo struct {
	createFn          func(ctx context.Context, e *model.Encounter) error
	getByIDFn         func(ctx context.Context, id string) (*model.Encounter, error)
	updateFn          func(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error)
	setParticipantsFn func(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error)
	deleteFn          func(ctx context.Context, id string) error
	deleteManyFn      func(ctx context.Context, ids []string) error
	listByOwnerFn     func(ctx context.Context, ownerID string) ([]*model.Encounter, error)
	listSharedWithFn  func(ctx context.Context, userID string) ([]*model.Encounter, error)
	searchFn          func(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) ([]*model.Encounter, error)
	countByOwnerFn    func(ctx context.Context, ownerID string) (int, error)
}

func (m *mockEncounterRepo) Create(ctx context.Context, e *model.Encounter) error {
	return m.createFn(ctx, e)
}

func (m *mockEncounterRepo) GetByID(ctx context.Context, id string) (*model.Encounter, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockEncounterRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.Encounter, error) {
	return m.updateFn(ctx, id, updates)
}

func (m *mockEncounterRepo) SetParticipants(ctx context.Context, id string, participants []model.Participant) (*model.Encounter, error) {
	return m.setParticipantsFn(ctx, id, participants)
}

func (m *mockEncounterRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockEncounterRepo) DeleteMany(ctx context.Context, ids []string) error {
	return m.deleteManyFn(ctx, ids)
}

func (m *mockEncounterRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Encounter, error) {
	return m.listByOwnerFn(ctx, ownerID)
}

func (m *mockEncounterRepo) ListSharedWith(ctx context.Context, userID string) ([]*model.Encounter, error) {
	return m.listSharedWithFn(ctx, userID)
}

func (m *mockEncounterRepo) Search(ctx context.Context, ownerID string, criteria *model.EncounterSearchCriteria) ([]*model.Encounter, error) {
	return m.searchFn(ctx, ownerID, criteria)
}

func (m *mockEncounterRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	return m.countByOwnerFn(ctx, ownerID)
}

type mockUserRepo struct {
	createFn         func(ctx context.Context, u *model.User) error
	getByIDFn        func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn     func(ctx context.Context, email string) (*model.User, error)
	getByUsernameFn  func(ctx context.Context, username string) (*model.User, error)
	updateFn         func(ctx context.Context, id string, updates map[string]interface{}) (*model.User, error)
	updatePasswordFn func(ctx context.Context, id string, hash string) error
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error {
	return m.createFn(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.getByEmailFn(ctx, email)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.getByUsernameFn(ctx, username)
}

func (m *mockUserRepo) Update(ctx context.Context, id string, updates map[string]interface{}) (*model.User, error) {
	return m.updateFn(ctx, id, updates)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id string, hash string) error {
	return m.updatePasswordFn(ctx, id, hash)
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// freeUser returns a user on the free tier for limit tests.
func freeUser(id string) *model.User {
	return &model.User{
		ID:       id,
		Email:    "dm@example.com",
		Username: "dungeonmaster",
		Role:     model.UserRoleUser,
		Tier:     model.TierFree,
	}
}

// userReaderFor wraps a single user as a UserReader.
func userReaderFor(user *model.User) *mockUserRepo {
	return &mockUserRepo{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			if user != nil && user.ID == id {
				return user, nil
			}
			return nil, nil
		},
	}
}
