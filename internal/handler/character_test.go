package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/critforge/api/internal/model"
)

func TestCharacterHandler_Create_Returns201Envelope(t *testing.T) {
	t.Parallel()

	h := newCharacterHandler(&stubCharacterRepo{})

	payload := map[string]interface{}{
		"name":    "Mirela Thorn",
		"race":    "Half-Elf",
		"classes": []map[string]interface{}{{"name": "Rogue", "level": 3}},
		"ability_scores": map[string]int{
			"strength": 10, "dexterity": 16, "constitution": 12,
			"intelligence": 14, "wisdom": 11, "charisma": 13,
		},
		"hit_points":  map[string]int{"max": 32, "current": 32},
		"armor_class": 15,
		"speed":       30,
	}
	body, _ := json.Marshal(payload)

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/characters", bytes.NewReader(body)), testOwnerID)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	envelope := decodeEnvelope(t, rr)
	if envelope["success"] != true {
		t.Error("expected success envelope")
	}
	data, _ := envelope["data"].(map[string]interface{})
	if data["name"] != "Mirela Thorn" {
		t.Errorf("data.name = %v", data["name"])
	}
}

func TestCharacterHandler_Create_Unauthenticated_Returns401(t *testing.T) {
	t.Parallel()

	h := newCharacterHandler(&stubCharacterRepo{})

	req := httptest.NewRequest(http.MethodPost, "/v1/characters", bytes.NewReader([]byte("{}")))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
	if !bodyContains(rr, string(model.CodeUnauthorizedAccess)) {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

func TestCharacterHandler_Create_MalformedBody_Returns422(t *testing.T) {
	t.Parallel()

	h := newCharacterHandler(&stubCharacterRepo{})

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/characters", bytes.NewReader([]byte("{not json"))), testOwnerID)
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rr.Code)
	}
}

func TestCharacterHandler_Get_NotFound_Returns404(t *testing.T) {
	t.Parallel()

	h := newCharacterHandler(&stubCharacterRepo{})

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/characters/"+testCharacterID, nil), testOwnerID)
	req.SetPathValue("characterId", testCharacterID)
	rr := httptest.NewRecorder()
	h.Get(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	if !bodyContains(rr, string(model.CodeCharacterNotFound)) {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}

func TestCharacterHandler_Delete_Returns204(t *testing.T) {
	t.Parallel()

	repo := &stubCharacterRepo{
		getByIDFn: func(ctx context.Context, id string) (*model.Character, error) {
			return &model.Character{ID: id, OwnerID: testOwnerID, Name: "Mirela Thorn"}, nil
		},
	}
	h := newCharacterHandler(repo)

	req := authed(httptest.NewRequest(http.MethodDelete, "/v1/characters/"+testCharacterID, nil), testOwnerID)
	req.SetPathValue("characterId", testCharacterID)
	rr := httptest.NewRecorder()
	h.Delete(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204 (%s)", rr.Code, rr.Body.String())
	}
	if rr.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rr.Body.String())
	}
}

func TestCharacterHandler_Search_ForwardsQueryParams(t *testing.T) {
	t.Parallel()

	var got *model.CharacterSearchCriteria
	repo := &stubCharacterRepo{
		searchFn: func(ctx context.Context, ownerID string, criteria *model.CharacterSearchCriteria) ([]*model.Character, error) {
			got = criteria
			return nil, nil
		},
	}
	h := newCharacterHandler(repo)

	req := authed(httptest.NewRequest(http.MethodGet, "/v1/characters/search?class=Rogue&min_level=3&max_level=7", nil), testOwnerID)
	rr := httptest.NewRecorder()
	h.Search(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}
	if got == nil || got.Class != "Rogue" || got.MinLevel != 3 || got.MaxLevel != 7 {
		t.Errorf("criteria not forwarded: %+v", got)
	}
}

func TestCharacterHandler_BulkDelete_EmptyList_Returns400(t *testing.T) {
	t.Parallel()

	h := newCharacterHandler(&stubCharacterRepo{})

	req := authed(httptest.NewRequest(http.MethodPost, "/v1/characters/bulk-delete", bytes.NewReader([]byte(`{"ids":[]}`))), testOwnerID)
	rr := httptest.NewRecorder()
	h.BulkDelete(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if !bodyContains(rr, string(model.CodeNoCharactersProvided)) {
		t.Errorf("unexpected body: %q", rr.Body.String())
	}
}
