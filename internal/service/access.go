package service

import (
	"github.com/critforge/api/internal/model"
)

// Access predicates shared by every entity that implements model.Owned.
// Identifier syntax is always checked before anything touches the store, so
// malformed ids never turn into driver errors.

// CheckUserID validates the syntax of a requesting user's id.
func CheckUserID(userID string) *model.ServiceError {
	if !model.IsValidID(userID) {
		return model.NewServiceError(model.CodeInvalidUserID, "Invalid user ID format")
	}
	return nil
}

// CheckOwnership verifies that userID owns the entity. Only the owner passes;
// shared access and public visibility do not grant ownership.
func CheckOwnership(entity model.Owned, userID string) *model.ServiceError {
	if serr := CheckUserID(userID); serr != nil {
		return serr
	}
	if entity.GetOwnerID() != userID {
		return model.NewServiceError(model.CodeUnauthorizedAccess, "You do not have permission to modify this resource")
	}
	return nil
}

// CheckAccess verifies that userID may view the entity: the owner, anyone in
// the shared list, or everyone when the entity is public.
func CheckAccess(entity model.Owned, userID string) *model.ServiceError {
	if serr := CheckUserID(userID); serr != nil {
		return serr
	}
	if entity.GetOwnerID() == userID {
		return nil
	}
	for _, id := range entity.GetSharedWith() {
		if id == userID {
			return nil
		}
	}
	if entity.GetIsPublic() {
		return nil
	}
	return model.NewServiceError(model.CodeUnauthorizedAccess, "You do not have permission to access this resource")
}

// GetPermissions reports what userID may do with the entity. The owner holds
// every permission; a viewer (shared or public) may only view.
func GetPermissions(entity model.Owned, userID string) model.Permissions {
	if entity.GetOwnerID() == userID {
		return model.Permissions{CanView: true, CanEdit: true, CanDelete: true, CanShare: true}
	}
	if CheckAccess(entity, userID) == nil {
		return model.Permissions{CanView: true}
	}
	return model.Permissions{}
}

// CheckMultipleOwnership verifies ownership of every entity and fails
// wholesale on the first denial. Bulk delete depends on this to stay
// all-or-nothing.
func CheckMultipleOwnership(entities []model.Owned, userID string) *model.ServiceError {
	for _, entity := range entities {
		if serr := CheckOwnership(entity, userID); serr != nil {
			return serr
		}
	}
	return nil
}
