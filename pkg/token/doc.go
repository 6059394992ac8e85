// Package token issues and verifies the signed access tokens used by the
// CritForge API.
//
// Tokens are HS256 JSON Web Tokens. The subject is the user id; email,
// username, role, and subscription tier ride along as custom claims so the
// HTTP layer can authorize without a user lookup.
//
//	manager, err := token.NewManager(token.Config{
//	    Secret: secret,
//	    Issuer: "critforge-api",
//	    TTL:    24 * time.Hour,
//	})
//
//	signed, err := manager.Issue(user)
//	claims, err := manager.Verify(signed)
package token
