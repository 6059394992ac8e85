package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/critforge/api/internal/model"
	"github.com/critforge/api/pkg/token"
)

func main() {
	// Flags for customization
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC signing secret (defaults to JWT_SECRET)")
	userID := flag.String("user", model.NewID(), "User ID for the token")
	email := flag.String("email", "dm@critforge.dev", "Email for the token")
	username := flag.String("username", "dungeonmaster", "Username for the token")
	role := flag.String("role", string(model.UserRoleUser), "Role for the token (user or admin)")
	tier := flag.String("tier", string(model.TierMaster), "Subscription tier for the token")
	issuer := flag.String("issuer", "critforge-api", "JWT issuer")
	expMins := flag.Int("exp", 60*24*7, "Token expiration in minutes (default: 7 days)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	manager, err := token.NewManager(token.Config{
		Secret: []byte(*secret),
		Issuer: *issuer,
		TTL:    time.Duration(*expMins) * time.Minute,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating token manager: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nSet JWT_SECRET (32+ bytes) or pass -secret, matching the running server\n")
		os.Exit(1)
	}

	signed, err := manager.Issue(&model.User{
		ID:       *userID,
		Email:    *email,
		Username: *username,
		Role:     model.UserRole(*role),
		Tier:     model.SubscriptionTier(*tier),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": signed,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
			"email":        *email,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
	} else {
		expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
		fmt.Println("Dev Token Generated")
		fmt.Println("===================")
		fmt.Printf("User ID:  %s\n", *userID)
		fmt.Printf("Email:    %s\n", *email)
		fmt.Printf("Role:     %s\n", *role)
		fmt.Printf("Tier:     %s\n", *tier)
		fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
		fmt.Println()
		fmt.Println("Token:")
		fmt.Println(signed)
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8080/v1/users/me\n", signed[:50]+"...")
	}
}
