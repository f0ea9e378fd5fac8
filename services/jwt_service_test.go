package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"parkspot-server/config"
	"parkspot-server/models"
	"parkspot-server/types"
)

func setupJWTConfig(t *testing.T) {
	t.Helper()

	previous := config.AppConfig
	config.AppConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpiryHours: 1,
		},
	}
	t.Cleanup(func() {
		config.AppConfig = previous
	})
}

func TestGenerateTokenPair(t *testing.T) {
	setupTestDB(t)
	setupJWTConfig(t)
	js := NewJWTService()

	pair, err := js.GenerateTokenPair(42, "device-1", "test-agent", "127.0.0.1")
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("token pair has empty tokens")
	}

	// Access token carries the user ID in both the custom claim and the
	// decimal-encoded subject
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(pair.AccessToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token did not parse: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("claims.UserID = %d, want 42", claims.UserID)
	}
	if claims.Subject != "42" {
		t.Errorf("claims.Subject = %q, want \"42\"", claims.Subject)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	setupTestDB(t)
	setupJWTConfig(t)
	js := NewJWTService()

	pair, err := js.GenerateTokenPair(7, "", "", "")
	if err != nil {
		t.Fatalf("GenerateTokenPair: %v", err)
	}

	stored, err := js.ValidateRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if stored.UserID != 7 {
		t.Errorf("stored token UserID = %d, want 7", stored.UserID)
	}
	if !stored.IsValid() {
		t.Error("fresh refresh token must be valid")
	}

	if err := js.RevokeRefreshToken(pair.RefreshToken); err != nil {
		t.Fatalf("RevokeRefreshToken: %v", err)
	}
	if _, err := js.ValidateRefreshToken(pair.RefreshToken); err == nil {
		t.Error("revoked refresh token must not validate")
	}
}

func TestRefreshTokenValidity(t *testing.T) {
	expired := &models.RefreshToken{ExpiresAt: time.Now().Add(-time.Minute)}
	if expired.IsValid() {
		t.Error("expired token must not be valid")
	}

	live := &models.RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	if !live.IsValid() {
		t.Error("live token must be valid")
	}

	live.Revoke()
	if live.IsValid() {
		t.Error("revoked token must not be valid")
	}
}
