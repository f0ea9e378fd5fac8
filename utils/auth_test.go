package utils

import (
	"testing"

	"parkspot-server/config"
)

func setupTestConfig(t *testing.T) {
	t.Helper()

	previous := config.AppConfig
	config.AppConfig = &config.Config{
		JWT: config.JWTConfig{
			Secret:      "test-secret",
			ExpiryHours: 1,
		},
		Phone: config.PhoneConfig{
			DefaultCountryCode: "+222",
		},
	}
	t.Cleanup(func() {
		config.AppConfig = previous
	})
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret-passw0rd" {
		t.Fatal("hash must not equal the plain password")
	}

	if !CheckPasswordHash("s3cret-passw0rd", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("wrong-password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundtrip(t *testing.T) {
	setupTestConfig(t)

	token, err := GenerateToken(42, "host")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("claims.UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "host" {
		t.Errorf("claims.Role = %s, want host", claims.Role)
	}

	userID, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("ValidateToken() = %d, want 42", userID)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	setupTestConfig(t)

	if _, err := VerifyToken("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}

	// Token signed with a different secret
	config.AppConfig.JWT.Secret = "other-secret"
	token, err := GenerateToken(1, "driver")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	config.AppConfig.JWT.Secret = "test-secret"

	if _, err := VerifyToken(token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	setupTestConfig(t)

	tests := []struct {
		phone string
		want  bool
	}{
		{"+22242000000", true},
		{"+22212345678", true},
		{"+33612345678", false}, // wrong country code
		{"42000000", false},     // missing country code
		{"+2224", false},        // too short
		{"+2224200000042000000", false}, // too long
	}

	for _, tt := range tests {
		if got := ValidatePhoneNumber(tt.phone); got != tt.want {
			t.Errorf("ValidatePhoneNumber(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestFormatPhoneNumber(t *testing.T) {
	setupTestConfig(t)

	tests := []struct {
		in   string
		want string
	}{
		{"+22242000000", "+22242000000"},
		{"42000000", "+22242000000"},
		{"+42000000", "+22242000000"},
	}

	for _, tt := range tests {
		if got := FormatPhoneNumber(tt.in); got != tt.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
