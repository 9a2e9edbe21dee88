package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func newTestService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "test"})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}
	return svc
}

func TestNewJWTService_SecretLength(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "short"})
	if !errors.Is(err, ErrInvalidSecretLength) {
		t.Errorf("expected ErrInvalidSecretLength, got %v", err)
	}

	if _, err := NewJWTService(JWTConfig{Secret: testSecret}); err != nil {
		t.Errorf("expected 32+ char secret to be accepted, got %v", err)
	}
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestService(t)
	user := &User{ID: "user-123", Username: "ops", Role: RoleAdmin}

	pair, err := svc.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	if pair.TokenType != "Bearer" {
		t.Errorf("expected token type Bearer, got %q", pair.TokenType)
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expected default 15m expiry, got %d seconds", pair.ExpiresIn)
	}

	// Access token round-trips the identity
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("expected user id user-123, got %q", claims.UserID)
	}
	if claims.Username != "ops" {
		t.Errorf("expected username ops, got %q", claims.Username)
	}
	if !claims.IsAdmin() {
		t.Error("expected admin role to survive the roundtrip")
	}

	// Refresh token validates as refresh
	refreshClaims, err := svc.ValidateRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("ValidateRefreshToken failed: %v", err)
	}
	if !refreshClaims.IsRefreshToken() {
		t.Error("expected refresh token type")
	}
}

func TestValidateToken_TypeEnforcement(t *testing.T) {
	svc := newTestService(t)
	user := &User{ID: "user-123", Username: "ops", Role: RoleViewer}

	pair, err := svc.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	// A refresh token is not an access token
	if _, err := svc.ValidateAccessToken(pair.RefreshToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Errorf("expected ErrInvalidTokenType for refresh-as-access, got %v", err)
	}

	// An access token is not a refresh token
	if _, err := svc.ValidateRefreshToken(pair.AccessToken); !errors.Is(err, ErrInvalidTokenType) {
		t.Errorf("expected ErrInvalidTokenType for access-as-refresh, got %v", err)
	}
}

func TestValidateToken_Tampered(t *testing.T) {
	svc := newTestService(t)
	user := &User{ID: "user-123", Username: "ops", Role: RoleViewer}

	pair, err := svc.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	if _, err := svc.ValidateToken(pair.AccessToken + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestService(t)
	other, err := NewJWTService(JWTConfig{Secret: "another-secret-key-that-is-32-chars-long!!"})
	if err != nil {
		t.Fatalf("failed to create second service: %v", err)
	}

	pair, err := svc.GenerateTokenPair(&User{ID: "u", Username: "ops", Role: RoleViewer})
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	if _, err := other.ValidateToken(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{
		Secret:              testSecret,
		AccessTokenDuration: -time.Minute, // already expired when issued
	})
	if err != nil {
		t.Fatalf("failed to create JWT service: %v", err)
	}

	pair, err := svc.GenerateTokenPair(&User{ID: "u", Username: "ops", Role: RoleViewer})
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	if _, err := svc.ValidateToken(pair.AccessToken); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}
