package auth

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "pos-frontend")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.ClientID != "pos-frontend" {
		t.Errorf("expected client_id 'pos-frontend', got %q", claims.ClientID)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Error("expected a future expiry")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "pos-frontend")

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error validating with wrong secret")
	}
}

func TestVerifyClient(t *testing.T) {
	hash, err := HashSecret("hunter2")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	clients := []Client{{ID: "pos-frontend", SecretHash: hash}}

	if !VerifyClient(clients, "pos-frontend", "hunter2") {
		t.Error("expected valid credentials to verify")
	}
	if VerifyClient(clients, "pos-frontend", "wrong") {
		t.Error("expected wrong secret to fail")
	}
	if VerifyClient(clients, "unknown", "hunter2") {
		t.Error("expected unknown client to fail")
	}
}
