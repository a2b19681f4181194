package auth

import (
	"testing"

	"chat-context-service/internal/config"
)

func TestJWTRoundTrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateJWT("alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	subject, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("expected subject alice, got %s", subject)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := GenerateJWT("alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	config.AppConfig.JWTSecret = "other-secret"
	if _, err := ValidateJWT(token); err == nil {
		t.Fatalf("expected validation to fail with a different secret")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPasswordHash("hunter2", hash) {
		t.Fatalf("correct password must verify")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatalf("wrong password must not verify")
	}
}
