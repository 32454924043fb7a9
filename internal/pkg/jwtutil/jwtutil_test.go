package jwtutil

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndParse(t *testing.T) {
	token, exp, err := GenerateToken("s3cret", time.Hour, "instructor", "instructor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry should be in the future: %v", exp)
	}

	claims, err := ParseToken("s3cret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Username != "instructor" || claims.Role != "instructor" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseRejectsWrongSecretAndExpired(t *testing.T) {
	token, _, err := GenerateToken("s3cret", time.Hour, "instructor", "instructor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken("other", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: want ErrInvalidToken, got %v", err)
	}

	expired, _, err := GenerateToken("s3cret", -time.Minute, "instructor", "instructor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseToken("s3cret", expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: want ErrInvalidToken, got %v", err)
	}
}
