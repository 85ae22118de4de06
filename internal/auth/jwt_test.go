package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, issued, err := GenerateToken(secret, "ana@mail.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Email != "ana@mail.com" {
		t.Errorf("email = %q, want ana@mail.com", claims.Email)
	}
	if claims.SessionID() != issued.SessionID() {
		t.Errorf("session = %q, issued %q", claims.SessionID(), issued.SessionID())
	}

	diff := time.Until(claims.Expiry()) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("expiry off by %v", diff)
	}
}

func TestTokensHaveDistinctSessions(t *testing.T) {
	_, a, _ := GenerateToken("secret", "ana@mail.com")
	_, b, _ := GenerateToken("secret", "ana@mail.com")
	if a.SessionID() == b.SessionID() {
		t.Error("each login must start a new session")
	}
}

func TestValidateTokenRejects(t *testing.T) {
	good, _, _ := GenerateToken("secret1", "ana@mail.com")

	sign := func(c *Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret1"))
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		return s
	}
	claims := func(mod func(*Claims)) *Claims {
		c := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			ID:        "s1",
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		mod(c)
		return c
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "secret2", good},
		{"garbage", "secret1", "not-a-token"},
		{"expired", "secret1", sign(claims(func(c *Claims) {
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		}))},
		{"no expiry", "secret1", sign(claims(func(c *Claims) { c.ExpiresAt = nil }))},
		{"foreign issuer", "secret1", sign(claims(func(c *Claims) { c.Issuer = "elsewhere" }))},
		{"no session", "secret1", sign(claims(func(c *Claims) { c.ID = "" }))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateToken(tt.secret, tt.token); err == nil {
				t.Error("expected token to be rejected")
			}
		})
	}
}
