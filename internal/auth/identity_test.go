package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

const testSecret = "test-identity-secret"

func signPayload(t *testing.T, vals url.Values, secret string) string {
	t.Helper()

	var pairs []string
	for key, values := range vals {
		for _, v := range values {
			pairs = append(pairs, fmt.Sprintf("%s=%s", key, v))
		}
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	vals.Set("sig", hex.EncodeToString(mac.Sum(nil)))
	return vals.Encode()
}

func validPayload(t *testing.T) string {
	t.Helper()
	vals := url.Values{}
	vals.Set("sub", "idp-user-42")
	vals.Set("email", "pat@example.com")
	vals.Set("name", "Pat")
	vals.Set("id_verified", "1")
	vals.Set("issued_at", fmt.Sprintf("%d", time.Now().Unix()))
	return signPayload(t, vals, testSecret)
}

func TestVerifyLoginPayload(t *testing.T) {
	payload, err := VerifyLoginPayload(validPayload(t), testSecret, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Subject != "idp-user-42" {
		t.Errorf("subject = %q", payload.Subject)
	}
	if payload.Email != "pat@example.com" || payload.DisplayName != "Pat" {
		t.Errorf("profile fields not extracted: %+v", payload)
	}
	if !payload.IDVerified || payload.BankLinked || payload.WorkEmailVerified {
		t.Errorf("verification flags wrong: %+v", payload)
	}
}

func TestVerifyLoginPayloadRejectsTamper(t *testing.T) {
	raw := validPayload(t)
	tampered := strings.Replace(raw, "idp-user-42", "idp-user-43", 1)
	if _, err := VerifyLoginPayload(tampered, testSecret, 0); err == nil {
		t.Error("tampered payload should be rejected")
	}
}

func TestVerifyLoginPayloadRejectsWrongSecret(t *testing.T) {
	if _, err := VerifyLoginPayload(validPayload(t), "other-secret", 0); err == nil {
		t.Error("payload signed under a different secret should be rejected")
	}
}

func TestVerifyLoginPayloadRejectsStale(t *testing.T) {
	vals := url.Values{}
	vals.Set("sub", "idp-user-42")
	vals.Set("issued_at", fmt.Sprintf("%d", time.Now().Add(-1*time.Hour).Unix()))
	raw := signPayload(t, vals, testSecret)

	if _, err := VerifyLoginPayload(raw, testSecret, 5*time.Minute); err == nil {
		t.Error("stale payload should be rejected")
	}
}

func TestVerifyLoginPayloadRejectsFutureTimestamp(t *testing.T) {
	vals := url.Values{}
	vals.Set("sub", "idp-user-42")
	vals.Set("issued_at", fmt.Sprintf("%d", time.Now().Add(10*time.Minute).Unix()))
	raw := signPayload(t, vals, testSecret)

	if _, err := VerifyLoginPayload(raw, testSecret, 0); err == nil {
		t.Error("future-dated payload should be rejected")
	}
}

func TestVerifyLoginPayloadMissingFields(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"missing sig", "sig"},
		{"missing sub", "sub"},
		{"missing issued_at", "issued_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := url.Values{}
			vals.Set("sub", "idp-user-42")
			vals.Set("issued_at", fmt.Sprintf("%d", time.Now().Unix()))
			raw := signPayload(t, vals, testSecret)

			parsed, _ := url.ParseQuery(raw)
			parsed.Del(tt.omit)
			if _, err := VerifyLoginPayload(parsed.Encode(), testSecret, 0); err == nil {
				t.Errorf("payload without %s should be rejected", tt.omit)
			}
		})
	}
}

func TestVerifyLoginPayloadNoSecret(t *testing.T) {
	if _, err := VerifyLoginPayload(validPayload(t), "", 0); err == nil {
		t.Error("missing server secret should reject all logins")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := GenerateJWT("jwt-secret", userID, "idp-user-42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT("jwt-secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != userID || claims.ExternalID != "idp-user-42" {
		t.Errorf("claims not preserved: %+v", claims)
	}

	if _, err := ParseJWT("wrong-secret", token); err == nil {
		t.Error("token should not parse under a different secret")
	}
}
