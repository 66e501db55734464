package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"railbite/internal/testutil"
	"railbite/models"
)

const testSecret = "test-secret"

func TestParseFromMD_ValidBearer(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, 7, "alice", "customer")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	p, err := ParseFromMD(ctx, testSecret)
	if err != nil {
		t.Fatalf("ParseFromMD: %v", err)
	}
	if p.UserID != 7 || p.Name != "alice" || p.Role != models.RoleCustomer {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestParseFromMD_MissingHeader(t *testing.T) {
	_, err := ParseFromMD(context.Background(), testSecret)
	if err == nil {
		t.Fatalf("expected error for missing metadata")
	}
}

func TestParseBearer_InvalidScheme(t *testing.T) {
	tok := testutil.GenerateJWTHS256(t, testSecret, 1, "bob", "delivery")
	if _, err := ParseBearer("Basic "+tok, testSecret); err == nil {
		t.Fatalf("expected error for non-Bearer scheme")
	}
	if _, err := ParseBearer("", testSecret); err == nil {
		t.Fatalf("expected error for empty header")
	}
	if _, err := parseJWT(tok, "wrong"); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParseJWT_ClaimsValidation(t *testing.T) {
	// Missing subject
	if _, err := parseJWT(testutil.GenerateJWTHS256(t, testSecret, 0, "x", "admin"), testSecret); err == nil {
		t.Fatalf("expected invalid claims error for missing subject")
	}
	// Unknown role
	if _, err := parseJWT(testutil.GenerateJWTHS256(t, testSecret, 1, "x", "courier"), testSecret); err == nil {
		t.Fatalf("expected invalid role error")
	}
	// Wrong algorithm
	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "name": "x", "role": "admin"})
	s, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := parseJWT(s, testSecret); err == nil {
		t.Fatalf("expected unsigned token to be rejected")
	}
}

func TestIssueToken_RoundTripAndExpiry(t *testing.T) {
	now := time.Now()
	tok, err := IssueToken(testSecret, Principal{UserID: 42, Name: "Admin", Role: models.RoleAdmin}, time.Hour, now)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	p, err := ParseBearer("Bearer "+tok, testSecret)
	if err != nil {
		t.Fatalf("ParseBearer: %v", err)
	}
	if p.UserID != 42 || !p.IsAdmin() {
		t.Fatalf("unexpected principal: %+v", p)
	}

	expired, err := IssueToken(testSecret, Principal{UserID: 42, Name: "Admin", Role: models.RoleAdmin}, time.Minute, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := parseJWT(expired, testSecret); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
	if _, err := IssueToken("", Principal{}, time.Hour, now); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestBcrypt_HashAndCompare(t *testing.T) {
	h := NewBcrypt(4)
	hash, err := h.Hash("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !h.Compare(hash, "s3cret!") || h.Compare(hash, "wrong") {
		t.Fatalf("compare mismatch")
	}
}
