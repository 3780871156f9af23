package utils

import "testing"

func TestJwtRoundTrip(t *testing.T) {
	signed, err := JwtGenerate("f2c1c9a4-0000-0000-0000-000000000001", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	token, err := JwtValidate(signed)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if !token.Valid {
		t.Fatal("expected a valid token")
	}
	claims, ok := token.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", token.Claims)
	}
	if claims.ID != "f2c1c9a4-0000-0000-0000-000000000001" {
		t.Fatalf("wrong id claim: %q", claims.ID)
	}
	if claims.Email != "admin@example.com" || claims.Role != "admin" {
		t.Fatalf("wrong claims: %+v", claims)
	}
}

func TestJwtValidate_RejectsGarbage(t *testing.T) {
	if _, err := JwtValidate("not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}
