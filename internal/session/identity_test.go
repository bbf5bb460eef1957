package session

import (
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/model"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name    string
		profile config.Profile
		want    model.ID
		wantErr error
	}{
		{"explicit user id", config.Profile{UserID: 5}, 5, nil},
		{"explicit beats token", config.Profile{UserID: 5, Token: signed(t, jwt.MapClaims{"userId": 9})}, 5, nil},
		{"numeric claim", config.Profile{Token: signed(t, jwt.MapClaims{"userId": 9})}, 9, nil},
		{"string nameid", config.Profile{Token: signed(t, jwt.MapClaims{"nameid": "42"})}, 42, nil},
		{"sub fallback", config.Profile{Token: signed(t, jwt.MapClaims{"sub": "17"})}, 17, nil},
		{"non numeric sub", config.Profile{Token: signed(t, jwt.MapClaims{"sub": "alice"})}, 0, ErrNoIdentity},
		{"nothing", config.Profile{}, 0, ErrNoIdentity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ResolveIdentity(&tt.profile)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if id.UserID != tt.want {
				t.Errorf("UserID = %d, want %d", id.UserID, tt.want)
			}
			if id.Token != tt.profile.Token {
				t.Error("token should be carried through")
			}
		})
	}
}

func TestResolveIdentityMalformedToken(t *testing.T) {
	_, err := ResolveIdentity(&config.Profile{Token: "not-a-jwt"})
	if err == nil || errors.Is(err, ErrNoIdentity) {
		t.Errorf("err = %v, want a parse error", err)
	}
}
