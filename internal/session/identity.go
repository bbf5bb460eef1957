package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/matheus3301/jobdesk/internal/config"
	"github.com/matheus3301/jobdesk/internal/model"
)

// ErrNoIdentity means neither the profile nor the token names a user.
var ErrNoIdentity = errors.New("no user identity: set user_id or a token carrying a user claim")

// Identity is the authenticated user a session acts for.
type Identity struct {
	UserID model.ID
	Token  string
}

// Claims checked for a numeric user id, in order.
var userClaims = []string{
	"userId",
	"user_id",
	"nameid",
	"http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier",
	"sub",
}

// ResolveIdentity prefers an explicit user_id and otherwise reads the user
// claim from the bearer token. The token signature is not checked here;
// the backend does that on every request.
func ResolveIdentity(p *config.Profile) (Identity, error) {
	id := Identity{Token: p.Token}
	if p.UserID > 0 {
		id.UserID = model.ID(p.UserID)
		return id, nil
	}
	if p.Token == "" {
		return Identity{}, ErrNoIdentity
	}
	uid, err := userFromToken(p.Token)
	if err != nil {
		return Identity{}, err
	}
	id.UserID = uid
	return id, nil
}

func userFromToken(raw string) (model.ID, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}
	for _, name := range userClaims {
		v, ok := claims[name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			if val > 0 && val == float64(int(val)) {
				return model.ID(val), nil
			}
		case string:
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				return model.ID(n), nil
			}
		}
	}
	return 0, ErrNoIdentity
}
