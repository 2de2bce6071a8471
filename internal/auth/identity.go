// Package auth turns transport-level claims into a domain.Identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cargo-chat/internal/domain"
)

const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

var ErrMalformedClaims = errors.New("auth: malformed authorizer claims")

// FromAuthorizer reads an API Gateway authorizer context. Cognito user pools
// nest claims under "claims" (sub, custom:role); Lambda authorizers put
// userId and role at the top level. No user id means anonymous.
//
// A malformed context returns Anonymous together with ErrMalformedClaims so
// the caller can log it and carry on.
func FromAuthorizer(authorizer map[string]any) (domain.Identity, error) {
	if len(authorizer) == 0 {
		return domain.Anonymous(), nil
	}

	if raw, ok := authorizer["claims"]; ok {
		claims, ok := raw.(map[string]any)
		if !ok {
			return domain.Anonymous(), fmt.Errorf("%w: claims is %T", ErrMalformedClaims, raw)
		}
		return identity(stringClaim(claims, "sub"), firstClaim(claims, "custom:role", "role"))
	}
	return identity(firstClaim(authorizer, "userId", "principalId"), stringClaim(authorizer, "role"))
}

// FromHeaders reads identity set by a trusted proxy in front of the server.
func FromHeaders(h http.Header) (domain.Identity, error) {
	return identity(h.Get(HeaderUserID), h.Get(HeaderUserRole))
}

func identity(userID, role string) (domain.Identity, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Anonymous(), nil
	}
	r := domain.ParseRole(role)
	if r == "" {
		return domain.Anonymous(), fmt.Errorf("%w: user %q has no role", ErrMalformedClaims, userID)
	}
	return domain.Identity{Authenticated: true, Role: r, UserID: userID}, nil
}

func stringClaim(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func firstClaim(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(stringClaim(m, k)); s != "" {
			return s
		}
	}
	return ""
}
