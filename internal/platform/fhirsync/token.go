package fhirsync

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ProfileClaim holds the insurant's KVNR in access tokens of the
// prescription service.
const ProfileClaim = "idNummer"

// ProfileFromToken reads the profile id from an access token. The signature
// is not checked; the token is only forwarded to the service that issued it.
func ProfileFromToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("access token is required")
	}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	unverified, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("parsing access token: %w", err)
	}
	claims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid access token claims")
	}
	profile, _ := claims[ProfileClaim].(string)
	if profile == "" {
		return "", fmt.Errorf("access token missing %s claim", ProfileClaim)
	}
	return profile, nil
}
