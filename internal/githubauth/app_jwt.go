package githubauth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// GitHub rejects application JWTs valid for longer than ten minutes; the
// issued-at claim is backdated to absorb clock drift between hosts.
const (
	appJWTClockDriftAllowanceConstant = 60 * time.Second
	appJWTLifetimeConstant            = 9 * time.Minute
)

const (
	privateKeyParseErrorTemplateConstant = "unable to parse application private key: %w"
	jwtSigningErrorTemplateConstant      = "unable to sign application JWT: %w"
)

// GenerateAppJWT mints an RS256-signed GitHub App JWT issued at the supplied time.
func GenerateAppJWT(credentials AppCredentials, issuedAt time.Time) (string, error) {
	if validationError := credentials.Validate(); validationError != nil {
		return "", validationError
	}

	signingKey, parseError := jwt.ParseRSAPrivateKeyFromPEM(credentials.PrivateKeyPEM)
	if parseError != nil {
		return "", fmt.Errorf(privateKeyParseErrorTemplateConstant, parseError)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatInt(credentials.ApplicationID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt.Add(-appJWTClockDriftAllowanceConstant)),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(appJWTLifetimeConstant)),
	}

	signedToken, signingError := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(signingKey)
	if signingError != nil {
		return "", fmt.Errorf(jwtSigningErrorTemplateConstant, signingError)
	}

	return signedToken, nil
}
