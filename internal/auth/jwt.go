package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager verifies RS256 authority tokens. Tokens are minted by the
// aviation authority out-of-band; this service only holds the public key.
// User and session management are external collaborators.
type JWTManager struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewJWTManager loads the PEM public key at publicPath.
func NewJWTManager(publicPath, issuer string) (*JWTManager, error) {
	pubPem, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPem)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return &JWTManager{publicKey: pubKey, issuer: issuer}, nil
}

// NewJWTManagerFromKey wraps an in-memory key; used by tests.
func NewJWTManagerFromKey(pub *rsa.PublicKey, issuer string) *JWTManager {
	return &JWTManager{publicKey: pub, issuer: issuer}
}

// VerifyToken checks the RS256 signature, expiry and issuer and returns the
// claims.
func (m *JWTManager) VerifyToken(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodRS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	}, jwt.WithLeeway(5*time.Second), jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// HasRole reports whether the claims carry role in their "roles" claim.
func HasRole(claims jwt.MapClaims, role string) bool {
	raw, ok := claims["roles"].([]interface{})
	if !ok {
		return false
	}
	for _, r := range raw {
		if s, ok := r.(string); ok && s == role {
			return true
		}
	}
	return false
}
