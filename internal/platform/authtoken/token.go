// Package authtoken issues and verifies the bearer tokens that attest a
// caller's account identity at the transport boundary.
//
// Tokens are EdDSA-signed JWTs. The subject claim carries the account
// identifier; issuer and audience pin the token to one ledger deployment.
package authtoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/rbac-ledger/internal/platform/errors"
)

// DefaultTTL bounds the lifetime of issued tokens.
const DefaultTTL = time.Hour

// Claims captures validated token claims.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	JWTID     string
}

// VerifierConfig defines how tokens are verified.
type VerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// IssuerConfig defines how tokens are signed.
type IssuerConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PrivateKey
	TTL      time.Duration
	Now      func() time.Time
}

// Verifier checks bearer tokens.
type Verifier struct {
	cfg VerifierConfig
}

// NewVerifier validates cfg and returns a verifier.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	cfg.Audience = strings.TrimSpace(cfg.Audience)
	if cfg.Issuer == "" {
		return nil, errors.New("token issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("token audience is required")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify parses token and returns its claims.
func (v *Verifier) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	if v == nil {
		return Claims{}, errors.New("token verifier is not configured")
	}

	var parsed jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != v.cfg.Issuer {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"token issuer mismatch",
			map[string]string{"Field": "issuer"},
		)
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeUnauthenticated,
			"token audience mismatch",
			map[string]string{"Field": "audience"},
		)
	}
	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token subject is required")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token exp is required")
	}
	now := v.cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "token not active yet")
	}

	claims := Claims{
		Subject:   subject,
		Issuer:    parsed.Issuer,
		Audience:  []string(parsed.Audience),
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// Issue signs a token for subject.
func Issue(subject string, cfg IssuerConfig) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	if strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "" {
		return "", errors.New("token issuer and audience are required")
	}
	if len(cfg.Key) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("token private key must be %d bytes", ed25519.PrivateKeySize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	jti, err := newJTI()
	if err != nil {
		return "", err
	}
	now := cfg.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    strings.TrimSpace(cfg.Issuer),
		Audience:  jwt.ClaimStrings{strings.TrimSpace(cfg.Audience)},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(cfg.Key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GenerateKey returns a fresh key pair encoded as raw base64.
func GenerateKey() (publicKey, privateKey string, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate key: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(pub), base64.RawStdEncoding.EncodeToString(priv), nil
}

// DecodePublicKey parses a base64 Ed25519 public key.
func DecodePublicKey(value string) (ed25519.PublicKey, error) {
	keyBytes, err := decodeBase64(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode token public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("token public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}

// DecodePrivateKey parses a base64 Ed25519 private key.
func DecodePrivateKey(value string) (ed25519.PrivateKey, error) {
	keyBytes, err := decodeBase64(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode token private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("token private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(keyBytes), nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid", err)
}

func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

func newJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
