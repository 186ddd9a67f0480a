// Package token turns a bearer credential into an identity.
//
// A credential is a three segment JWS compact string whose payload carries
// the user id under "id", the portal role under "role" and an optional
// expiry under "exp" (epoch seconds). Depending on the mode the signature is
// ignored (none), checked with a shared secret (hmac) or checked against the
// keys published by an OpenID issuer (oidc).
package token

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"beegate/internal/auth"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the credential is not a three segment token with a JSON object payload
	ErrMalformed = errors.New("malformed token")
	// ErrExpired is returned when the exp claim lies in the past
	ErrExpired = errors.New("token expired")
	// ErrIncomplete is returned when the payload has no id or no role
	ErrIncomplete = errors.New("token is missing id or role")
	// ErrSignature is returned when signature verification fails
	ErrSignature = errors.New("invalid token signature")
)

// Mode selects how signatures are treated
type Mode string

const (
	ModeNone Mode = "none"
	ModeHMAC Mode = "hmac"
	ModeOIDC Mode = "oidc"
)

// Config holds decoder configuration
type Config struct {
	// Mode is none, hmac or oidc
	Mode Mode

	// Secret is the HMAC key for hmac mode
	Secret string

	// OIDCIssuer is the expected issuer for oidc mode
	OIDCIssuer string

	// OIDCJWKSURL skips discovery and fetches keys from this URL
	OIDCJWKSURL string
}

// claimsFunc extracts the payload of a structurally valid token
type claimsFunc func(ctx context.Context, raw string) (map[string]interface{}, error)

// Decoder decodes credentials into identities. It is safe for concurrent use.
type Decoder struct {
	mode   Mode
	claims claimsFunc
	now    func() time.Time
}

// New creates a decoder for the configured mode.
// In oidc mode without a JWKS URL the issuer discovery document is fetched here.
func New(ctx context.Context, cfg Config) (*Decoder, error) {
	switch cfg.Mode {
	case "", ModeNone:
		return NewClaimsOnly(), nil

	case ModeHMAC:
		if cfg.Secret == "" {
			return nil, fmt.Errorf("hmac verification enabled but no secret provided")
		}
		return NewHMAC([]byte(cfg.Secret)), nil

	case ModeOIDC:
		if cfg.OIDCIssuer == "" {
			return nil, fmt.Errorf("oidc verification enabled but no issuer provided")
		}

		// Expiry is checked by the decoder so that it reports ErrExpired in every mode
		oidcConfig := &oidc.Config{
			SkipClientIDCheck: true,
			SkipExpiryCheck:   true,
		}

		if cfg.OIDCJWKSURL != "" {
			keySet := oidc.NewRemoteKeySet(ctx, cfg.OIDCJWKSURL)
			return NewOIDC(oidc.NewVerifier(cfg.OIDCIssuer, keySet, oidcConfig)), nil
		}

		provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OIDC provider: %w", err)
		}
		return NewOIDC(provider.Verifier(oidcConfig)), nil

	default:
		return nil, fmt.Errorf("unknown token verification mode: %q", cfg.Mode)
	}
}

// NewClaimsOnly creates a decoder that reads the payload without checking the signature
func NewClaimsOnly() *Decoder {
	return &Decoder{mode: ModeNone, claims: decodePayload, now: time.Now}
}

// NewHMAC creates a decoder that requires an HS256, HS384 or HS512 signature made with secret
func NewHMAC(secret []byte) *Decoder {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithoutClaimsValidation(),
		jwt.WithJSONNumber(),
	)

	claims := func(_ context.Context, raw string) (map[string]interface{}, error) {
		mc := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(raw, mc, func(*jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrSignature, err)
		}
		return map[string]interface{}(mc), nil
	}

	return &Decoder{mode: ModeHMAC, claims: claims, now: time.Now}
}

// NewOIDC creates a decoder that verifies tokens with an OpenID Connect verifier
func NewOIDC(verifier *oidc.IDTokenVerifier) *Decoder {
	claims := func(ctx context.Context, raw string) (map[string]interface{}, error) {
		idToken, err := verifier.Verify(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignature, err)
		}

		payload := map[string]interface{}{}
		if err := idToken.Claims(&payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return payload, nil
	}

	return &Decoder{mode: ModeOIDC, claims: claims, now: time.Now}
}

// Mode returns the verification mode of this decoder
func (d *Decoder) Mode() Mode {
	return d.mode
}

// Parse decodes raw into an identity or returns why it cannot be trusted
func (d *Decoder) Parse(ctx context.Context, raw string) (*auth.Identity, error) {
	if strings.Count(raw, ".") != 2 {
		return nil, ErrMalformed
	}

	claims, err := d.claims(ctx, raw)
	if err != nil {
		return nil, err
	}

	if exp, ok := numericClaim(claims["exp"]); ok && exp < float64(d.now().UnixMilli())/1000 {
		return nil, ErrExpired
	}

	id, ok := idClaim(claims["id"])
	if !ok {
		return nil, ErrIncomplete
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return nil, ErrIncomplete
	}

	return &auth.Identity{
		ID:     id,
		Role:   role,
		Claims: claims,
	}, nil
}

// Decode is Parse with every failure collapsed to nil
func (d *Decoder) Decode(ctx context.Context, raw string) *auth.Identity {
	identity, err := d.Parse(ctx, raw)
	if err != nil {
		return nil
	}
	return identity
}
