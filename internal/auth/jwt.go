// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/core"
	"github.com/carterperez-dev/brasil-no-mundo/internal/domain"
)

const tokenTypeAccess = "access"

type JWTManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	config     config.JWTConfig
	now        func() time.Time
}

// NewJWTManager loads the ES256 signing key from cfg.PrivateKeyPath, or
// generates a throwaway one when no path is configured. Tokens signed with
// a throwaway key do not survive a restart.
func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	var (
		privateKey jwk.Key
		err        error
	)

	if cfg.PrivateKeyPath != "" {
		privateKey, err = loadPrivateKey(cfg.PrivateKeyPath)
	} else {
		privateKey, err = generatePrivateKey()
	}
	if err != nil {
		return nil, err
	}

	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	keyID := uuid.New().String()[:8]
	if setErr := privateKey.Set(jwk.KeyIDKey, keyID); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	if setErr := publicKey.Set(jwk.KeyUsageKey, "sig"); setErr != nil {
		return nil, fmt.Errorf("set key usage: %w", setErr)
	}

	publicJWKS := jwk.NewSet()
	if addErr := publicJWKS.AddKey(publicKey); addErr != nil {
		return nil, fmt.Errorf("add key to set: %w", addErr)
	}

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		config:     cfg,
		now:        time.Now,
	}, nil
}

func loadPrivateKey(path string) (jwk.Key, error) {
	privateKeyPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return privateKey, nil
}

func generatePrivateKey() (jwk.Key, error) {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	key, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}

	return key, nil
}

// WritePrivateKey persists a fresh P-256 key as PEM so restarts keep
// sessions valid.
func WritePrivateKey(path string) error {
	key, err := generatePrivateKey()
	if err != nil {
		return err
	}

	privatePEM, err := jwk.Pem(key)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}

	if writeErr := os.WriteFile(path, privatePEM, 0o600); writeErr != nil {
		return fmt.Errorf("write private key: %w", writeErr)
	}

	return nil
}

// SessionClaims is what an access token carries. Role and Tier are a
// snapshot taken at issuance and are re-resolved against the store on
// every verification.
type SessionClaims struct {
	UserID       string
	Name         string
	Role         string
	Tier         string
	Avatar       string
	TokenVersion int
	ExpiresAt    time.Time
}

func (m *JWTManager) CreateAccessToken(
	u domain.User,
) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(u.ID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim("name", u.Name).
		Claim("role", u.Role).
		Claim("tier", u.Tier).
		Claim("avatar", u.Avatar).
		Claim("token_version", u.TokenVersion).
		Claim("type", tokenTypeAccess).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return string(signed), expiresAt, nil
}

// ParseAccessToken checks signature, issuer, audience and lifetime.
// Failures wrap core.ErrTokenExpired or core.ErrTokenInvalid.
func (m *JWTManager) ParseAccessToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil ||
		tokenType != tokenTypeAccess {
		return nil, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	claims := &SessionClaims{UserID: subject}

	//nolint:errcheck // display claims are optional
	_ = token.Get("name", &claims.Name)
	//nolint:errcheck // display claims are optional
	_ = token.Get("avatar", &claims.Avatar)
	//nolint:errcheck // role and tier are re-read from the store
	_ = token.Get("role", &claims.Role)
	//nolint:errcheck // role and tier are re-read from the store
	_ = token.Get("tier", &claims.Tier)

	var versionFloat float64
	if err := token.Get("token_version", &versionFloat); err != nil {
		return nil, fmt.Errorf(
			"verify token: missing token_version claim: %w",
			core.ErrTokenInvalid,
		)
	}
	claims.TokenVersion = int(versionFloat)

	if exp, ok := token.Expiration(); ok {
		claims.ExpiresAt = exp
	}

	return claims, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}

func (m *JWTManager) JWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(
				w,
				"Internal Server Error",
				http.StatusInternalServerError,
			)
			return
		}
	}
}

type RefreshTokenData struct {
	Token     string
	Hash      string
	ExpiresAt time.Time
	FamilyID  string
}

func (m *JWTManager) CreateRefreshToken(familyID string) (*RefreshTokenData, error) {
	token, err := core.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if familyID == "" {
		familyID = uuid.New().String()
	}

	return &RefreshTokenData{
		Token:     token,
		Hash:      core.HashToken(token),
		ExpiresAt: m.now().Add(m.config.RefreshTokenExpire),
		FamilyID:  familyID,
	}, nil
}
