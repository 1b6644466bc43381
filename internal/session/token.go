package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"garment_portal_gateway/internal/config"
	"garment_portal_gateway/internal/domain"
	"garment_portal_gateway/internal/platform/crypto"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	tokenIssuer = "garment_portal_gateway"
	sealInfo    = "garment_portal_gateway session access token"
)

// Claims is the payload of the session cookie. It names the session and,
// once signed in, carries enough of the principal to restore the session
// after the gateway restarts. The access token travels sealed.
type Claims struct {
	Identity    *domain.Identity `json:"idn,omitempty"`
	SealedToken string           `json:"tok,omitempty"`
	jwt.RegisteredClaims

	accessToken string
}

// SessionID is the ID of the session the cookie belongs to.
func (c *Claims) SessionID() string {
	return c.ID
}

// Principal returns the principal stored in the claims, or nil.
func (c *Claims) Principal() *domain.Principal {
	if c.Identity == nil {
		return nil
	}
	return &domain.Principal{Identity: c.Identity.Clone(), AccessToken: c.accessToken}
}

// TokenService signs and validates session cookies.
type TokenService struct {
	secret []byte
	aead   cipher.AEAD
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewTokenService creates the cookie signer. Without SESSION_SECRET a
// random per-process secret is used, so sessions do not survive restarts.
func NewTokenService(cfg *config.Config, logger *zap.Logger) (*TokenService, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		key, err := crypto.SigningKey(32)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		logger.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
		secret = key
	}
	aead, err := newSealer(secret)
	if err != nil {
		return nil, err
	}
	return &TokenService{secret: secret, aead: aead, ttl: cfg.SessionTTL, logger: logger.Named("SessionTokens"), now: time.Now}, nil
}

// newSealer derives the access-token key from the signing secret.
func newSealer(secret []byte) (cipher.AEAD, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(sealInfo)), key); err != nil {
		return nil, fmt.Errorf("derive session sealing key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create session sealer: %w", err)
	}
	return aead, nil
}

// seal encrypts token bound to sessionID.
func (s *TokenService) seal(sessionID, token string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(token)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := s.aead.Seal(nonce, nonce, []byte(token), []byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (s *TokenService) open(sessionID, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	if len(raw) < s.aead.NonceSize() {
		return "", errors.New("sealed token too short")
	}
	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(sessionID))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// TTL is the lifetime of an issued token.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for sessionID. p may be nil for a signed-out session.
func (s *TokenService) Issue(sessionID string, p *domain.Principal) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if p != nil && p.Identity != nil {
		claims.Identity = p.Identity.Clone()
		claims.Subject = p.Identity.ID
		if p.AccessToken != "" {
			sealed, err := s.seal(sessionID, p.AccessToken)
			if err != nil {
				s.logger.Error("Failed to seal access token", zap.Error(err))
				return "", time.Time{}, fmt.Errorf("could not seal access token: %w", err)
			}
			claims.SealedToken = sealed
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate checks signature, issuer and expiry and returns the claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug("Session token rejected", zap.Error(err))
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid session token claims")
	}
	if claims.SealedToken != "" {
		access, err := s.open(claims.ID, claims.SealedToken)
		if err != nil {
			s.logger.Debug("Sealed access token rejected", zap.Error(err))
			return nil, fmt.Errorf("invalid session token: %w", err)
		}
		claims.accessToken = access
	}
	return claims, nil
}
