package hipaa

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/andreeamiut/HealthcareTestAutomationFramework/internal/platform/errs"
)

// Config carries the key material for the security helper. It arrives from
// the external configuration loader; this package never reads the
// environment itself.
type Config struct {
	// EncryptionKey is a 64-character hex string encoding a 32-byte
	// AES-256 key.
	EncryptionKey string
	// JWTSecret signs HS256 tokens issued for synthetic users.
	JWTSecret string
}

// Service encrypts, decrypts, and masks sensitive fixture values, hashes
// credentials, and issues short-lived tokens for synthetic users. Key
// material is fixed at construction and read-only afterwards, so a Service
// may be shared read-only across parallel test workers.
type Service struct {
	encryptor *phiEncryptor
	jwtSecret []byte
	logger    zerolog.Logger
}

// NewService validates the key material and fails fast on absent or
// malformed keys. There is no plaintext fallback: a misconfigured key is a
// security failure, not a degraded mode.
func NewService(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.EncryptionKey == "" {
		return nil, errs.Security("encryption key is not configured")
	}
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindSecurity, err, "encryption key is not valid hex")
	}
	enc, err := newPHIEncryptor(key)
	if err != nil {
		return nil, err
	}

	logger = logger.With().Str("component", "hipaa").Logger()
	logger.Info().Msg("PHI field-level encryption enabled")
	return &Service{
		encryptor: enc,
		jwtSecret: []byte(cfg.JWTSecret),
		logger:    logger,
	}, nil
}

// Encrypt returns an opaque reversible blob for a sensitive value.
func (s *Service) Encrypt(plaintext string) (string, error) {
	return s.encryptor.encrypt(plaintext)
}

// Decrypt reverses Encrypt. Decrypting a blob produced under a different
// key fails closed.
func (s *Service) Decrypt(blob string) (string, error) {
	return s.encryptor.decrypt(blob)
}

// HashPassword hashes a synthetic user credential with bcrypt.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches a bcrypt hash.
func (s *Service) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 token for a synthetic user, valid for one hour.
func (s *Service) IssueToken(subject string, claims map[string]any) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", errs.Security("jwt secret is not configured")
	}
	now := time.Now().UTC()
	mapClaims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	for k, v := range claims {
		mapClaims[k] = v
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims).SignedString(s.jwtSecret)
	if err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "sign token")
	}
	return token, nil
}

// VerifyToken validates an HS256 token and returns its claims.
func (s *Service) VerifyToken(token string) (map[string]any, error) {
	if len(s.jwtSecret) == 0 {
		return nil, errs.Security("jwt secret is not configured")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.Security("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindSecurity, err, "verify token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errs.Security("token claims are not valid")
	}
	return claims, nil
}

// passwordAlphabet groups the character classes GeneratePassword draws from.
var passwordAlphabet = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"0123456789",
	"!@#$%^&*",
}

// GeneratePassword returns a random credential containing at least one
// character from each class. Lengths below 8 are raised to 8.
func (s *Service) GeneratePassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	all := ""
	for _, set := range passwordAlphabet {
		all += set
	}

	out := make([]byte, 0, length)
	for _, set := range passwordAlphabet {
		c, err := randomFrom(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomFrom(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", errs.Wrap(errs.KindSecurity, err, "shuffle password")
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func randomFrom(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, errs.Wrap(errs.KindSecurity, err, "generate password")
	}
	return set[n.Int64()], nil
}

// GenerateAPIKey returns a URL-safe random key for synthetic API clients.
func (s *Service) GenerateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "generate api key")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// GenerateKey returns fresh AES-256 key material in the hex form Config
// expects.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "generate encryption key")
	}
	return hex.EncodeToString(key), nil
}
