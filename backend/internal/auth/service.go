package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"plp_smartgrade/backend/internal/activity"
	"plp_smartgrade/backend/internal/shared"
)

const tokenIssuer = "plp-smartgrade"

var (
	// ErrInvalidCode covers wrong, expired, exhausted and reused codes alike
	ErrInvalidCode = fmt.Errorf("%w: invalid or expired login code", shared.ErrUnauthorized)

	// ErrInvalidToken is returned for bad signatures and revoked sessions
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", shared.ErrUnauthorized)
)

// Service implements OTP and magic-link login with JWT sessions
type Service struct {
	store     Store
	mailer    Mailer
	recorder  activity.Recorder
	security  shared.SecurityConfig
	publicURL string
	now       func() time.Time
}

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is returned after a successful verification
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *shared.User `json:"user"`
}

// NewService creates a new auth Service
func NewService(store Store, mailer Mailer, recorder activity.Recorder, security shared.SecurityConfig, publicURL string) *Service {
	return &Service{
		store:     store,
		mailer:    mailer,
		recorder:  recorder,
		security:  security,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// RequestOTP issues a login code and magic link for email. Unknown and
// inactive accounts get the same nil result as known ones.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrInvalidInput)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	user, err := s.store.FindUserByEmail(queryCtx, email)
	if errors.Is(err, shared.ErrNotFound) {
		slog.Debug("login code requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("finding user: %w", err)
	}
	if !user.IsActive {
		return nil
	}

	code, err := generateCode(s.security.OTPLength)
	if err != nil {
		return err
	}
	secret := strings.ReplaceAll(uuid.NewString(), "-", "")

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.security.BCryptCost)
	if err != nil {
		return fmt.Errorf("hashing code: %w", err)
	}
	linkHash, err := bcrypt.GenerateFromPassword([]byte(secret), s.security.BCryptCost)
	if err != nil {
		return fmt.Errorf("hashing link token: %w", err)
	}

	now := s.now()
	challenge := &shared.OTPChallenge{
		ID:            shared.GenerateID("otp"),
		UserID:        user.ID,
		Email:         email,
		CodeHash:      string(codeHash),
		LinkTokenHash: string(linkHash),
		ExpiresAt:     now.Add(s.security.OTPTTL),
		CreatedAt:     now,
	}
	if err := s.store.SaveChallenge(queryCtx, challenge); err != nil {
		return fmt.Errorf("saving challenge: %w", err)
	}

	msg := LoginMail{
		ToEmail:   user.Email,
		ToName:    user.Name,
		Code:      code,
		MagicLink: s.magicLink(challenge.ID + "." + secret),
		ExpiresAt: challenge.ExpiresAt,
	}
	if err := s.mailer.SendLoginCode(queryCtx, msg); err != nil {
		return fmt.Errorf("mailing login code: %w", err)
	}

	activity.Log(ctx, s.recorder, user.ID, shared.ActionOTPRequest, "auth", map[string]interface{}{
		"challenge_id": challenge.ID,
	})
	return nil
}

// VerifyOTP redeems the latest code issued to email
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*LoginResult, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and code are required", shared.ErrInvalidInput)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	challenge, err := s.store.LatestChallenge(queryCtx, email)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return s.redeem(queryCtx, challenge, challenge.CodeHash, code, "otp")
}

// VerifyMagicLink redeems a "<challenge id>.<secret>" link token
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (*LoginResult, error) {
	id, secret, ok := strings.Cut(strings.TrimSpace(token), ".")
	if !ok || id == "" || secret == "" {
		return nil, ErrInvalidCode
	}

	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	challenge, err := s.store.GetChallenge(queryCtx, id)
	if err != nil {
		return nil, s.lookupError(err)
	}
	return s.redeem(queryCtx, challenge, challenge.LinkTokenHash, secret, "magic_link")
}

// ValidateToken checks the signature, the stored session and the account
func (s *Service) ValidateToken(ctx context.Context, token string) (*shared.User, *CustomClaims, error) {
	if token == "" {
		return nil, nil, ErrInvalidToken
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := s.store.SessionExists(queryCtx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("checking session: %w", err)
	}
	if !exists {
		return nil, nil, ErrInvalidToken
	}

	user, err := s.store.GetUser(queryCtx, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("loading user: %w", err)
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: account is inactive", shared.ErrForbidden)
	}
	return user, claims, nil
}

// Logout removes the session of token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", shared.ErrInvalidInput)
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	deleted, err := s.store.DeleteSession(queryCtx, token)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if deleted > 0 {
		if claims, err := s.parseToken(token); err == nil {
			activity.Log(ctx, s.recorder, claims.UserID, shared.ActionLogout, "auth", nil)
		}
	}
	return nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

func (s *Service) redeem(ctx context.Context, c *shared.OTPChallenge, hash, secret, method string) (*LoginResult, error) {
	now := s.now()
	if !c.IsUsable(now, s.security.OTPMaxAttempts) {
		return nil, ErrInvalidCode
	}

	// the attempt is counted before the compare so concurrent guesses
	// cannot all slip under the limit
	claimed, err := s.store.ClaimAttempt(ctx, c.ID, s.security.OTPMaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("counting login attempt: %w", err)
	}
	if !claimed {
		return nil, ErrInvalidCode
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return nil, ErrInvalidCode
	}

	marked, err := s.store.MarkChallengeUsed(ctx, c.ID, now)
	if err != nil {
		return nil, fmt.Errorf("marking challenge used: %w", err)
	}
	if !marked {
		return nil, ErrInvalidCode
	}

	user, err := s.store.GetUser(ctx, c.UserID)
	if err != nil {
		return nil, s.lookupError(err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", shared.ErrForbidden)
	}

	token, expiresAt, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generating token: %w", err)
	}

	session := &shared.Session{
		ID:        shared.GenerateID("sess"),
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	activity.Log(ctx, s.recorder, user.ID, shared.ActionLogin, "auth", map[string]interface{}{
		"method": method,
	})
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) lookupError(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrInvalidCode
	}
	return fmt.Errorf("loading challenge: %w", err)
}

// generateToken creates a signed JWT
func (s *Service) generateToken(userID, role string) (string, time.Time, error) {
	now := s.now()
	expirationTime := now.Add(time.Duration(s.security.JWTExpirationHours) * time.Hour)

	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.security.JWTSecret))
	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature and extracts claims
func (s *Service) parseToken(tokenString string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.security.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) magicLink(token string) string {
	return s.publicURL + "/auth/magic-link?token=" + url.QueryEscape(token)
}

// generateCode returns a zero-padded random numeric code of n digits
func generateCode(n int) (string, error) {
	if n <= 0 {
		n = 6
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
