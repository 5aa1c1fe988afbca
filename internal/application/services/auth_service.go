package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/taskflow/internal/domain/entities"
	"github.com/taskmaster/taskflow/internal/infrastructure/config"
	"github.com/taskmaster/taskflow/internal/infrastructure/logger"
	"github.com/taskmaster/taskflow/internal/infrastructure/metrics"
	"github.com/taskmaster/taskflow/internal/ports"
)

// Claims represents the session token claims
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// AuthService handles accounts, sessions and session resolution
type AuthService struct {
	userRepo    ports.UserRepository
	sessionRepo ports.SessionRepository
	cfg         config.SessionConfig
	validator   *Validator
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo ports.UserRepository,
	sessionRepo ports.SessionRepository,
	cfg config.SessionConfig,
	validator *Validator,
	m *metrics.Metrics,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		validator:   validator,
		metrics:     m,
		logger:      log.WithComponent("auth"),
		now:         time.Now,
	}
}

// CreateUser validates and stores a new account without opening a session
func (s *AuthService) CreateUser(ctx context.Context, req ports.RegisterRequest) (*entities.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, entities.ErrEmailTaken
	} else if !errors.Is(err, entities.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &entities.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest, meta ports.SessionMeta) (*ports.AuthResponse, error) {
	user, err := s.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user, meta)
}

// Login checks credentials and opens a new session
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest, meta ports.SessionMeta) (*ports.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			s.logger.LogSecurityEvent("login_unknown_email", "", meta.IPAddress, map[string]interface{}{"email": req.Email})
			return nil, entities.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.LogSecurityEvent("login_bad_password", user.ID.String(), meta.IPAddress, nil)
		return nil, entities.ErrInvalidCredentials
	}

	s.logger.Infow("User logged in", "user_id", user.ID)
	return s.issueSession(ctx, user, meta)
}

// Logout deletes the session behind the credential. Unknown or malformed
// credentials are ignored.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	if credential == "" {
		return nil
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(credential))
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Infow("User logged out", "user_id", session.UserID, "session_id", session.ID)
	return nil
}

// ResolveSession turns credential material into the caller's identity.
// Every failure is reported as entities.ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, credential string) (*entities.Identity, error) {
	identity, reason, err := s.resolve(ctx, credential)
	if err != nil {
		s.metrics.SessionResolution("error")
		return nil, err
	}
	if identity == nil {
		s.metrics.SessionResolution(reason)
		return nil, entities.ErrUnauthorized
	}

	s.metrics.SessionResolution("ok")
	return identity, nil
}

// resolve returns a nil identity plus a reason when the credential is not usable.
func (s *AuthService) resolve(ctx context.Context, credential string) (*entities.Identity, string, error) {
	if credential == "" {
		return nil, "missing", nil
	}

	claims, err := s.parseToken(credential)
	if err != nil {
		s.logger.Debugw("Rejected session token", "error", err)
		return nil, "invalid_token", nil
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(credential))
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, "revoked", nil
		}
		return nil, "", fmt.Errorf("failed to look up session: %w", err)
	}
	if session.IsExpired(s.now()) {
		return nil, "expired", nil
	}
	if session.UserID.String() != claims.UserID || session.ID.String() != claims.SessionID {
		return nil, "mismatch", nil
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			return nil, "unknown_user", nil
		}
		return nil, "", fmt.Errorf("failed to load user: %w", err)
	}

	return &entities.Identity{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Image:     user.Image,
		SessionID: session.ID,
	}, "", nil
}

// PruneSessions removes expired sessions
func (s *AuthService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	s.logger.Infow("Pruned expired sessions", "count", n)
	return n, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *entities.User, meta ports.SessionMeta) (*ports.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.ExpiresIn)
	sessionID := uuid.New()

	claims := Claims{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	session := &entities.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
		IPAddress: optionalString(meta.IPAddress),
		UserAgent: optionalString(meta.UserAgent),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &ports.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: &entities.Identity{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Image:     user.Image,
			SessionID: sessionID,
		},
	}, nil
}

func (s *AuthService) parseToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// requireCaller rejects calls made without an authenticated identity.
func requireCaller(caller *entities.Identity) error {
	if caller == nil || caller.ID == uuid.Nil {
		return entities.ErrUnauthorized
	}
	return nil
}
