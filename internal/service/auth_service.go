package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/ws"
	"go-stock-tracker/pkg/jwt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("invalid email or password")
	ErrUserNotFound       = apperror.NotFound("user not found")
	ErrUserInactive       = apperror.Forbidden("user account is inactive")
	ErrWrongPassword      = apperror.InvalidArgument("current password is incorrect")
	ErrSessionTimeout     = apperror.Unauthorized("session expired due to inactivity")
	ErrSessionReplaced    = apperror.Unauthorized("session expired (logged in on another device)")
	ErrEmailExists        = apperror.Conflict("email already exists")
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, in RegisterInput) (*model.UserResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
	RefreshToken(ctx context.Context, userID uuid.UUID) (*LoginResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*TokenValidationResponse, error)
	Heartbeat(ctx context.Context, userID uuid.UUID) error
}

type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	FirstName    string `json:"first_name" validate:"required,notblank,max=100"`
	LastName     string `json:"last_name" validate:"required,notblank,max=100"`
	PhoneNumber  string `json:"phone_number" validate:"max=20"`
	RequestAdmin bool   `json:"request_admin"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expires_at"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	tokens      *jwt.Manager
	tokenTTL    time.Duration
	idleTimeout time.Duration
	events      EventPublisher
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	tokens *jwt.Manager,
	tokenTTL, idleTimeout time.Duration,
	events EventPublisher,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
		idleTimeout: idleTimeout,
		events:      publisherOrNop(events),
		now:         time.Now,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// A fresh token version logs out every other session of this user.
	version := uuid.New().String()
	now := s.now()
	if err := s.userRepo.UpdateSession(ctx, user.ID, version, now); err != nil {
		return nil, apperror.Internal("failed to update session", err)
	}
	user.TokenVersion = version
	user.LastSeenAt = &now

	return s.issue(user)
}

func (s *authService) issue(user *model.User) (*LoginResponse, error) {
	token, err := s.tokens.GenerateToken(jwt.Subject{
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.FullName(),
		RoleCode:       user.RoleCode(),
		IsPrimaryAdmin: user.IsPrimaryAdmin,
		Privileges:     user.GetPrivilegeCodes(),
		TokenVersion:   user.TokenVersion,
	})
	if err != nil {
		return nil, apperror.Internal("failed to generate token", err)
	}

	return &LoginResponse{
		Token:      token,
		ExpiresAt:  s.now().Add(s.tokenTTL),
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

// Register creates an employee account. RequestAdmin queues an admin-role request for the primary administrator.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.UserResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationErr(&in); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Internal("failed to check email", err)
	}

	role, err := s.roleRepo.FindByCode(ctx, model.RoleEmployee)
	if err != nil {
		return nil, lookupErr(err, "employee role is not configured")
	}

	user := &model.User{
		Email:       in.Email,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		PhoneNumber: in.PhoneNumber,
		RoleID:      &role.ID,
		IsActive:    true,
		Privileges:  role.Privileges,
	}
	if in.RequestAdmin {
		now := s.now()
		user.IsAdminRequestPending = true
		user.AdminRequestedAt = &now
	}
	user.CreatedBy = "self-registration"
	user.UpdatedBy = "self-registration"
	if err := user.SetPassword(in.Password); err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}

	created, err := s.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, lookupErr(err, "user not found")
	}
	if created.IsAdminRequestPending {
		s.events.Publish(ws.Event{
			Type:    ws.TypeUserStatus,
			Action:  "admin_requested",
			Data:    map[string]string{"user_id": created.ID.String(), "email": created.Email},
			Message: created.FullName() + " requested administrator access",
		})
	}
	resp := created.ToResponse()
	return &resp, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return lookupErr(err, ErrUserNotFound.Message)
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if len(newPassword) < 6 {
		return apperror.InvalidArgument("new password must be at least 6 characters")
	}

	if err := user.SetPassword(newPassword); err != nil {
		return apperror.Internal("failed to hash new password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperror.Internal("failed to update password", err)
	}
	// Existing sessions end with the old password.
	if err := s.userRepo.UpdateSession(ctx, user.ID, uuid.New().String(), s.now()); err != nil {
		return apperror.Internal("failed to reset session", err)
	}
	return nil
}

// ValidateToken checks signature, the single-session version and the idle timeout.
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.Unauthorized(err.Error())
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	if user.LastSeenAt == nil || s.now().Sub(*user.LastSeenAt) > s.idleTimeout {
		return nil, ErrSessionTimeout
	}

	return validationResponse(user), nil
}

func validationResponse(user *model.User) *TokenValidationResponse {
	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}
}

// RefreshToken reissues a token for the current session, picking up role or privilege changes.
func (s *authService) RefreshToken(ctx context.Context, userID uuid.UUID) (*LoginResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if err := s.userRepo.UpdateLastSeen(ctx, userID, s.now()); err != nil {
		return nil, apperror.Internal("failed to update session", err)
	}
	return s.issue(user)
}

func (s *authService) Profile(ctx context.Context, userID uuid.UUID) (*TokenValidationResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	return validationResponse(user), nil
}

func (s *authService) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	now := s.now()
	if err := s.userRepo.UpdateLastSeen(ctx, userID, now); err != nil {
		return apperror.Internal("failed to update heartbeat", err)
	}

	s.events.Publish(ws.Event{
		Type:   ws.TypeUserStatus,
		Action: "online",
		Data: map[string]interface{}{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": now,
		},
		At: now,
	})
	return nil
}
