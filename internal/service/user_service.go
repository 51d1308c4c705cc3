package service

import (
	"context"
	"errors"
	"strings"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errPrimaryOnly = apperror.Forbidden("only the primary administrator can manage administrator roles")

type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput, caller Caller) (*model.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput, caller Caller) (*model.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID, caller Caller) error
	UpdateUserPrivileges(ctx context.Context, id uuid.UUID, privilegeCodes []string, caller Caller) (*model.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error)

	ListAdminRequests(ctx context.Context, caller Caller) ([]model.UserResponse, error)
	DecideAdminRequest(ctx context.Context, id uuid.UUID, approve bool, caller Caller) (*model.UserResponse, error)
	MakeAdmin(ctx context.Context, id uuid.UUID, caller Caller) (*model.UserResponse, error)
	RemoveAdmin(ctx context.Context, id uuid.UUID, caller Caller) (*model.UserResponse, error)
}

type CreateUserInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"first_name" validate:"required,notblank,max=100"`
	LastName    string `json:"last_name" validate:"required,notblank,max=100"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	RoleID      uint   `json:"role_id" validate:"required"`
}

type UpdateUserInput struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FirstName   string  `json:"first_name" validate:"required,notblank,max=100"`
	LastName    string  `json:"last_name" validate:"required,notblank,max=100"`
	PhoneNumber string  `json:"phone_number" validate:"max=20"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	events        EventPublisher
}

func NewUserService(
	userRepo repository.UserRepository,
	privilegeRepo repository.PrivilegeRepository,
	roleRepo repository.RoleRepository,
	events EventPublisher,
) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		events:        publisherOrNop(events),
	}
}

func (s *userService) emailTaken(ctx context.Context, email string) error {
	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return ErrEmailExists
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return apperror.Internal("failed to check email", err)
}

func (s *userService) CreateUser(ctx context.Context, in CreateUserInput, caller Caller) (*model.UserResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationErr(&in); err != nil {
		return nil, err
	}
	if err := s.emailTaken(ctx, in.Email); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.FindByID(ctx, in.RoleID)
	if err != nil {
		return nil, lookupErr(err, "role not found")
	}
	if role.Code == model.RoleAdmin && !caller.IsPrimaryAdmin {
		return nil, errPrimaryOnly
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
	user.CreatedBy = caller.ID.String()
	user.UpdatedBy = caller.ID.String()
	if err := user.SetPassword(in.Password); err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperror.Internal("failed to create user", err)
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput, caller Caller) (*model.UserResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationErr(&in); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if user.IsAdmin() && user.ID != caller.ID && !caller.IsPrimaryAdmin {
		return nil, apperror.Forbidden("only the primary administrator can edit another administrator")
	}
	if in.Email != user.Email {
		if err := s.emailTaken(ctx, in.Email); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{
		"email":        in.Email,
		"first_name":   strings.TrimSpace(in.FirstName),
		"last_name":    strings.TrimSpace(in.LastName),
		"phone_number": in.PhoneNumber,
		"updated_by":   caller.ID.String(),
	}
	if in.IsActive != nil {
		if !*in.IsActive && user.IsPrimaryAdmin {
			return nil, apperror.Forbidden("the primary administrator cannot be deactivated")
		}
		fields["is_active"] = *in.IsActive
	}
	if in.Password != nil && *in.Password != "" {
		if err := user.SetPassword(*in.Password); err != nil {
			return nil, apperror.Internal("failed to hash password", err)
		}
		fields["password"] = user.Password
	}

	if err := s.userRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, apperror.Internal("failed to update user", err)
	}
	return s.GetUserByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID, caller Caller) error {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return lookupErr(err, ErrUserNotFound.Message)
	}
	if user.ID == caller.ID {
		return apperror.Forbidden("cannot delete your own account")
	}
	if user.IsPrimaryAdmin {
		return apperror.Forbidden("the primary administrator cannot be deleted")
	}
	if user.IsAdmin() && !caller.IsPrimaryAdmin {
		return errPrimaryOnly
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return apperror.Internal("failed to delete user", err)
	}
	return nil
}

func (s *userService) UpdateUserPrivileges(ctx context.Context, id uuid.UUID, privilegeCodes []string, caller Caller) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if user.IsPrimaryAdmin && !caller.IsPrimaryAdmin {
		return nil, errPrimaryOnly
	}

	privileges, err := s.privilegeRepo.FindByCodes(ctx, privilegeCodes)
	if err != nil {
		return nil, apperror.Internal("failed to find privileges", err)
	}
	if len(privileges) != len(uniqueStrings(privilegeCodes)) {
		return nil, apperror.InvalidArgument("unknown privilege code")
	}

	if err := s.userRepo.UpdatePrivileges(ctx, id, privileges); err != nil {
		return nil, apperror.Internal("failed to update privileges", err)
	}
	if err := s.userRepo.UpdateFields(ctx, id, map[string]interface{}{"updated_by": caller.ID.String()}); err != nil {
		return nil, apperror.Internal("failed to update user", err)
	}
	return s.GetUserByID(ctx, id)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}
	return toResponses(users), nil
}

func toResponses(users []model.User) []model.UserResponse {
	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	response := user.ToResponse()
	return &response, nil
}

func (s *userService) ListAdminRequests(ctx context.Context, caller Caller) ([]model.UserResponse, error) {
	if !caller.IsPrimaryAdmin {
		return nil, errPrimaryOnly
	}
	users, err := s.userRepo.FindPendingAdminRequests(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list admin requests", err)
	}
	return toResponses(users), nil
}

// DecideAdminRequest grants or declines a pending admin-role request.
func (s *userService) DecideAdminRequest(ctx context.Context, id uuid.UUID, approve bool, caller Caller) (*model.UserResponse, error) {
	if !caller.IsPrimaryAdmin {
		return nil, errPrimaryOnly
	}
	if id == caller.ID {
		return nil, apperror.Forbidden("cannot decide your own admin request")
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if !user.IsAdminRequestPending {
		return nil, apperror.InvalidState("user has no pending admin request")
	}

	if approve {
		if err := s.changeRole(ctx, user.ID, model.RoleAdmin); err != nil {
			return nil, err
		}
	} else {
		err := s.userRepo.UpdateFields(ctx, id, map[string]interface{}{
			"is_admin_request_pending": false,
			"admin_requested_at":       nil,
			"updated_by":               caller.ID.String(),
		})
		if err != nil {
			return nil, apperror.Internal("failed to update admin request", err)
		}
	}

	action := "admin_request_rejected"
	if approve {
		action = "admin_request_approved"
	}
	s.events.Publish(ws.Event{
		Type:   ws.TypeUserStatus,
		Action: action,
		Data:   map[string]string{"user_id": id.String()},
		User:   caller.actor(),
	})
	return s.GetUserByID(ctx, id)
}

func (s *userService) MakeAdmin(ctx context.Context, id uuid.UUID, caller Caller) (*model.UserResponse, error) {
	if !caller.IsPrimaryAdmin {
		return nil, errPrimaryOnly
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if user.IsAdmin() {
		return nil, apperror.InvalidState("user is already an administrator")
	}
	if err := s.changeRole(ctx, id, model.RoleAdmin); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *userService) RemoveAdmin(ctx context.Context, id uuid.UUID, caller Caller) (*model.UserResponse, error) {
	if !caller.IsPrimaryAdmin {
		return nil, errPrimaryOnly
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, ErrUserNotFound.Message)
	}
	if user.IsPrimaryAdmin {
		return nil, apperror.Forbidden("the primary administrator cannot lose the admin role")
	}
	if !user.IsAdmin() {
		return nil, apperror.InvalidState("user is not an administrator")
	}
	if err := s.changeRole(ctx, id, model.RoleEmployee); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

func (s *userService) changeRole(ctx context.Context, id uuid.UUID, roleCode string) error {
	role, err := s.roleRepo.FindByCode(ctx, roleCode)
	if err != nil {
		return lookupErr(err, "role not found")
	}
	if err := s.userRepo.ChangeRole(ctx, id, role.ID, role.Privileges); err != nil {
		return apperror.Internal("failed to change role", err)
	}
	return nil
}
