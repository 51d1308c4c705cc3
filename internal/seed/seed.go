package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-stock-tracker/internal/config"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RolesAndPrivileges creates the default privileges and roles, and gives roles
// without privileges their default set.
func RolesAndPrivileges(ctx context.Context, db *gorm.DB) error {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	if err := privilegeRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	all, err := privilegeRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	// ADMIN gets everything
	adminRole, err := roleRepo.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	if len(adminRole.Privileges) == 0 {
		if err := roleRepo.AssignPrivileges(ctx, adminRole, all); err != nil {
			return fmt.Errorf("assign admin privileges: %w", err)
		}
	}

	employeeRole, err := roleRepo.FindByCode(ctx, model.RoleEmployee)
	if err != nil {
		return err
	}
	if len(employeeRole.Privileges) == 0 {
		employeePrivileges, err := privilegeRepo.FindByCodes(ctx, model.EmployeePrivileges)
		if err != nil {
			return err
		}
		if err := roleRepo.AssignPrivileges(ctx, employeeRole, employeePrivileges); err != nil {
			return fmt.Errorf("assign employee privileges: %w", err)
		}
	}
	return nil
}

// PrimaryAdmin creates the bootstrap administrator unless a user with that email exists.
func PrimaryAdmin(ctx context.Context, db *gorm.DB, cfg config.PrimaryAdmin) (*model.User, bool, error) {
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	email := strings.ToLower(strings.TrimSpace(cfg.Email))

	existing, err := userRepo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	adminRole, err := roleRepo.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return nil, false, err
	}

	admin := &model.User{
		Email:          email,
		FirstName:      cfg.FirstName,
		LastName:       cfg.LastName,
		RoleID:         &adminRole.ID,
		IsActive:       true,
		IsPrimaryAdmin: true,
		Privileges:     adminRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(cfg.Password); err != nil {
		return nil, false, fmt.Errorf("hash admin password: %w", err)
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return nil, false, fmt.Errorf("create primary admin: %w", err)
	}
	return admin, true, nil
}

// Run seeds everything needed for a fresh database. Failures are logged, not fatal.
func Run(ctx context.Context, db *gorm.DB, cfg config.PrimaryAdmin, log *zap.Logger) {
	if err := RolesAndPrivileges(ctx, db); err != nil {
		log.Warn("failed to seed roles and privileges", zap.Error(err))
		return
	}
	admin, created, err := PrimaryAdmin(ctx, db, cfg)
	if err != nil {
		log.Warn("failed to seed primary administrator", zap.Error(err))
		return
	}
	if created {
		log.Info("primary administrator created", zap.String("email", admin.Email))
	}
}
