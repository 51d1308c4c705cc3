package repository

import (
	"context"
	"time"

	"go-stock-tracker/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	FindPendingAdminRequests(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	UpdatePrivileges(ctx context.Context, id uuid.UUID, privileges []model.Privilege) error
	ChangeRole(ctx context.Context, id uuid.UUID, roleID uint, privileges []model.Privilege) error
	UpdateSession(ctx context.Context, id uuid.UUID, version string, seenAt time.Time) error
	UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db}
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Role").Preload("Privileges").Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Preload("Role").Preload("Privileges").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Preload("Role").Preload("Privileges").Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) FindPendingAdminRequests(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("is_admin_request_pending = ?", true).
		Order("admin_requested_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Role").Create(user).Error
}

func (r *userRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

// Delete is soft; stock history keeps pointing at the row.
func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, "id = ?", id).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *userRepo) UpdatePrivileges(ctx context.Context, id uuid.UUID, privileges []model.Privilege) error {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&user).Association("Privileges").Replace(privileges)
}

// ChangeRole swaps the role, resets the privilege set to the role's and clears any admin request.
func (r *userRepo) ChangeRole(ctx context.Context, id uuid.UUID, roleID uint, privileges []model.Privilege) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
			"role_id":                  roleID,
			"is_admin_request_pending": false,
			"admin_requested_at":       nil,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Privileges").Replace(privileges)
	})
}

func (r *userRepo) UpdateSession(ctx context.Context, id uuid.UUID, version string, seenAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"token_version": version,
		"last_seen_at":  seenAt,
	}).Error
}

func (r *userRepo) UpdateLastSeen(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_seen_at", seenAt).Error
}
