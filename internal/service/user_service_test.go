package service

import (
	"context"
	"testing"

	"go-stock-tracker/internal/apperror"
	"go-stock-tracker/internal/model"
	"go-stock-tracker/internal/repository"
	"go-stock-tracker/internal/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsers(f *fixture) UserService {
	return NewUserService(
		repository.NewUserRepo(f.db),
		repository.NewPrivilegeRepo(f.db),
		repository.NewRoleRepo(f.db),
		f.events,
	)
}

func roleID(t *testing.T, f *fixture, code string) uint {
	t.Helper()
	role, err := repository.NewRoleRepo(f.db).FindByCode(context.Background(), code)
	require.NoError(t, err)
	return role.ID
}

func TestCreateUserRoleRules(t *testing.T) {
	f := newFixture(t, 1)
	svc := newUsers(f)
	ctx := context.Background()

	in := CreateUserInput{
		Email:     "  New.Hire@Example.com ",
		Password:  "secret123",
		FirstName: "New",
		LastName:  "Hire",
		RoleID:    roleID(t, f, model.RoleEmployee),
	}
	created, err := svc.CreateUser(ctx, in, callerFor(f.admin2))
	require.NoError(t, err)
	assert.Equal(t, "new.hire@example.com", created.Email)
	assert.Equal(t, model.RoleEmployee, created.Role.Code)
	assert.NotEmpty(t, created.Privileges)

	_, err = svc.CreateUser(ctx, in, callerFor(f.admin2))
	assert.ErrorIs(t, err, ErrEmailExists)

	in.Email = "boss@example.com"
	in.RoleID = roleID(t, f, model.RoleAdmin)
	_, err = svc.CreateUser(ctx, in, callerFor(f.admin2))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	boss, err := svc.CreateUser(ctx, in, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, boss.Role.Code)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t, 1)
	svc := newUsers(f)
	ctx := context.Background()

	updated, err := svc.UpdateUser(ctx, f.employee.ID, UpdateUserInput{
		Email:     f.employee.Email,
		FirstName: "Renamed",
		LastName:  "Person",
		IsActive:  boolPtr(false),
	}, callerFor(f.admin2))
	require.NoError(t, err)
	assert.Equal(t, "Renamed Person", updated.FullName)
	assert.False(t, updated.IsActive)

	_, err = svc.UpdateUser(ctx, f.employee.ID, UpdateUserInput{
		Email: f.other.Email, FirstName: "A", LastName: "B",
	}, callerFor(f.admin2))
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = svc.UpdateUser(ctx, f.admin.ID, UpdateUserInput{
		Email: f.admin.Email, FirstName: "A", LastName: "B",
	}, callerFor(f.admin2))
	assert.ErrorIs(t, err, apperror.ErrForbidden, "only the primary admin edits other admins")

	_, err = svc.UpdateUser(ctx, f.admin.ID, UpdateUserInput{
		Email: f.admin.Email, FirstName: "A", LastName: "B", IsActive: boolPtr(false),
	}, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestDeleteUserRules(t *testing.T) {
	f := newFixture(t, 1)
	svc := newUsers(f)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, f.admin2.ID, callerFor(f.admin2)), apperror.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, f.admin.ID, callerFor(f.admin2)), apperror.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, f.admin2.ID, callerFor(f.employee)), apperror.ErrForbidden)

	require.NoError(t, svc.DeleteUser(ctx, f.other.ID, callerFor(f.admin2)))
	_, err := svc.GetUserByID(ctx, f.other.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateUserPrivileges(t *testing.T) {
	f := newFixture(t, 1)
	svc := newUsers(f)
	ctx := context.Background()

	updated, err := svc.UpdateUserPrivileges(ctx, f.employee.ID,
		[]string{model.PrivProductView, model.PrivProductView, model.PrivStockRequestView}, callerFor(f.admin2))
	require.NoError(t, err)
	codes := make([]string, 0, len(updated.Privileges))
	for _, p := range updated.Privileges {
		codes = append(codes, p.Code)
	}
	assert.ElementsMatch(t, []string{model.PrivProductView, model.PrivStockRequestView}, codes)

	_, err = svc.UpdateUserPrivileges(ctx, f.employee.ID, []string{"rocket:launch"}, callerFor(f.admin2))
	assert.ErrorIs(t, err, apperror.ErrInvalidArgument)

	_, err = svc.UpdateUserPrivileges(ctx, f.admin.ID, nil, callerFor(f.admin2))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAdminRoleManagement(t *testing.T) {
	f := newFixture(t, 1)
	svc := newUsers(f)
	ctx := context.Background()

	_, err := svc.MakeAdmin(ctx, f.employee.ID, callerFor(f.admin2))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	promoted, err := svc.MakeAdmin(ctx, f.employee.ID, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, promoted.Role.Code)

	_, err = svc.MakeAdmin(ctx, f.employee.ID, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	demoted, err := svc.RemoveAdmin(ctx, f.employee.ID, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, demoted.Role.Code)

	_, err = svc.RemoveAdmin(ctx, f.admin.ID, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestAdminRequests(t *testing.T) {
	f := newFixture(t, 1)
	svc := newUsers(f)
	ctx := context.Background()

	require.NoError(t, f.db.Model(f.employee).Updates(map[string]interface{}{"is_admin_request_pending": true}).Error)
	require.NoError(t, f.db.Model(f.other).Updates(map[string]interface{}{"is_admin_request_pending": true}).Error)

	_, err := svc.ListAdminRequests(ctx, callerFor(f.admin2))
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	pending, err := svc.ListAdminRequests(ctx, callerFor(f.admin))
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	granted, err := svc.DecideAdminRequest(ctx, f.employee.ID, true, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, granted.Role.Code)
	assert.False(t, granted.IsAdminRequestPending)

	declined, err := svc.DecideAdminRequest(ctx, f.other.ID, false, callerFor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, declined.Role.Code)
	assert.False(t, declined.IsAdminRequestPending)

	_, err = svc.DecideAdminRequest(ctx, f.other.ID, true, callerFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	assert.Equal(t, []string{"admin_request_approved", "admin_request_rejected"}, f.events.actions(ws.TypeUserStatus))
}
