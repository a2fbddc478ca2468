package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsrfleet/inspection-backend/internal/config"
	"github.com/vsrfleet/inspection-backend/internal/models"
)

func userRows(users ...models.User) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "email", "role", "created_at"})
	for _, u := range users {
		rows.AddRow(u.ID, u.Email, u.Role, u.CreatedAt)
	}
	return rows
}

func TestEnsureIdentity_UpsertWithoutEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc.EnsureIdentity(context.Background(), "user_2abc", "")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureIdentity_UpsertWithEmail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	// No pre-provisioned row with this email exists, so the path is a plain
	// conflict-tolerant upsert on the provider id.
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1 AND id <> \$2`).
		WillReturnRows(userRows())
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc.EnsureIdentity(context.Background(), "user_2abc", "driver@fleet.example")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureIdentity_RelinksPreProvisionedRow(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	synthesized := models.User{
		ID:        "email_boss_at_fleet_dot_example",
		Email:     "boss@fleet.example",
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
	}

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1 AND id <> \$2`).
		WillReturnRows(userRows(synthesized))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "id"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "vehicle_inspections" SET`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	svc.EnsureIdentity(context.Background(), "user_2boss", "boss@fleet.example")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteByEmail_NonAdminCallerForbidden(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, false)

	user, outcome, err := svc.PromoteByEmail(context.Background(), "user_nobody", "x@fleet.example")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, user)
	assert.Empty(t, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteByEmail_PromotesExistingUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WillReturnRows(userRows(models.User{
			ID: "user_2target", Email: "target@fleet.example", Role: models.RoleUser,
		}))
	mock.ExpectExec(`UPDATE "users" SET "role"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, outcome, err := svc.PromoteByEmail(context.Background(), "user_2admin", "target@fleet.example")

	require.NoError(t, err)
	assert.Equal(t, PromoteOutcomePromoted, outcome)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteByEmail_CreatesSynthesizedAdmin(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WillReturnRows(userRows())
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, outcome, err := svc.PromoteByEmail(context.Background(), "user_2admin", "New.Hire@fleet.example")

	require.NoError(t, err)
	assert.Equal(t, PromoteOutcomeCreated, outcome)
	assert.Equal(t, "email_new_dot_hire_at_fleet_dot_example", user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestPromoteByEmail_AlreadyAdminIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE LOWER\(email\) = LOWER\(\$1\)`).
		WillReturnRows(userRows(models.User{
			ID: "user_2boss", Email: "boss@fleet.example", Role: models.RoleAdmin,
		}))

	_, outcome, err := svc.PromoteByEmail(context.Background(), "user_2admin", "boss@fleet.example")

	require.NoError(t, err)
	assert.Equal(t, PromoteOutcomeAlreadyAdmin, outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRole_SelfDemotionRejected(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).
		WillReturnRows(userRows(models.User{
			ID: "user_2admin", Email: "admin@fleet.example", Role: models.RoleAdmin,
		}))

	_, err := svc.UpdateUserRole(context.Background(), "user_2admin", "user_2admin", models.RoleUser)

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestUpdateUserRole_RejectsUnknownRole(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	_, err := svc.UpdateUserRole(context.Background(), "user_2admin", "user_2x", "superadmin")

	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBootstrapFirstAdmin_WrongSecret(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{AdminBootstrapSecret: "s3cret"})

	_, err := svc.BootstrapFirstAdmin(context.Background(), "user_2first", "first@fleet.example", "wrong")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBootstrapFirstAdmin_DisabledOnceAdminsExist(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{AdminBootstrapSecret: "s3cret"})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := svc.BootstrapFirstAdmin(context.Background(), "user_2late", "late@fleet.example", "s3cret")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminStatus_NeedsBootstrapWhenNoAdmins(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	mock.ExpectQuery(`admin_count`).
		WillReturnRows(sqlmock.NewRows([]string{"admin_count", "user_role"}).AddRow(0, nil))

	status, err := svc.AdminStatus(context.Background(), "user_2whoever")

	require.NoError(t, err)
	assert.False(t, status.IsAdmin)
	assert.True(t, status.NeedsBootstrap)
}

func TestMergeDuplicateIdentities_MergesProviderSynthesizedPair(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email IN`).
		WillReturnRows(userRows(
			models.User{ID: "email_dup_at_fleet_dot_example", Email: "dup@fleet.example", Role: models.RoleAdmin},
			models.User{ID: "user_2dup", Email: "dup@fleet.example", Role: models.RoleUser},
		))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users" SET "role"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "vehicle_inspections" SET`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.MergeDuplicateIdentities(context.Background(), "user_2admin")

	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)
	assert.Empty(t, result.Unresolved)
	assert.Empty(t, result.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeDuplicateIdentities_UnexpectedShapeLeftAlone(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	// Two provider-shaped rows sharing an email is not the shape the merge
	// understands; it must be reported, not guessed at.
	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email IN`).
		WillReturnRows(userRows(
			models.User{ID: "user_2a", Email: "shared@fleet.example", Role: models.RoleUser},
			models.User{ID: "user_2b", Email: "shared@fleet.example", Role: models.RoleUser},
		))

	result, err := svc.MergeDuplicateIdentities(context.Background(), "user_2admin")

	require.NoError(t, err)
	assert.Zero(t, result.Merged)
	assert.Equal(t, []string{"shared@fleet.example"}, result.Unresolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillEmails_OnlyPlaceholderRowsCount(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewIdentityService(db, &config.Config{})

	expectAdminGate(mock, true)
	mock.ExpectExec(`UPDATE "users" SET "email"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second row already has a real email, so the guarded update matches
	// nothing.
	mock.ExpectExec(`UPDATE "users" SET "email"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	count, errs, err := svc.BackfillEmails(context.Background(), "user_2admin", []EmailUpdate{
		{UserID: "user_2one", Email: "one@fleet.example"},
		{UserID: "user_2two", Email: "two@fleet.example"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, errs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
