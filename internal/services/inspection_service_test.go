package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsrfleet/inspection-backend/internal/config"
	"github.com/vsrfleet/inspection-backend/internal/dto"
)

func newInspectionService(t *testing.T) (*InspectionService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	identity := NewIdentityService(db, &config.Config{})
	return NewInspectionService(db, identity), mock
}

func TestCreateInspection_RequiresVehicle(t *testing.T) {
	svc, mock := newInspectionService(t)

	_, _, err := svc.Create(context.Background(), "user_2driver", "", &dto.CreateInspectionRequest{})

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInspection_StripsMechanicSignatureForNonAdmin(t *testing.T) {
	svc, mock := newInspectionService(t)

	// Identity upsert, then the role check for the signature, then the insert.
	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAdminGate(mock, false)
	mock.ExpectQuery(`INSERT INTO "vehicle_inspections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	inspection, photos, err := svc.Create(context.Background(), "user_2driver", "", &dto.CreateInspectionRequest{
		Vehicle:           "Truck 14",
		MechanicSignature: "J. Mechanic",
	})

	require.NoError(t, err)
	assert.Empty(t, inspection.MechanicSignature)
	assert.Zero(t, photos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInspection_KeepsMechanicSignatureForAdmin(t *testing.T) {
	svc, mock := newInspectionService(t)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	expectAdminGate(mock, true)
	mock.ExpectQuery(`INSERT INTO "vehicle_inspections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	inspection, _, err := svc.Create(context.Background(), "user_2mech", "", &dto.CreateInspectionRequest{
		Vehicle:           "Truck 14",
		MechanicSignature: "  J. Mechanic  ",
	})

	require.NoError(t, err)
	assert.Equal(t, "J. Mechanic", inspection.MechanicSignature)
}

func TestCreateInspection_PhotoFailureDoesNotFailCreation(t *testing.T) {
	svc, mock := newInspectionService(t)

	mock.ExpectExec(`INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "vehicle_inspections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "inspection_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "inspection_images"`).
		WillReturnError(assert.AnError)

	inspection, photos, err := svc.Create(context.Background(), "user_2driver", "", &dto.CreateInspectionRequest{
		Vehicle: "Truck 14",
		Photos: []dto.PhotoPayload{
			{Name: "one.jpg", URL: "https://cdn.example/one.jpg", StorageKey: "k1"},
			{Name: "two.jpg", URL: "https://cdn.example/two.jpg", StorageKey: "k2"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, uint(7), inspection.ID)
	assert.Equal(t, 1, photos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateInspection_SkipsAlreadyAttachedPhotos(t *testing.T) {
	svc, mock := newInspectionService(t)

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT \* FROM "vehicle_inspections" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vehicle"}).
			AddRow(5, "user_2driver", "Truck 14"))
	mock.ExpectExec(`UPDATE "vehicle_inspections" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The resubmitted photo already exists by storage key, so no insert
	// follows the count.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "inspection_images"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`user_email`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "vehicle", "user_email"}).
			AddRow(5, "user_2driver", "Truck 14", "driver@fleet.example"))
	mock.ExpectQuery(`SELECT \* FROM "inspection_images" WHERE inspection_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	remarks := "re-checked"
	result, err := svc.Update(context.Background(), "user_2admin", 5, &dto.UpdateInspectionRequest{
		Remarks: &remarks,
		Photos: []dto.PhotoPayload{
			{StorageKey: "k1", URL: "https://cdn.example/one.jpg", Name: "one.jpg"},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "driver@fleet.example", result.UserEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInspection_NotFound(t *testing.T) {
	svc, mock := newInspectionService(t)

	mock.ExpectExec(`DELETE FROM "vehicle_inspections"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Delete(context.Background(), 99)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminList_ForbiddenForNonAdmin(t *testing.T) {
	svc, mock := newInspectionService(t)

	expectAdminGate(mock, false)

	_, err := svc.AdminList(context.Background(), "user_2nobody")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}
