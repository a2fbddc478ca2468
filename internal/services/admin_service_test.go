package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vsrfleet/inspection-backend/internal/config"
)

func newAdminService(t *testing.T) (*AdminService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	identity := NewIdentityService(db, &config.Config{})
	return NewAdminService(db, identity), mock
}

func TestDefectFrequencyReport(t *testing.T) {
	svc, mock := newAdminService(t)

	expectAdminGate(mock, true)
	mock.ExpectQuery(`SELECT "id","defective_items","truck_trailer_items" FROM "vehicle_inspections"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "defective_items", "truck_trailer_items"}).
			AddRow(1, []byte(`{"brakes":true,"lights":false}`), []byte(`{}`)).
			AddRow(2, []byte(`{"brakes":"true","horn":1}`), []byte(`{"brakes":true}`)).
			AddRow(3, []byte(`"{\"steering\":true}"`), nil))

	report, err := svc.DefectFrequencyReport(context.Background(), "user_2admin")

	require.NoError(t, err)
	require.Len(t, report, 4)

	// Car brakes counted across bool and string forms; lights:false absent.
	assert.Equal(t, DefectCount{ItemKey: "brakes", Count: 2, Type: "car", Label: "Brakes"}, report[0])

	// Truck brakes is a separate namespace from car brakes.
	byType := map[string]int{}
	for _, entry := range report {
		if entry.ItemKey == "brakes" {
			byType[entry.Type] = entry.Count
		}
	}
	assert.Equal(t, map[string]int{"car": 2, "truck/trailer": 1}, byType)

	// The double-encoded legacy checklist still contributes.
	labels := make([]string, 0, len(report))
	for _, entry := range report {
		labels = append(labels, entry.Label)
	}
	assert.Contains(t, labels, "Steering")
	assert.NotContains(t, labels, "Lights")
}

func TestDefectFrequencyReport_Forbidden(t *testing.T) {
	svc, mock := newAdminService(t)

	expectAdminGate(mock, false)

	_, err := svc.DefectFrequencyReport(context.Background(), "user_2nobody")

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStats(t *testing.T) {
	svc, mock := newAdminService(t)

	expectAdminGate(mock, true)
	mock.ExpectQuery(`total_inspections`).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_inspections", "satisfactory_count", "unsatisfactory_count",
			"needs_correction_count", "total_users", "today_inspections",
		}).AddRow(42, 30, 12, 5, 7, 3))

	stats, err := svc.Stats(context.Background(), "user_2admin")

	require.NoError(t, err)
	assert.Equal(t, int64(42), stats.TotalInspections)
	assert.Equal(t, int64(30), stats.SatisfactoryCount)
	assert.Equal(t, int64(12), stats.UnsatisfactoryCount)
	assert.Equal(t, int64(5), stats.NeedsCorrectionCount)
	assert.Equal(t, int64(7), stats.TotalUsers)
	assert.Equal(t, int64(3), stats.TodayInspections)
}

func TestHumanizeItemKey(t *testing.T) {
	assert.Equal(t, "Parking Brake", humanizeItemKey("parking_brake"))
	assert.Equal(t, "Horn", humanizeItemKey("horn"))
	assert.Equal(t, "Rear Vision Mirrors", humanizeItemKey("rear_vision_mirrors"))
}
