package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Patient{},
		&models.Caregiver{},
		&models.PatientCaregiver{},
		&models.Medication{},
		&models.DoseLog{},
	))
	return db
}

func TestCaregiverService_AssignPatient(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := &CaregiverService{DB: db}
	ctx := context.Background()

	patient := models.Patient{Name: "Grandma", Age: 81, Gender: "F"}
	require.NoError(t, db.Create(&patient).Error)

	req := CaregiverAssignment{
		UserID:            "user-1",
		Name:              "Alice",
		RelationToPatient: "granddaughter",
		PatientID:         patient.ID,
	}
	require.NoError(t, svc.AssignPatient(ctx, req))

	// second assignment of the same pair is rejected
	err := svc.AssignPatient(ctx, req)
	assert.ErrorIs(t, err, ErrAlreadyLinked)

	// the caregiver record is reused, not duplicated
	var count int64
	require.NoError(t, db.Model(&models.Caregiver{}).Where("user_id = ?", "user-1").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// the same caregiver can take on another patient
	second := models.Patient{Name: "Grandpa", Age: 84, Gender: "M"}
	require.NoError(t, db.Create(&second).Error)
	req.PatientID = second.ID
	require.NoError(t, svc.AssignPatient(ctx, req))
}

func TestCaregiverService_PatientsWithMedications(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := &CaregiverService{DB: db}
	ctx := context.Background()

	patient := models.Patient{Name: "Grandma", Age: 81, Gender: "F", ChronicConditions: "hypertension"}
	require.NoError(t, db.Create(&patient).Error)

	med := models.Medication{PatientID: patient.ID, Name: "Lisinopril", Frequency: "daily", DurationInDays: 30}
	require.NoError(t, db.Create(&med).Error)

	older := models.DoseLog{PatientID: patient.ID, MedicationID: med.ID, TakenAt: time.Now().UTC().Add(-2 * time.Hour), Status: "taken"}
	newer := models.DoseLog{PatientID: patient.ID, MedicationID: med.ID, TakenAt: time.Now().UTC().Add(-time.Hour), Status: "skipped"}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	require.NoError(t, svc.AssignPatient(ctx, CaregiverAssignment{
		UserID: "user-1", Name: "Alice", RelationToPatient: "granddaughter", PatientID: patient.ID,
	}))

	views, err := svc.PatientsWithMedications(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, views, 1)

	assert.Equal(t, "Grandma", views[0].Name)
	assert.Equal(t, "hypertension", views[0].ChronicConditions)
	require.Len(t, views[0].Medications, 1)
	assert.Equal(t, "Lisinopril", views[0].Medications[0].Name)

	logs := views[0].Medications[0].DoseLogs
	require.Len(t, logs, 2)
	// most recent dose first
	assert.Equal(t, "skipped", logs[0].Status)
}

func TestCaregiverService_PatientsWithMedications_NoCaregiverRecord(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := &CaregiverService{DB: db}

	views, err := svc.PatientsWithMedications(context.Background(), "unknown-user")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCaregiverService_DeleteCaregiver(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := &CaregiverService{DB: db}
	ctx := context.Background()

	patient := models.Patient{Name: "Grandma", Age: 81}
	require.NoError(t, db.Create(&patient).Error)
	require.NoError(t, svc.AssignPatient(ctx, CaregiverAssignment{
		UserID: "user-1", Name: "Alice", PatientID: patient.ID,
	}))

	var caregiver models.Caregiver
	require.NoError(t, db.Where("user_id = ?", "user-1").First(&caregiver).Error)

	require.NoError(t, svc.DeleteCaregiver(ctx, caregiver.ID))

	// links go with the caregiver
	var links int64
	require.NoError(t, db.Model(&models.PatientCaregiver{}).Where("caregiver_id = ?", caregiver.ID).Count(&links).Error)
	assert.EqualValues(t, 0, links)

	err := svc.DeleteCaregiver(ctx, caregiver.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
