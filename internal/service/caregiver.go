package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

var ErrAlreadyLinked = errors.New("this caregiver is already assigned to this patient")

type CaregiverService struct {
	DB *gorm.DB
}

type CaregiverAssignment struct {
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	RelationToPatient string `json:"relation_to_patient"`
	PatientID         uint   `json:"patient_id"`
}

type PatientMedicationView struct {
	MedicationID   uint             `json:"medication_id"`
	Name           string           `json:"name"`
	Frequency      string           `json:"frequency"`
	DurationInDays int              `json:"duration_in_days"`
	Notes          string           `json:"notes"`
	DoseLogs       []models.DoseLog `json:"dose_logs"`
}

type CaregiverPatientView struct {
	PatientID         uint                    `json:"patient_id"`
	Name              string                  `json:"name"`
	Age               int                     `json:"age"`
	Gender            string                  `json:"gender"`
	ChronicConditions string                  `json:"chronic_conditions"`
	Medications       []PatientMedicationView `json:"medications"`
}

func (s *CaregiverService) ListCaregivers(ctx context.Context) ([]models.Caregiver, error) {
	var caregivers []models.Caregiver
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&caregivers).Error; err != nil {
		return nil, err
	}
	return caregivers, nil
}

// AssignPatient links a caregiver to a patient, creating the caregiver
// record on first use. Linking the same pair twice is rejected.
func (s *CaregiverService) AssignPatient(ctx context.Context, req CaregiverAssignment) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var caregiver models.Caregiver
		err := tx.Where("user_id = ?", req.UserID).First(&caregiver).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			caregiver = models.Caregiver{
				UserID:            req.UserID,
				Name:              req.Name,
				RelationToPatient: req.RelationToPatient,
			}
			if err := tx.Create(&caregiver).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.PatientCaregiver{}).
			Where("caregiver_id = ? AND patient_id = ?", caregiver.ID, req.PatientID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyLinked
		}

		return tx.Create(&models.PatientCaregiver{
			CaregiverID: caregiver.ID,
			PatientID:   req.PatientID,
		}).Error
	})
}

func (s *CaregiverService) EditCaregiver(ctx context.Context, id uint, relation string) (*models.Caregiver, error) {
	var caregiver models.Caregiver
	if err := s.DB.WithContext(ctx).First(&caregiver, id).Error; err != nil {
		return nil, err
	}
	caregiver.RelationToPatient = relation
	if err := s.DB.WithContext(ctx).Save(&caregiver).Error; err != nil {
		return nil, err
	}
	return &caregiver, nil
}

func (s *CaregiverService) DeleteCaregiver(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Caregiver{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("caregiver_id = ?", id).Delete(&models.PatientCaregiver{}).Error
	})
}

// PatientsWithMedications builds the caregiver dashboard: every linked
// patient with their medications and dose history.
func (s *CaregiverService) PatientsWithMedications(ctx context.Context, caregiverUserID string) ([]CaregiverPatientView, error) {
	var caregiver models.Caregiver
	if err := s.DB.WithContext(ctx).Where("user_id = ?", caregiverUserID).First(&caregiver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []CaregiverPatientView{}, nil
		}
		return nil, err
	}

	var patients []models.Patient
	if err := s.DB.WithContext(ctx).
		Joins("JOIN patient_caregivers ON patient_caregivers.patient_id = patients.id").
		Where("patient_caregivers.caregiver_id = ?", caregiver.ID).
		Find(&patients).Error; err != nil {
		return nil, err
	}

	result := make([]CaregiverPatientView, 0, len(patients))
	for _, patient := range patients {
		var meds []models.Medication
		if err := s.DB.WithContext(ctx).Where("patient_id = ?", patient.ID).Find(&meds).Error; err != nil {
			return nil, err
		}

		medViews := make([]PatientMedicationView, 0, len(meds))
		for _, med := range meds {
			var logs []models.DoseLog
			if err := s.DB.WithContext(ctx).
				Where("patient_id = ? AND medication_id = ?", patient.ID, med.ID).
				Order("taken_at DESC").Find(&logs).Error; err != nil {
				return nil, err
			}
			medViews = append(medViews, PatientMedicationView{
				MedicationID:   med.ID,
				Name:           med.Name,
				Frequency:      med.Frequency,
				DurationInDays: med.DurationInDays,
				Notes:          med.Notes,
				DoseLogs:       logs,
			})
		}

		result = append(result, CaregiverPatientView{
			PatientID:         patient.ID,
			Name:              patient.Name,
			Age:               patient.Age,
			Gender:            patient.Gender,
			ChronicConditions: patient.ChronicConditions,
			Medications:       medViews,
		})
	}
	return result, nil
}
