package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

type MedicationService struct {
	DB *gorm.DB
}

type MedicationPatch struct {
	Name           *string `json:"name"`
	Frequency      *string `json:"frequency"`
	DurationInDays *int    `json:"duration_in_days"`
	Notes          *string `json:"notes"`
}

func (s *MedicationService) CreateMedication(ctx context.Context, med *models.Medication) error {
	return s.DB.WithContext(ctx).Create(med).Error
}

func (s *MedicationService) GetMedication(ctx context.Context, id uint) (*models.Medication, error) {
	var med models.Medication
	if err := s.DB.WithContext(ctx).First(&med, id).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *MedicationService) MedicationsForPatient(ctx context.Context, patientID uint) ([]models.Medication, error) {
	var meds []models.Medication
	if err := s.DB.WithContext(ctx).Where("patient_id = ?", patientID).Order("id ASC").Find(&meds).Error; err != nil {
		return nil, err
	}
	return meds, nil
}

func (s *MedicationService) PatchMedication(ctx context.Context, id uint, req MedicationPatch) (*models.Medication, error) {
	var med models.Medication
	if err := s.DB.WithContext(ctx).First(&med, id).Error; err != nil {
		return nil, err
	}
	if req.Name != nil {
		med.Name = *req.Name
	}
	if req.Frequency != nil {
		med.Frequency = *req.Frequency
	}
	if req.DurationInDays != nil {
		med.DurationInDays = *req.DurationInDays
	}
	if req.Notes != nil {
		med.Notes = *req.Notes
	}
	if err := s.DB.WithContext(ctx).Save(&med).Error; err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *MedicationService) DeleteMedication(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Medication{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
