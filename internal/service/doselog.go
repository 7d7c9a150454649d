package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

type DoseLogService struct {
	DB *gorm.DB
}

func (s *DoseLogService) LogDose(ctx context.Context, log *models.DoseLog) error {
	if log.TakenAt.IsZero() {
		log.TakenAt = time.Now().UTC()
	}
	if log.Status == "" {
		log.Status = "taken"
	}
	// the medication must belong to the patient the dose is logged for
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Medication{}).
		Where("id = ? AND patient_id = ?", log.MedicationID, log.PatientID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return s.DB.WithContext(ctx).Create(log).Error
}

func (s *DoseLogService) DoseLogs(ctx context.Context, patientID, medicationID uint) ([]models.DoseLog, error) {
	var logs []models.DoseLog
	q := s.DB.WithContext(ctx).Where("patient_id = ?", patientID)
	if medicationID != 0 {
		q = q.Where("medication_id = ?", medicationID)
	}
	if err := q.Order("taken_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
