package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/models"
)

type PatientService struct {
	DB *gorm.DB
}

func (s *PatientService) CreatePatient(ctx context.Context, p *models.Patient) error {
	return s.DB.WithContext(ctx).Create(p).Error
}

func (s *PatientService) GetPatient(ctx context.Context, id uint) (*models.Patient, error) {
	var patient models.Patient
	if err := s.DB.WithContext(ctx).First(&patient, id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (s *PatientService) ListPatients(ctx context.Context, offset, limit int) (int64, []models.Patient, error) {
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Patient{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var patients []models.Patient
	if err := s.DB.WithContext(ctx).Model(&models.Patient{}).
		Order("id ASC").Offset(offset).Limit(limit).Find(&patients).Error; err != nil {
		return 0, nil, err
	}
	return total, patients, nil
}
