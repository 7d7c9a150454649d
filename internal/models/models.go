package models

import "time"

type User struct {
	ID                 string     `gorm:"primaryKey"               json:"id"`
	Username           string     `gorm:"uniqueIndex;not null"     json:"username"`
	Email              string     `gorm:"uniqueIndex;not null"     json:"email"`
	FullName           string     `gorm:"not null"                 json:"full_name"`
	PasswordHash       string     `gorm:"not null"                 json:"-"`
	IsActive           bool       `gorm:"default:false;not null"   json:"is_active"`
	RefreshToken       *string    `gorm:"index"                    json:"-"`
	RefreshTokenExpiry *time.Time `json:"-"`
	TokenVersion       int        `gorm:"default:1;not null"       json:"-"`
	ConfirmTokenHash   *string    `json:"-"`
	ConfirmTokenExpiry *time.Time `json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
}

type UserRole struct {
	ID     uint   `gorm:"primaryKey"     json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`
	Role   string `gorm:"not null"       json:"role"`
}

type Patient struct {
	ID                uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            string `gorm:"index"                    json:"user_id"`
	Name              string `gorm:"not null"                 json:"name"`
	Age               int    `json:"age"`
	Gender            string `json:"gender"`
	ChronicConditions string `json:"chronic_conditions"`
}

type Caregiver struct {
	ID                uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            string `gorm:"uniqueIndex;not null"     json:"user_id"`
	Name              string `gorm:"not null"                 json:"name"`
	RelationToPatient string `json:"relation_to_patient"`
}

type PatientCaregiver struct {
	ID          uint `gorm:"primaryKey;autoIncrement"                       json:"id"`
	CaregiverID uint `gorm:"index:idx_caregiver_patient,unique;not null"    json:"caregiver_id"`
	PatientID   uint `gorm:"index:idx_caregiver_patient,unique;not null"    json:"patient_id"`
}

type Medication struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID      uint   `gorm:"index;not null"           json:"patient_id"`
	Name           string `gorm:"not null"                 json:"name"`
	Frequency      string `gorm:"not null"                 json:"frequency"`
	DurationInDays int    `json:"duration_in_days"`
	Notes          string `json:"notes"`
}

type DoseLog struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID    uint      `gorm:"index;not null"           json:"patient_id"`
	MedicationID uint      `gorm:"index;not null"           json:"medication_id"`
	TakenAt      time.Time `gorm:"not null"                 json:"taken_at"`
	Status       string    `gorm:"not null"                 json:"status"`
	Notes        string    `json:"notes"`
}
