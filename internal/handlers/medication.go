package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/events"
	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/models"
	"github.com/medremind/reminder-api/internal/service"
	"github.com/medremind/reminder-api/internal/service/search"
)

type MedicationHandler struct {
	Svc      *service.MedicationService
	DoseSvc  *service.DoseLogService
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *MedicationHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "medication.create")

	var med models.Medication
	if err := c.Bind(&med); err != nil || med.PatientID == 0 || med.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	med.ID = 0

	if err := h.Svc.CreateMedication(ctx, &med); err != nil {
		l.Error("create_medication_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create medication")
	}

	h.indexMedication(c, &med)

	return c.JSON(http.StatusCreated, med)
}

func (h *MedicationHandler) ListForPatient(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "medication.list")

	patientID, err := strconv.ParseUint(c.Param("patientId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	meds, err := h.Svc.MedicationsForPatient(ctx, uint(patientID))
	if err != nil {
		l.Error("list_medications_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list medications")
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *MedicationHandler) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "medication.patch")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medication id")
	}
	var req service.MedicationPatch
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	med, err := h.Svc.PatchMedication(ctx, uint(id), req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medication not found")
		}
		l.Error("patch_medication_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update medication")
	}

	h.indexMedication(c, med)

	return c.JSON(http.StatusOK, med)
}

func (h *MedicationHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "medication.delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid medication id")
	}

	if err := h.Svc.DeleteMedication(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medication not found")
		}
		l.Error("delete_medication_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete medication")
	}

	if h.ES != nil {
		if err := search.DeleteMedication(ctx, h.ES, h.Index, uint(id)); err != nil {
			l.Error("es_delete_failed", "error", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *MedicationHandler) LogDose(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "medication.log_dose")

	var log models.DoseLog
	if err := c.Bind(&log); err != nil || log.PatientID == 0 || log.MedicationID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	log.ID = 0

	if err := h.DoseSvc.LogDose(ctx, &log); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "medication not found for patient")
		}
		l.Error("log_dose_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log dose")
	}

	if err := h.Producer.PublishEvent(ctx, events.TopicDoseEvents, strconv.FormatUint(uint64(log.PatientID), 10), map[string]any{
		"type":          "dose_logged",
		"patient_id":    log.PatientID,
		"medication_id": log.MedicationID,
		"status":        log.Status,
		"taken_at":      log.TakenAt,
	}); err != nil {
		l.Error("kafka_publish_failed", "error", err)
	}

	return c.JSON(http.StatusCreated, log)
}

func (h *MedicationHandler) DoseLogs(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "medication.dose_logs")

	patientID, err := strconv.ParseUint(c.Param("patientId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	medicationID := uint(0)
	if q := c.QueryParam("medicationId"); q != "" {
		id, err := strconv.ParseUint(q, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid medication id")
		}
		medicationID = uint(id)
	}

	logs, err := h.DoseSvc.DoseLogs(ctx, uint(patientID), medicationID)
	if err != nil {
		l.Error("dose_logs_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list dose logs")
	}
	return c.JSON(http.StatusOK, logs)
}

// indexMedication keeps the search index in sync; failures only log.
func (h *MedicationHandler) indexMedication(c echo.Context, med *models.Medication) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexMedication(ctx, h.ES, h.Index, med); err != nil {
		logging.FromContext(ctx).Error("es_index_failed", "error", err, "medication_id", med.ID)
	}
}
