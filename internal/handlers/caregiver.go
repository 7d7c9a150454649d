package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/middleware/authmw"
	"github.com/medremind/reminder-api/internal/service"
)

type CaregiverHandler struct {
	Svc *service.CaregiverService
}

func (h *CaregiverHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "caregiver.list")

	caregivers, err := h.Svc.ListCaregivers(ctx)
	if err != nil {
		l.Error("list_caregivers_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list caregivers")
	}
	return c.JSON(http.StatusOK, caregivers)
}

func (h *CaregiverHandler) AssignPatient(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "caregiver.assign_patient")

	var req service.CaregiverAssignment
	if err := c.Bind(&req); err != nil || req.UserID == "" || req.PatientID == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.AssignPatient(ctx, req); err != nil {
		if errors.Is(err, service.ErrAlreadyLinked) {
			return echo.NewHTTPError(http.StatusConflict, "This caregiver is already assigned to this patient.")
		}
		l.Error("assign_patient_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot assign patient")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Caregiver linked to patient successfully"})
}

func (h *CaregiverHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "caregiver.edit")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid caregiver id")
	}
	var req struct {
		RelationToPatient string `json:"relation_to_patient"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	caregiver, err := h.Svc.EditCaregiver(ctx, uint(id), req.RelationToPatient)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "caregiver not found")
		}
		l.Error("edit_caregiver_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot edit caregiver")
	}
	return c.JSON(http.StatusOK, caregiver)
}

func (h *CaregiverHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "caregiver.delete")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid caregiver id")
	}

	if err := h.Svc.DeleteCaregiver(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "caregiver not found")
		}
		l.Error("delete_caregiver_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete caregiver")
	}
	return c.NoContent(http.StatusNoContent)
}

// Patients returns the authenticated caregiver's patients with their
// medications and dose history.
func (h *CaregiverHandler) Patients(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "caregiver.patients")

	userID := authmw.UserID(c)
	views, err := h.Svc.PatientsWithMedications(ctx, userID)
	if err != nil {
		l.Error("caregiver_patients_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load patients")
	}
	return c.JSON(http.StatusOK, views)
}
