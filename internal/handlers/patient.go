package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/medremind/reminder-api/internal/logging"
	"github.com/medremind/reminder-api/internal/models"
	"github.com/medremind/reminder-api/internal/service"
	"github.com/medremind/reminder-api/internal/util"
)

type PatientHandler struct {
	Svc *service.PatientService
}

func (h *PatientHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patient.create")

	var patient models.Patient
	if err := c.Bind(&patient); err != nil || patient.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	patient.ID = 0

	if err := h.Svc.CreatePatient(ctx, &patient); err != nil {
		l.Error("create_patient_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create patient")
	}
	return c.JSON(http.StatusCreated, patient)
}

func (h *PatientHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patient.get")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	patient, err := h.Svc.GetPatient(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		l.Error("get_patient_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot load patient")
	}
	return c.JSON(http.StatusOK, patient)
}

func (h *PatientHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "patient.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, patients, err := h.Svc.ListPatients(ctx, offset, limit)
	if err != nil {
		l.Error("list_patients_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list patients")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": patients,
		"meta": echo.Map{"page": page, "size": limit, "total": total},
	})
}
