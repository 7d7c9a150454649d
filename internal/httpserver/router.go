package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medremind/reminder-api/internal/handlers"
	"github.com/medremind/reminder-api/internal/middleware/authmw"
)

type Deps struct {
	Auth       *handlers.AuthHandler
	Admin      *handlers.AdminHandler
	Caregiver  *handlers.CaregiverHandler
	Medication *handlers.MedicationHandler
	Patient    *handlers.PatientHandler
	Search     *handlers.SearchHandler
	Guard      *authmw.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.Auth.Register)
	authGroup.GET("/confirm-email", d.Auth.ConfirmEmail)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.POST("/refresh-token", d.Auth.Refresh)
	authGroup.POST("/change-password", d.Auth.ChangePassword, d.Guard.RequireAuth)

	admin := api.Group("/admin", d.Guard.RequireAdmin)
	admin.POST("/users/:id/role", d.Admin.AssignRole)
	admin.GET("/users", d.Admin.AllUsers)
	admin.POST("/users/:id/status", d.Admin.ChangeUserStatus)
	admin.POST("/patients", d.Patient.Create)

	private := api.Group("", d.Guard.RequireAuth)

	private.GET("/patients", d.Patient.List)
	private.GET("/patients/:id", d.Patient.Get)

	private.GET("/caregivers", d.Caregiver.List)
	private.POST("/caregivers/assign", d.Caregiver.AssignPatient)
	private.PATCH("/caregivers/:id", d.Caregiver.Edit)
	private.DELETE("/caregivers/:id", d.Caregiver.Delete)
	private.GET("/caregivers/me/patients", d.Caregiver.Patients)

	private.POST("/medications", d.Medication.Create)
	private.GET("/patients/:patientId/medications", d.Medication.ListForPatient)
	private.PATCH("/medications/:id", d.Medication.Patch)
	private.DELETE("/medications/:id", d.Medication.Delete)

	private.POST("/doses", d.Medication.LogDose)
	private.GET("/patients/:patientId/doses", d.Medication.DoseLogs)

	private.GET("/search/medications", d.Search.Search)
}
