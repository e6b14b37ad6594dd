package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arman-radmanesh/clinicore/internal/store"
)

// ProfilesHandler serves doctor and patient profile endpoints plus the
// patient-scoped medical history and vitals records.
type ProfilesHandler struct {
	Store *store.Store
}

func (h *ProfilesHandler) Register(api *echo.Group) {
	api.GET("/doctors/me", h.doctorMe)
	api.GET("/patients/me", h.patientMe)
	api.GET("/patients/:id", h.getPatient)
	api.GET("/patients/:id/medical-history", h.listMedicalHistory)
	api.POST("/patients/:id/medical-history", h.addMedicalHistory)
	api.GET("/patients/:id/vitals", h.listVitals)
	api.POST("/patients/:id/vitals", h.addVitals)
}

func (h *ProfilesHandler) doctorMe(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	doc, ok, err := h.Store.GetDoctorByUserID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "doctor profile not found")
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *ProfilesHandler) patientMe(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	pat, ok, err := h.Store.GetPatientByUserID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient profile not found")
	}
	return c.JSON(http.StatusOK, pat)
}

func (h *ProfilesHandler) getPatient(c echo.Context) error {
	patientID := c.Param("id")
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}
	pat, ok, err := h.Store.GetPatientByID(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, pat)
}

func (h *ProfilesHandler) listMedicalHistory(c echo.Context) error {
	patientID := c.Param("id")
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}
	items, err := h.Store.ListMedicalHistoryByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProfilesHandler) addMedicalHistory(c echo.Context) error {
	patientID := c.Param("id")
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}
	var req MedicalHistoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Category == "" || req.Description == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category and description required")
	}
	rec := store.MedicalHistoryRecord{
		PatientID:   patientID,
		Category:    req.Category,
		Description: req.Description,
		Notes:       req.Notes,
		IsActive:    true,
	}
	if req.IsActive != nil {
		rec.IsActive = *req.IsActive
	}
	if req.DateRecorded != "" {
		recorded, err := time.Parse("2006-01-02", req.DateRecorded)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_recorded must be YYYY-MM-DD")
		}
		rec.DateRecorded = &recorded
	}
	created, err := h.Store.InsertMedicalHistory(c.Request().Context(), rec)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *ProfilesHandler) listVitals(c echo.Context) error {
	patientID := c.Param("id")
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}
	items, err := h.Store.ListVitalSignsByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProfilesHandler) addVitals(c echo.Context) error {
	patientID := c.Param("id")
	if err := requirePatientAccess(c, h.Store, patientID); err != nil {
		return err
	}
	var req VitalSignsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.Store.InsertVitalSigns(c.Request().Context(), store.VitalSignsRecord{
		PatientID:        patientID,
		ConversationID:   req.ConversationID,
		BPSystolic:       req.BPSystolic,
		BPDiastolic:      req.BPDiastolic,
		HeartRate:        req.HeartRate,
		Temperature:      req.Temperature,
		RespiratoryRate:  req.RespiratoryRate,
		OxygenSaturation: req.OxygenSaturation,
		Weight:           req.Weight,
		Height:           req.Height,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}
