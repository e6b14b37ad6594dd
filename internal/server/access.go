package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arman-radmanesh/clinicore/internal/store"
)

// requirePatientAccess allows doctors through and restricts patients to
// their own record. Every endpoint that reads or writes patient-scoped data
// goes through here.
func requirePatientAccess(c echo.Context, st *store.Store, patientID string) error {
	role, _ := c.Get("role").(string)
	if role == store.RoleDoctor {
		return nil
	}
	userID, _ := c.Get("user_id").(string)
	pat, ok, err := st.GetPatientByUserID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok || pat.ID != patientID {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return nil
}
