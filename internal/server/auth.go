package server

import (
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/arman-radmanesh/clinicore/internal/runtime"
	"github.com/arman-radmanesh/clinicore/internal/store"
)

type AuthHandler struct {
	Store  *store.Store
	Secret []byte
}

func (a *AuthHandler) Register(g *echo.Group) {
	g.POST("/signup", a.signup)
	g.POST("/login", a.login)
	g.POST("/logout", a.logout)
}

func (a *AuthHandler) signup(c echo.Context) error {
	var req AuthSignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	if req.Role != store.RoleDoctor && req.Role != store.RolePatient {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be doctor or patient")
	}
	if req.Role == store.RoleDoctor && req.LicenseNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "license_number required for doctors")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	userID, err := a.Store.CreateUser(ctx, req.Email, string(hash), req.FullName, req.Role)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return echo.NewHTTPError(http.StatusConflict, "email already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	switch req.Role {
	case store.RoleDoctor:
		_, err = a.Store.CreateDoctor(ctx, store.DoctorRecord{
			UserID:         userID,
			LicenseNumber:  req.LicenseNumber,
			Specialization: req.Specialization,
			Department:     req.Department,
			Phone:          req.Phone,
		})
	case store.RolePatient:
		rec := store.PatientRecord{
			UserID:           userID,
			Gender:           req.Gender,
			BloodGroup:       req.BloodGroup,
			Phone:            req.Phone,
			Address:          req.Address,
			EmergencyContact: req.EmergencyContact,
		}
		if req.DateOfBirth != "" {
			dob, perr := time.Parse("2006-01-02", req.DateOfBirth)
			if perr != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "date_of_birth must be YYYY-MM-DD")
			}
			rec.DateOfBirth = &dob
		}
		_, err = a.Store.CreatePatient(ctx, rec)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, IDResponse{ID: userID})
}

func (a *AuthHandler) login(c echo.Context) error {
	var req AuthLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "password too short")
	}
	user, ok, err := a.Store.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil || !ok || !user.IsActive {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	signed, err := runtime.SignJWT(user.ID, user.Role, a.Secret, 24*time.Hour)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = signed
	cookie.Path = "/"
	cookie.HttpOnly = true
	cookie.SameSite = http.SameSiteLaxMode
	if os.Getenv("CLINICORE_ENV") == "prod" {
		cookie.Secure = true
	}
	c.SetCookie(cookie)
	// also return token for Bearer flows
	c.Response().Header().Set("Authorization", "Bearer "+signed)
	return c.JSON(http.StatusOK, TokenResponse{Token: signed, Role: user.Role})
}

func (a *AuthHandler) logout(c echo.Context) error {
	cookie := new(http.Cookie)
	cookie.Name = "auth"
	cookie.Value = ""
	cookie.Path = "/"
	cookie.MaxAge = -1
	c.SetCookie(cookie)
	return c.NoContent(http.StatusOK)
}

// me returns the authenticated account.
func (a *AuthHandler) me(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	user, ok, err := a.Store.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return c.JSON(http.StatusOK, MeResponse{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	})
}
