package handler

import (
	"errors"
	"net/http"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/service"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser creates an account and returns a bearer token
func (h *Handler) RegisterUser(c echo.Context) error {
	log := logger.FromContext(c)

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse register request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	token, err := h.Auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		log.Warn("Email already registered", zap.String("email", req.Email))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email already registered"})
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case err != nil:
		log.Error("Registration failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, token)
}

// Login exchanges credentials for a bearer token
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	token, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		log.Warn("Login rejected", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	if err != nil {
		log.Error("Login failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	return c.JSON(http.StatusOK, token)
}
