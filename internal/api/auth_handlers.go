package api

import (
	"errors"
	"net/http"

	"github.com/medpal-health/medpal/internal/auth"
	"github.com/medpal-health/medpal/pkg/jsonutil"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in auth.RegisterInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := s.auth.Register(r.Context(), in)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			jsonutil.WriteErrorJSON(w, http.StatusConflict, err.Error())
			return
		}
		s.logger.Error("register failed", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"user":    user,
		"token":   token,
		"message": "Registration successful",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, token, err := s.auth.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, err.Error())
			return
		}
		s.logger.Error("login failed", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Login failed")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	if s.otp == nil {
		jsonutil.WriteErrorJSON(w, http.StatusServiceUnavailable, "Verification is not available")
		return
	}

	var in struct {
		Phone string `json:"phone"`
	}
	if err := jsonutil.Decode(r, &in); err != nil || in.Phone == "" {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	res, err := s.otp.Issue(r.Context(), in.Phone)
	if err != nil {
		s.logger.Error("issue otp", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to issue verification code")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  res,
	})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	if s.otp == nil {
		jsonutil.WriteErrorJSON(w, http.StatusServiceUnavailable, "Verification is not available")
		return
	}

	var in struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := jsonutil.Decode(r, &in); err != nil || in.Phone == "" || in.Code == "" {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Phone number and code are required")
		return
	}

	if err := s.otp.Verify(r.Context(), in.Phone, in.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrChallengeExpired), errors.Is(err, auth.ErrCodeMismatch):
			jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, err.Error())
		default:
			s.logger.Error("verify otp", "error", err)
			jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
