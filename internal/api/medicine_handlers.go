package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/medpal-health/medpal/internal/medicine"
	"github.com/medpal-health/medpal/pkg/jsonutil"
)

func (s *Server) handleListMedicines(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	medicines, err := s.medicines.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		s.logger.Error("list medicines", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to load medicines")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"medicines": medicines,
	})
}

func (s *Server) handleCreateMedicine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var m medicine.Medicine
	if err := jsonutil.Decode(r, &m); err != nil || m.Name == "" {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Medicine name is required")
		return
	}
	m.UserID = claims.UserID

	if err := s.medicines.Create(r.Context(), &m); err != nil {
		s.logger.Error("create medicine", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to create medicine")
		return
	}

	jsonutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"medicine": m,
	})
}

func (s *Server) handleUpdateMedicine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id := mux.Vars(r)["id"]

	var m medicine.Medicine
	if err := jsonutil.Decode(r, &m); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.medicines.Update(r.Context(), claims.UserID, id, &m); err != nil {
		if errors.Is(err, medicine.ErrNotFound) {
			jsonutil.WriteErrorJSON(w, http.StatusNotFound, "Medicine not found")
			return
		}
		s.logger.Error("update medicine", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to update medicine")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteMedicine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id := mux.Vars(r)["id"]

	if err := s.medicines.Deactivate(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, medicine.ErrNotFound) {
			jsonutil.WriteErrorJSON(w, http.StatusNotFound, "Medicine not found")
			return
		}
		s.logger.Error("delete medicine", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to delete medicine")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
