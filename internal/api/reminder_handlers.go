package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medpal-health/medpal/internal/reminder"
	"github.com/medpal-health/medpal/pkg/jsonutil"
)

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var day *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = &parsed
	}

	reminders, err := s.reminders.ListByUser(r.Context(), claims.UserID, day)
	if err != nil {
		s.logger.Error("list reminders", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to load reminders")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"reminders": reminders,
	})
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var in struct {
		MedicineID    string    `json:"medicine_id"`
		ScheduledTime time.Time `json:"scheduled_time"`
	}
	if err := jsonutil.Decode(r, &in); err != nil || in.MedicineID == "" || in.ScheduledTime.IsZero() {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "medicine_id and scheduled_time are required")
		return
	}

	rem := &reminder.Reminder{
		MedicineID:    in.MedicineID,
		UserID:        claims.UserID,
		ScheduledTime: in.ScheduledTime,
	}
	if err := s.reminders.Create(r.Context(), rem); err != nil {
		s.logger.Error("create reminder", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to create reminder")
		return
	}

	jsonutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"reminder": rem,
	})
}

// handleMarkTaken is the user-action transition pending -> taken. Terminal
// states are left alone and reported as a conflict.
func (s *Server) handleMarkTaken(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id := mux.Vars(r)["id"]

	rem, err := s.reminders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, reminder.ErrNotFound) {
			jsonutil.WriteErrorJSON(w, http.StatusNotFound, "Reminder not found")
			return
		}
		s.logger.Error("load reminder", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to load reminder")
		return
	}
	if rem.UserID != claims.UserID {
		jsonutil.WriteErrorJSON(w, http.StatusNotFound, "Reminder not found")
		return
	}

	if err := s.reminders.MarkTaken(r.Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, reminder.ErrNotPending) {
			jsonutil.WriteErrorJSON(w, http.StatusConflict, "Reminder is no longer pending")
			return
		}
		s.logger.Error("mark reminder taken", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to update reminder")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
