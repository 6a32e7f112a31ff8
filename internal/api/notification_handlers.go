package api

import (
	"fmt"
	"net/http"

	"github.com/medpal-health/medpal/internal/notify"
	"github.com/medpal-health/medpal/pkg/jsonutil"
)

// schedulerKinds is the type vocabulary of the internal dispatch endpoint
// used by the scheduler-facing tooling.
var schedulerKinds = map[string]notify.Kind{
	"medicine-reminder": notify.KindRoutine,
	"missed-medicine":   notify.KindMissed,
	"low-stock":         notify.KindLowStock,
}

// userKinds is the type vocabulary of the authenticated user endpoint.
var userKinds = map[string]notify.Kind{
	"medicine_reminder":          notify.KindRoutine,
	"critical_medicine_reminder": notify.KindCritical,
	"appointment_reminder":       notify.KindAppointment,
	"refill_reminder":            notify.KindRefill,
}

// handleSendNotification dispatches a fully-specified notification inline.
func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Type string      `json:"type"`
		Data notify.Data `json:"notificationData"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, ok := schedulerKinds[in.Type]
	if !ok {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid notification type")
		return
	}

	results := s.notifier.Send(r.Context(), kind, in.Data)
	if results == nil {
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to send notifications")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Notifications sent: %d/%d", notify.SuccessCount(results), len(results)),
		"results": results,
	})
}

// handleUserNotification dispatches (or enqueues) a notification for the
// authenticated user; contact fields come from the verified token, not the
// payload.
func (s *Server) handleUserNotification(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if claims == nil {
		jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var in struct {
		Type  string      `json:"type"`
		Data  notify.Data `json:"data"`
		Async bool        `json:"async,omitempty"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind, ok := userKinds[in.Type]
	if !ok {
		jsonutil.WriteErrorJSON(w, http.StatusBadRequest, "Invalid notification type")
		return
	}

	data := in.Data
	data.UserID = claims.UserID
	data.UserName = claims.Name
	data.UserEmail = claims.Email
	data.UserPhone = claims.Phone
	if data.Channel == "" {
		data.Channel = notify.ChannelBoth
	}

	if in.Async && s.queue != nil {
		body, err := notify.Task{Kind: kind, Data: data}.Encode()
		if err != nil {
			jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to enqueue notification")
			return
		}
		if err := s.queue.Publish(r.Context(), NotificationQueue, body); err != nil {
			s.logger.Error("enqueue notification", "error", err)
			jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to enqueue notification")
			return
		}
		jsonutil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"success": true,
			"message": "Notification queued",
		})
		return
	}

	results := s.notifier.Send(r.Context(), kind, data)
	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"result":  results,
	})
}

// handleNotificationHistory returns the caller's notification log.
func (s *Server) handleNotificationHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	if claims == nil {
		jsonutil.WriteErrorJSON(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.notifyRepo == nil {
		jsonutil.WriteErrorJSON(w, http.StatusServiceUnavailable, "Notification history is not available")
		return
	}

	records, err := s.notifyRepo.ListByUser(r.Context(), claims.UserID, 50)
	if err != nil {
		s.logger.Error("list notifications", "error", err)
		jsonutil.WriteErrorJSON(w, http.StatusInternalServerError, "Failed to load notifications")
		return
	}

	jsonutil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"notifications": records,
	})
}
