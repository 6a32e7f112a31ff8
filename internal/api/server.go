package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/medpal-health/medpal/internal/auth"
	"github.com/medpal-health/medpal/internal/medicine"
	"github.com/medpal-health/medpal/internal/notify"
	"github.com/medpal-health/medpal/internal/reminder"
	"github.com/medpal-health/medpal/pkg/jsonutil"
)

// Notifier dispatches one notification and reports per-channel results.
type Notifier interface {
	Send(ctx context.Context, kind notify.Kind, data notify.Data) []notify.Result
}

// TaskQueue enqueues a notification task for the async worker.
type TaskQueue interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

// NotificationQueue is the RabbitMQ queue the async worker consumes.
const NotificationQueue = "notifications"

// Server holds the HTTP surface of the MedPal backend.
type Server struct {
	auth       *auth.Service
	tokens     *auth.TokenManager
	otp        *auth.OTPIssuer // nil when Redis is not configured
	notifier   Notifier
	notifyRepo *notify.Repository // nil when the DB is not configured
	medicines  *medicine.Repository
	reminders  *reminder.Repository
	queue      TaskQueue // nil when RabbitMQ is not configured
	hub        *Hub
	logger     *slog.Logger
}

// Config bundles the server's collaborators; optional ones may be nil.
type Config struct {
	Auth       *auth.Service
	Tokens     *auth.TokenManager
	OTP        *auth.OTPIssuer
	Notifier   Notifier
	NotifyRepo *notify.Repository
	Medicines  *medicine.Repository
	Reminders  *reminder.Repository
	Queue      TaskQueue
	Hub        *Hub
	Logger     *slog.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		auth:       cfg.Auth,
		tokens:     cfg.Tokens,
		otp:        cfg.OTP,
		notifier:   cfg.Notifier,
		notifyRepo: cfg.NotifyRepo,
		medicines:  cfg.Medicines,
		reminders:  cfg.Reminders,
		queue:      cfg.Queue,
		hub:        cfg.Hub,
		logger:     logger,
	}
}

// Router builds the full route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/otp/request", s.handleOTPRequest).Methods(http.MethodPost)
	r.HandleFunc("/auth/otp/verify", s.handleOTPVerify).Methods(http.MethodPost)

	r.HandleFunc("/notifications/send", s.handleSendNotification).Methods(http.MethodPost)
	r.Handle("/notifications", s.requireAuth(s.handleUserNotification)).Methods(http.MethodPost)
	r.Handle("/notifications", s.requireAuth(s.handleNotificationHistory)).Methods(http.MethodGet)

	r.Handle("/medicines", s.requireAuth(s.handleListMedicines)).Methods(http.MethodGet)
	r.Handle("/medicines", s.requireAuth(s.handleCreateMedicine)).Methods(http.MethodPost)
	r.Handle("/medicines/{id}", s.requireAuth(s.handleUpdateMedicine)).Methods(http.MethodPut)
	r.Handle("/medicines/{id}", s.requireAuth(s.handleDeleteMedicine)).Methods(http.MethodDelete)

	r.Handle("/reminders", s.requireAuth(s.handleListReminders)).Methods(http.MethodGet)
	r.Handle("/reminders", s.requireAuth(s.handleCreateReminder)).Methods(http.MethodPost)
	r.Handle("/reminders/{id}/taken", s.requireAuth(s.handleMarkTaken)).Methods(http.MethodPatch)

	if s.hub != nil {
		r.HandleFunc("/ws", s.hub.HandleWS)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonutil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "active",
		"service": "medpal",
		"date":    time.Now().Format(time.DateTime),
	})
}
