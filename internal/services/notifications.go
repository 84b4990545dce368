package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentaheal/internal/models"
)

const textbeltURL = "https://textbelt.com/text"

// NotificationService sends appointment SMS through Textbelt.
type NotificationService struct {
	apiKey   string
	endpoint string
	client   *http.Client
	log      zerolog.Logger
}

func NewNotificationService(apiKey string, log zerolog.Logger) *NotificationService {
	return &NotificationService{
		apiKey:   apiKey,
		endpoint: textbeltURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "notifications").Logger(),
	}
}

// SendAppointmentSMS tells the patient about a booked or cancelled
// appointment. It returns immediately; delivery failures are only logged.
func (s *NotificationService) SendAppointmentSMS(patient *models.User, apt *models.Appointment) {
	if patient == nil || patient.Phone == "" {
		s.log.Info().Msg("SMS not sent: patient has no phone number")
		return
	}
	if s.apiKey == "" {
		s.log.Debug().Msg("SMS not sent: TEXTBELT_API_KEY not configured")
		return
	}

	body := appointmentMessage(patient, apt)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.client.Timeout)
		defer cancel()
		if err := s.send(ctx, patient.Phone, body); err != nil {
			s.log.Warn().Err(err).Str("appointment_id", apt.ID.Hex()).Msg("SMS delivery failed")
			return
		}
		s.log.Info().Str("appointment_id", apt.ID.Hex()).Msg("SMS sent")
	}()
}

func appointmentMessage(patient *models.User, apt *models.Appointment) string {
	when := apt.StartTime.Format("Jan 2 at 3:04 PM")
	if apt.Status == models.AppointmentCancelled {
		return fmt.Sprintf("Appointment Cancelled: %s for %s on %s.", apt.Service, patient.FullName, when)
	}
	return fmt.Sprintf("Appointment Confirmed: %s with %s on %s.", apt.Service, patient.FullName, when)
}

type textbeltResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *NotificationService) send(ctx context.Context, phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     s.apiKey,
	})
	if err != nil {
		return fmt.Errorf("encode sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("textbelt request: %w", err)
	}
	defer resp.Body.Close()

	var result textbeltResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("textbelt response: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("textbelt rejected message: %s", result.Error)
	}
	return nil
}
