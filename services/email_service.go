package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/mail"
	"sync"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	apperrors "github.com/NomadCrew/tripsync-backend/errors"
	"github.com/NomadCrew/tripsync-backend/logger"
	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/resend/resend-go/v2"
)

type emailMetrics struct {
	sendLatency prometheus.Histogram
	errorCount  prometheus.Counter
	sentCount   prometheus.Counter
}

var (
	emailMetricsInstance *emailMetrics
	emailMetricsOnce     sync.Once
	emailRegistry        = prometheus.DefaultRegisterer
)

func newEmailMetrics() *emailMetrics {
	emailMetricsOnce.Do(func() {
		factory := promauto.With(emailRegistry)
		emailMetricsInstance = &emailMetrics{
			sendLatency: factory.NewHistogram(prometheus.HistogramOpts{
				Name:    "tripsync_email_send_duration_seconds",
				Help:    "Time taken to send emails",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
			}),
			errorCount: factory.NewCounter(prometheus.CounterOpts{
				Name: "tripsync_email_errors_total",
				Help: "Total number of email sending errors",
			}),
			sentCount: factory.NewCounter(prometheus.CounterOpts{
				Name: "tripsync_emails_sent_total",
				Help: "Total number of emails sent",
			}),
		}
	})
	return emailMetricsInstance
}

func resetEmailMetricsForTesting() {
	emailRegistry = prometheus.NewRegistry()
	emailMetricsInstance = nil
	emailMetricsOnce = sync.Once{}
}

// ShareEmail is one share-link email.
type ShareEmail struct {
	To       string
	Trip     *types.Trip
	ShareURL string
	// SenderName is shown in the greeting; empty reads as "Your travel group".
	SenderName string
}

type EmailService struct {
	config  *config.EmailConfig
	client  *resend.Client
	metrics *emailMetrics
	tmpl    *template.Template
}

func NewEmailService(cfg *config.EmailConfig) *EmailService {
	logger.GetLogger().Infow("Initializing email service",
		"from", cfg.FromAddress,
		"apiKey", logger.MaskSensitiveString(cfg.ResendAPIKey, 3, 0))
	return &EmailService{
		config:  cfg,
		client:  resend.NewClient(cfg.ResendAPIKey),
		metrics: newEmailMetrics(),
		tmpl:    template.Must(template.New("share").Parse(shareEmailTemplate)),
	}
}

// SendShareLink emails a trip's share link. It fails with a configuration
// error when no Resend key is set.
func (s *EmailService) SendShareLink(ctx context.Context, msg ShareEmail) error {
	log := logger.GetLogger()
	if s.config.ResendAPIKey == "" {
		return apperrors.NotConfigured("email")
	}
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return apperrors.ValidationFailed("invalid email address", msg.To)
	}
	if msg.Trip == nil || msg.ShareURL == "" {
		return apperrors.ValidationFailed("invalid share email", "trip and share URL are required")
	}

	start := time.Now()
	defer func() { s.metrics.sendLatency.Observe(time.Since(start).Seconds()) }()

	sender := msg.SenderName
	if sender == "" {
		sender = "Your travel group"
	}
	var html bytes.Buffer
	err := s.tmpl.Execute(&html, map[string]interface{}{
		"Sender":      sender,
		"Destination": msg.Trip.Destination,
		"Departure":   msg.Trip.DepartureDate.Format("2 Jan 2006"),
		"Return":      msg.Trip.ReturnDate.Format("2 Jan 2006"),
		"PerPerson":   msg.Trip.TotalPerPerson.StringFixed(0),
		"ShareURL":    msg.ShareURL,
		"ShareCode":   msg.Trip.ShareCode,
	})
	if err != nil {
		s.metrics.errorCount.Inc()
		return fmt.Errorf("failed to execute template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress),
		To:      []string{msg.To},
		Subject: fmt.Sprintf("Your trip to %s", msg.Trip.Destination),
		Html:    html.String(),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		s.metrics.errorCount.Inc()
		log.Errorw("Failed to send share email",
			"error", err,
			"to", logger.MaskEmail(msg.To),
			"tripID", msg.Trip.ID)
		return apperrors.Upstream("email", apperrors.CodeUpstreamFailure, err)
	}

	s.metrics.sentCount.Inc()
	log.Infow("Share email sent", "to", logger.MaskEmail(msg.To), "tripID", msg.Trip.ID)
	return nil
}

const shareEmailTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Your trip to {{.Destination}}</title>
    <style>
        body { font-family: sans-serif; background-color: #f7f7f7; color: #333333; padding: 20px; text-align: center; }
        .container { max-width: 600px; margin: 20px auto; background-color: #ffffff; padding: 30px; border-radius: 12px; }
        h1 { color: #1F7A8C; font-size: 26px; }
        .button { display: inline-block; padding: 12px 24px; font-weight: bold; text-decoration: none; background-color: #1F7A8C; color: #ffffff; border-radius: 8px; }
        .link { margin-top: 20px; font-size: 14px; color: #777777; word-break: break-all; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Destination}}, {{.Departure}} to {{.Return}}</h1>
        <p>{{.Sender}} shared a trip with you. It comes to about {{.PerPerson}} per person.</p>
        <p>Mark yourself as paid and vote on the itinerary here:</p>
        <p><a href="{{.ShareURL}}" class="button">Open the trip</a></p>
        <p class="link">Or enter code {{.ShareCode}}, or copy this link:<br/>{{.ShareURL}}</p>
        <p class="link">The link stays open for payments for 24 hours.</p>
    </div>
</body>
</html>`
