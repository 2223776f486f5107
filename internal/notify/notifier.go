package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mundamarket/stock-engine/internal/config"
	"github.com/mundamarket/stock-engine/internal/domain"
)

// Notifier fans an alert out to a buyer's configured channels. In-app
// delivery is the alert row itself, so only email and SMS need transport.
type Notifier interface {
	Send(ctx context.Context, contact *domain.BuyerContact, channels domain.NotificationChannels, alert *domain.InventoryAlert)
}

type notifier struct {
	cfg    config.NotifyConfig
	client *http.Client
}

func NewNotifier(cfg config.NotifyConfig) Notifier {
	return &notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send delivers best-effort: a failed channel is logged and never fails the
// alert run.
func (n *notifier) Send(ctx context.Context, contact *domain.BuyerContact, channels domain.NotificationChannels, alert *domain.InventoryAlert) {
	if contact == nil {
		return
	}

	if channels.Email && contact.Email != nil && *contact.Email != "" {
		if err := n.sendEmail(*contact.Email, alert); err != nil {
			log.Warn().Err(err).
				Int64("buyer_id", contact.BuyerID).
				Int64("alert_id", alert.ID).
				Msg("notify: email delivery failed")
		}
	}

	if channels.SMS && contact.Phone != nil && *contact.Phone != "" {
		if err := n.sendSMS(ctx, *contact.Phone, alert); err != nil {
			log.Warn().Err(err).
				Int64("buyer_id", contact.BuyerID).
				Int64("alert_id", alert.ID).
				Msg("notify: sms delivery failed")
		}
	}
}

func (n *notifier) sendEmail(to string, alert *domain.InventoryAlert) error {
	if n.cfg.SMTPHost == "" {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)
	var auth smtp.Auth
	if n.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", n.cfg.SMTPUser, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	}

	msg := strings.Join([]string{
		"From: " + n.cfg.SMTPFrom,
		"To: " + to,
		"Subject: " + alert.Title,
		"",
		alert.Message,
	}, "\r\n")

	return smtp.SendMail(addr, auth, n.cfg.SMTPFrom, []string{to}, []byte(msg))
}

func (n *notifier) sendSMS(ctx context.Context, to string, alert *domain.InventoryAlert) error {
	if n.cfg.TwilioSID == "" || n.cfg.TwilioToken == "" {
		return nil
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", n.cfg.TwilioSID)
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", n.cfg.TwilioFrom)
	form.Set("Body", alert.Title+": "+alert.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(n.cfg.TwilioSID, n.cfg.TwilioToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}
	return nil
}

// ParseChannels decodes a preference's channel JSON. Malformed or missing
// JSON falls back to in-app only so alert rows are still written.
func ParseChannels(raw *string) domain.NotificationChannels {
	fallback := domain.NotificationChannels{InApp: true}
	if raw == nil || *raw == "" {
		return fallback
	}

	var channels domain.NotificationChannels
	if err := json.Unmarshal([]byte(*raw), &channels); err != nil {
		log.Warn().Err(err).Msg("notify: invalid notification_channels json")
		return fallback
	}
	return channels
}

type noopNotifier struct{}

// NewNoopNotifier returns a notifier that drops everything; used in tests
// and when outbound delivery is disabled.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Send(context.Context, *domain.BuyerContact, domain.NotificationChannels, *domain.InventoryAlert) {
}
