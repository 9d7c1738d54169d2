package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/eventops/backoffice-api/internal/notifier/phone"
	"github.com/eventops/backoffice-api/pkg/circuitbreaker"
	"github.com/eventops/backoffice-api/pkg/logger"
)

// WhatsAppConfig holds gateway credentials, loaded from WHATSAPP_* env vars.
type WhatsAppConfig struct {
	BaseURL    string        `envconfig:"BASE_URL" default:"https://api.green-api.com"`
	InstanceID string        `envconfig:"INSTANCE_ID"`
	Token      string        `envconfig:"TOKEN"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

func LoadWhatsAppConfig() (WhatsAppConfig, error) {
	var cfg WhatsAppConfig
	if err := envconfig.Process("whatsapp", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to load whatsapp config: %w", err)
	}
	return cfg, nil
}

// WhatsAppGateway sends messages through a green-api style HTTP gateway.
// A circuit breaker stops hammering the gateway while it is down.
type WhatsAppGateway struct {
	cfg     WhatsAppConfig
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

func NewWhatsAppGateway(cfg WhatsAppConfig, logger *logger.Logger) *WhatsAppGateway {
	return &WhatsAppGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "whatsapp",
			MaxRequests: 5,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
		}),
		logger: logger,
	}
}

type whatsappMessage struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

func (g *WhatsAppGateway) Send(ctx context.Context, phoneNumber, text string) error {
	if phone.Normalize(phoneNumber) == "" {
		return fmt.Errorf("no deliverable phone number")
	}
	chatID := phone.ChatID(phoneNumber)

	body, err := json.Marshal(whatsappMessage{ChatID: chatID, Message: text})
	if err != nil {
		return fmt.Errorf("failed to encode whatsapp message: %w", err)
	}
	url := fmt.Sprintf("%s/waInstance%s/sendMessage/%s", g.cfg.BaseURL, g.cfg.InstanceID, g.cfg.Token)

	return g.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("whatsapp gateway unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("whatsapp gateway returned %d: %s", resp.StatusCode, string(detail))
		}
		return nil
	})
}
