package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/renthub/rent-ledger/internal/domain/ports"
	"github.com/renthub/rent-ledger/pkg/observability"
	"github.com/renthub/rent-ledger/pkg/resilience"
	"github.com/renthub/rent-ledger/pkg/timeutil"
)

const maxAttempts = 3

// Config holds webhook notifier configuration
type Config struct {
	TenantWebhookURL   string
	LandlordWebhookURL string
	SigningSecret      string // shared secret for HMAC-SHA256 request signing
}

// HTTPNotifier delivers settlement notifications to webhook endpoints.
// Each request body is signed with HMAC-SHA256 so the receiver can verify
// it came from this service. Delivery failures never propagate: settlement
// has already committed by the time a notification is sent.
type HTTPNotifier struct {
	config     Config
	httpClient ports.HTTPClient
	timeouts   *resilience.TimeoutConfig
	backoff    *resilience.ExponentialBackoff
	logger     ports.Logger
}

// New creates a new webhook notifier with dependency injection
func New(config Config, httpClient ports.HTTPClient, timeouts *resilience.TimeoutConfig, logger ports.Logger) *HTTPNotifier {
	return &HTTPNotifier{
		config:     config,
		httpClient: httpClient,
		timeouts:   timeouts,
		backoff:    resilience.NotificationBackoff(),
		logger:     logger,
	}
}

// NewWithDefaults creates a webhook notifier with a default HTTP client
func NewWithDefaults(config Config, logger ports.Logger) *HTTPNotifier {
	return New(config, &http.Client{Timeout: 15 * time.Second}, resilience.DefaultTimeoutConfig(), logger)
}

type notification struct {
	RecipientID string `json:"recipient_id"`
	Message     string `json:"message"`
	SentAt      string `json:"sent_at"`
}

// NotifyTenant implements ports.Notifier
func (n *HTTPNotifier) NotifyTenant(ctx context.Context, tenantID uuid.UUID, message string) error {
	return n.deliver(ctx, "tenant", n.config.TenantWebhookURL, tenantID, message)
}

// NotifyLandlord implements ports.Notifier
func (n *HTTPNotifier) NotifyLandlord(ctx context.Context, landlordID uuid.UUID, message string) error {
	return n.deliver(ctx, "landlord", n.config.LandlordWebhookURL, landlordID, message)
}

func (n *HTTPNotifier) deliver(ctx context.Context, recipient, url string, recipientID uuid.UUID, message string) error {
	if url == "" {
		n.logger.Debug("notification webhook not configured, skipping",
			ports.String("recipient", recipient))
		return nil
	}

	body, err := json.Marshal(notification{
		RecipientID: recipientID.String(),
		Message:     message,
		SentAt:      timeutil.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := n.backoff.NextDelay(attempt - 1)
			select {
			case <-ctx.Done():
				observability.RecordNotificationDelivery(recipient, "failed")
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = n.post(ctx, url, body)
		if lastErr == nil {
			observability.RecordNotificationDelivery(recipient, "success")
			return nil
		}

		n.logger.Warn("notification delivery attempt failed",
			ports.String("recipient", recipient),
			ports.String("recipient_id", recipientID.String()),
			ports.Int("attempt", attempt+1),
			ports.Err(lastErr))
	}

	observability.RecordNotificationDelivery(recipient, "failed")
	return fmt.Errorf("notification delivery failed after %d attempts: %w", maxAttempts, lastErr)
}

func (n *HTTPNotifier) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := n.timeouts.NotificationContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", n.sign(body))

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *HTTPNotifier) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(n.config.SigningSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
