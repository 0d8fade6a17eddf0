// Package notify delivers booking emails through the EmailJS REST API.
// Delivery is a single attempt; callers decide whether a failure is worth
// surfacing, and it never rolls back the change that triggered it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultEndpoint is the EmailJS send API.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

var ErrNotConfigured = errors.New("email service not configured: set EMAILJS_SERVICE_ID, EMAILJS_TEMPLATE_ID, EMAILJS_PUBLIC_KEY")

// Message is the set of template parameters for one email.
type Message struct {
	Params map[string]string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Credentials struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
}

func (c Credentials) complete() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// PublicConfig is what the dashboards may see. None of the EmailJS
// identifiers is secret.
type PublicConfig struct {
	ServiceID  string `json:"serviceId"`
	TemplateID string `json:"templateId"`
	PublicKey  string `json:"publicKey"`
	OK         bool   `json:"ok"`
}

type EmailJS struct {
	creds    Credentials
	endpoint string
	client   *http.Client
}

func NewEmailJS(creds Credentials, endpoint string, client *http.Client) *EmailJS {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &EmailJS{creds: creds, endpoint: endpoint, client: client}
}

func (e *EmailJS) PublicConfig() PublicConfig {
	return PublicConfig{
		ServiceID:  e.creds.ServiceID,
		TemplateID: e.creds.TemplateID,
		PublicKey:  e.creds.PublicKey,
		OK:         e.creds.complete(),
	}
}

type sendPayload struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func (e *EmailJS) Send(ctx context.Context, msg Message) error {
	if !e.creds.complete() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendPayload{
		ServiceID:      e.creds.ServiceID,
		TemplateID:     e.creds.TemplateID,
		UserID:         e.creds.PublicKey,
		TemplateParams: msg.Params,
	})
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		txt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := strings.TrimSpace(string(txt))
		if detail == "" {
			detail = "EmailJS send failed"
		}
		return fmt.Errorf("emailjs %s: %s", resp.Status, detail)
	}
	return nil
}

// Dispatcher runs sends with a timeout. Go is fire-and-forget; Wait blocks
// until background sends finish so shutdown does not cut them off.
type Dispatcher struct {
	sender  Sender
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, logger *zap.Logger, timeout time.Duration) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger, timeout: timeout}
}

// Send delivers msg now and returns the error for the caller to surface.
func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.sender.Send(ctx, msg)
}

// Go delivers msg in the background and only logs the outcome.
func (d *Dispatcher) Go(kind string, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Send(context.Background(), msg); err != nil {
			d.logger.Warn("email skipped", zap.String("kind", kind), zap.Error(err))
			return
		}
		d.logger.Debug("email sent", zap.String("kind", kind))
	}()
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
