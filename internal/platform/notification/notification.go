// Package notification delivers booking reminders over email/SMS with
// template rendering, in-memory delivery records, and retry.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery channel for a notification.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is a single outbound message and its delivery record.
type Notification struct {
	ID         string            `json:"id"`
	Channel    Channel           `json:"channel"`
	Recipient  string            `json:"recipient"`
	Subject    string            `json:"subject,omitempty"`
	Body       string            `json:"body"`
	TemplateID string            `json:"template_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	SentAt     *time.Time        `json:"sent_at,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// EmailSender sends email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Subject string  `json:"subject"`
	Body    string  `json:"body"`
	Channel Channel `json:"channel"`
}

// TemplateEngine holds the clinic's message templates and renders them
// with per-message data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in booking
// templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

const (
	TemplateBooked    = "appointment-booked"
	TemplateReminder  = "appointment-reminder"
	TemplateCancelled = "appointment-cancelled"
	TemplateFollowup  = "followup-scheduled"
)

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateBooked,
			Name:    "Appointment Booked",
			Subject: "Your appointment on {{date}} is confirmed",
			Body:    "Your {{type}} appointment on {{date}} at {{time}} has been booked. Reference: {{reference}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateReminder,
			Name:    "Appointment Reminder",
			Subject: "Appointment reminder for {{date}}",
			Body:    "This is a reminder of your appointment on {{date}} at {{time}}.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateCancelled,
			Name:    "Appointment Cancelled",
			Subject: "Your appointment on {{date}} was cancelled",
			Body:    "Your appointment on {{date}} at {{time}} has been cancelled. The slot is available for rebooking.",
			Channel: ChannelEmail,
		},
		{
			ID:      TemplateFollowup,
			Name:    "Follow-up Scheduled",
			Subject: "Follow-up visit scheduled for {{date}}",
			Body:    "A follow-up visit for your treatment has been scheduled on {{date}} at {{time}}.",
			Channel: ChannelEmail,
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template and performs {{key}} replacement. Keys in
// the template but absent from data are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

func (e *TemplateEngine) channelOf(templateID string) Channel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if t, ok := e.templates[templateID]; ok {
		return t.Channel
	}
	return ChannelEmail
}

// Manager dispatches notifications and keeps their delivery records so
// failed sends can be inspected and retried.
type Manager struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine

	mu      sync.RWMutex
	records map[string]*Notification
}

func NewManager(email EmailSender, sms SMSSender, templates *TemplateEngine) *Manager {
	return &Manager{
		email:     email,
		sms:       sms,
		templates: templates,
		records:   make(map[string]*Notification),
	}
}

// Send dispatches n through its channel and records the outcome.
func (m *Manager) Send(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	n.Status = "pending"

	sendErr := m.dispatch(ctx, n)
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
	}

	m.mu.Lock()
	m.records[n.ID] = n
	m.mu.Unlock()

	return sendErr
}

func (m *Manager) dispatch(ctx context.Context, n *Notification) error {
	switch n.Channel {
	case ChannelEmail:
		if m.email == nil {
			return errors.New("no email sender configured")
		}
		return m.email.SendEmail(ctx, n.Recipient, n.Subject, n.Body)
	case ChannelSMS:
		if m.sms == nil {
			return errors.New("no sms sender configured")
		}
		return m.sms.SendSMS(ctx, n.Recipient, n.Body)
	}
	return fmt.Errorf("unsupported channel %q", n.Channel)
}

// SendFromTemplate renders a template and sends the result.
func (m *Manager) SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	n := &Notification{
		Channel:    m.templates.channelOf(templateID),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		TemplateID: templateID,
		Data:       data,
	}
	if err := m.Send(ctx, n); err != nil {
		return n, err
	}
	return n, nil
}

// Get returns the delivery record for id.
func (m *Manager) Get(id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	return n, nil
}

// Retry re-sends a failed notification.
func (m *Manager) Retry(ctx context.Context, id string) error {
	m.mu.RLock()
	n, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("notification %q not found", id)
	}
	if n.Status != "failed" {
		return fmt.Errorf("notification %q is not failed (current: %s)", id, n.Status)
	}

	sendErr := m.dispatch(ctx, n)
	m.mu.Lock()
	if sendErr != nil {
		n.Status = "failed"
		n.Error = sendErr.Error()
	} else {
		n.Status = "sent"
		sentAt := time.Now().UTC()
		n.SentAt = &sentAt
		n.Error = ""
	}
	m.mu.Unlock()
	return sendErr
}

// Stats returns delivery counts grouped by status.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := make(map[string]int)
	for _, n := range m.records {
		stats[n.Status]++
	}
	return stats
}
