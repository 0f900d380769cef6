package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// JobNameSendEmail is the only job type this system produces.
const JobNameSendEmail = "sendEmail"

// Priority is a queue ordering hint. Lower values are served first;
// zero means "use the queue default".
type Priority int

const (
	PriorityHigh   Priority = 1
	PriorityMedium Priority = 5
	PriorityLow    Priority = 10
)

// ParsePriority maps the textual form used by the HTTP API.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "high":
		return PriorityHigh, nil
	case "medium", "normal":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "":
		return 0, nil
	}
	return 0, ErrInvalidPriority
}

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	}
	return "custom"
}

// EmailJobData is the producer-facing payload of a sendEmail job.
type EmailJobData struct {
	To             string    `json:"to"`
	Subject        string    `json:"subject"`
	HTML           string    `json:"html"`
	ProviderName   string    `json:"providerName,omitempty"`
	Providers      []string  `json:"providers,omitempty"`
	IdempotencyKey string    `json:"idempotencyKey,omitempty"`
	EventName      EventName `json:"eventName,omitempty"`
	Role           Role      `json:"role,omitempty"`
}

// SendEmailRequest is the inbound payload for a raw email job.
type SendEmailRequest struct {
	To             string   `json:"to" validate:"required,email"`
	Subject        string   `json:"subject" validate:"required,max=998"`
	HTML           string   `json:"html" validate:"required"`
	ProviderName   string   `json:"providerName,omitempty" validate:"omitempty,oneof=ses postmark smtp"`
	Providers      []string `json:"providers,omitempty" validate:"omitempty,dive,oneof=ses postmark smtp"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty" validate:"omitempty,max=255"`
	Priority       string   `json:"priority,omitempty" validate:"omitempty,oneof=high medium normal low"`
	Delay          string   `json:"delay,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request and maps the first violation to a sentinel error.
func (r *SendEmailRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		if r.Delay != "" {
			if d, perr := time.ParseDuration(r.Delay); perr != nil || d < 0 {
				return ErrInvalidDelay
			}
		}
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	field := verrs[0].StructField()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	switch field {
	case "To":
		return ErrInvalidRecipient
	case "Subject", "HTML":
		return ErrInvalidContent
	case "ProviderName", "Providers":
		return ErrUnknownProvider
	case "Priority":
		return ErrInvalidPriority
	default:
		return err
	}
}

// Data converts the request into job data.
func (r *SendEmailRequest) Data() EmailJobData {
	return EmailJobData{
		To:             r.To,
		Subject:        r.Subject,
		HTML:           r.HTML,
		ProviderName:   r.ProviderName,
		Providers:      r.Providers,
		IdempotencyKey: r.IdempotencyKey,
	}
}

// PublishEventRequest is the inbound payload for a domain event.
type PublishEventRequest struct {
	Event EventName      `json:"event"`
	Data  map[string]any `json:"data"`
}

func (r *PublishEventRequest) Validate() error {
	if r.Event == "" {
		return ErrInvalidEvent
	}
	return nil
}
