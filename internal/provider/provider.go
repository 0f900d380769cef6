package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies one email transport. The set is closed.
type Kind string

const (
	ManagedRelay     Kind = "ses"
	TransactionalAPI Kind = "postmark"
	DirectProtocol   Kind = "smtp"
)

// Kinds lists every transport in default fallback order.
var Kinds = []Kind{ManagedRelay, TransactionalAPI, DirectProtocol}

var ErrNotConfigured = errors.New("provider not configured")

// ParseKind maps a provider name to its Kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case ManagedRelay, TransactionalAPI, DirectProtocol:
		return k, nil
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// Message is one rendered email ready for a transport.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender abstracts delivery through an external email transport.
// Mocking this interface in tests gives full control over provider behaviour
// without touching the network.
type Sender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) SendEmail(ctx context.Context, msg Message) error { return f(ctx, msg) }
