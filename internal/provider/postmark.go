package provider

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	Stream       string
	From         string
	ReplyTo      string
}

// PostmarkSender is the transactional API transport.
type PostmarkSender struct {
	client *postmark.Client
	cfg    PostmarkConfig
}

func NewPostmark(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("postmark: server token is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("postmark: sender address is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		cfg:    cfg,
	}, nil
}

func (p *PostmarkSender) SendEmail(ctx context.Context, msg Message) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:          p.cfg.From,
		ReplyTo:       p.cfg.ReplyTo,
		To:            msg.To,
		Subject:       msg.Subject,
		HTMLBody:      msg.HTML,
		MessageStream: p.cfg.Stream,
		TrackOpens:    true,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}

var _ Sender = (*PostmarkSender)(nil)
