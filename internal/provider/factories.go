package provider

import (
	"context"

	"github.com/notifyhub/campaign-mailer/internal/config"
)

// Factories returns one lazy constructor per transport built from cfg.
// Nothing is dialled or validated until a transport is first used.
func Factories(cfg *config.Config) map[Kind]Factory {
	return map[Kind]Factory{
		ManagedRelay: func(ctx context.Context) (Sender, error) {
			return NewSES(ctx, SESConfig{
				Region:           cfg.SES.Region,
				AccessKeyID:      cfg.SES.AccessKeyID,
				SecretAccessKey:  cfg.SES.SecretAccessKey,
				ConfigurationSet: cfg.SES.ConfigurationSet,
				From:             cfg.SenderEmail,
				ReplyTo:          cfg.SupportEmail,
			})
		},
		TransactionalAPI: func(context.Context) (Sender, error) {
			return NewPostmark(PostmarkConfig{
				ServerToken:  cfg.Postmark.ServerToken,
				AccountToken: cfg.Postmark.AccountToken,
				Stream:       cfg.Postmark.Stream,
				From:         cfg.SenderEmail,
				ReplyTo:      cfg.SupportEmail,
			})
		},
		DirectProtocol: func(context.Context) (Sender, error) {
			return NewSMTP(SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				TLSMode:  cfg.SMTP.TLSMode,
				From:     cfg.SenderEmail,
				ReplyTo:  cfg.SupportEmail,
			})
		},
	}
}
