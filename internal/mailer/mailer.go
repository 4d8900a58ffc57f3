// Package mailer abstracts transactional email delivery.
package mailer

import "context"

// EmailSender delivers one email and returns the provider's message id,
// which delivery webhooks later reference.
type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) (externalID string, err error)
}
