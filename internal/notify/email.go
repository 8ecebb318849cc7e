package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	brevo "github.com/getbrevo/brevo-go/lib"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/logger"
)

// transacEmailAPI is the slice of the Brevo transactional API the notifier
// uses, kept as an interface so tests can fake deliveries.
type transacEmailAPI interface {
	SendTransacEmail(ctx context.Context, email brevo.SendSmtpEmail) (brevo.CreateSmtpEmail, *http.Response, error)
}

// EmailNotifier sends the outcome message to a fixed recipient list through
// Brevo's transactional email API.
type EmailNotifier struct {
	api        transacEmailAPI
	sender     brevo.SendSmtpEmailSender
	recipients []string
	composer   *Composer
}

// NewEmailNotifier builds a notifier backed by the Brevo API.
func NewEmailNotifier(apiKey, fromEmail, fromName string, recipients []string, composer *Composer) *EmailNotifier {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	client := brevo.NewAPIClient(cfg)

	return &EmailNotifier{
		api:        client.TransactionalEmailsApi,
		sender:     brevo.SendSmtpEmailSender{Name: fromName, Email: fromEmail},
		recipients: recipients,
		composer:   composer,
	}
}

// Send emails the outcome to every recipient. All recipients are attempted
// even when earlier ones fail.
func (n *EmailNotifier) Send(ctx context.Context, o Outcome) error {
	log := logger.FromContext(ctx)

	subject := n.composer.Subject(o)
	body := n.composer.Body(o)

	var errs []error
	for _, recipient := range n.recipients {
		email := brevo.SendSmtpEmail{
			Sender:      &n.sender,
			To:          []brevo.SendSmtpEmailTo{{Email: recipient}},
			Subject:     subject,
			TextContent: body,
		}
		created, _, err := n.api.SendTransacEmail(ctx, email)
		if err != nil {
			errs = append(errs, fmt.Errorf("send outcome email to %s: %w", recipient, err))
			continue
		}
		log.Info().
			Str("recipient", recipient).
			Str("message_id", created.MessageId).
			Msg("Outcome email sent")
	}
	if len(errs) > 0 {
		return domain.E(domain.KindNotification, errors.Join(errs...))
	}
	return nil
}
