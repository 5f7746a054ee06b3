package service

import (
	"context"
	"fmt"
	"strings"

	mailjet "github.com/mailjet/mailjet-apiv3-go"
)

// Email is one outgoing outreach message. Both template variables and
// rendered bodies are populated; the mailer picks whichever its
// configuration calls for.
type Email struct {
	ToEmail      string
	ToName       string
	ReplyToEmail string
	ReplyToName  string
	Subject      string
	TextBody     string
	HTMLBody     string
	Variables    map[string]interface{}
}

// Mailer delivers outreach email.
type Mailer interface {
	Send(ctx context.Context, msg *Email) error
}

// MailjetMailer sends through the Mailjet v3.1 send API.
type MailjetMailer struct {
	client     *mailjet.Client
	sender     string
	senderName string
	templateID int64
}

// NewMailjetMailer creates a mailer. A zero template id means messages are
// composed locally instead of through a stored template.
func NewMailjetMailer(publicKey, privateKey, sender, senderName string, templateID int64) *MailjetMailer {
	return &MailjetMailer{
		client:     mailjet.NewMailjetClient(publicKey, privateKey),
		sender:     sender,
		senderName: senderName,
		templateID: templateID,
	}
}

// Send delivers one message. The provider reports per-message status in
// the response body, so an HTTP success can still carry a rejected
// message; both paths surface as an error.
func (m *MailjetMailer) Send(ctx context.Context, msg *Email) error {
	info := mailjet.InfoMessagesV31{
		From: &mailjet.RecipientV31{
			Email: m.sender,
			Name:  m.senderName,
		},
		To: &mailjet.RecipientsV31{
			mailjet.RecipientV31{
				Email: msg.ToEmail,
				Name:  msg.ToName,
			},
		},
		Subject: msg.Subject,
	}

	if msg.ReplyToEmail != "" {
		info.ReplyTo = &mailjet.RecipientV31{
			Email: msg.ReplyToEmail,
			Name:  msg.ReplyToName,
		}
	}

	if m.templateID != 0 {
		info.TemplateID = m.templateID
		info.TemplateLanguage = true
		info.Variables = msg.Variables
	} else {
		info.TextPart = msg.TextBody
		info.HTMLPart = msg.HTMLBody
	}

	messages := mailjet.MessagesV31{Info: []mailjet.InfoMessagesV31{info}}

	res, err := m.client.SendMailV31(&messages)
	if err != nil {
		return fmt.Errorf("could not send mail: %w", err)
	}

	for _, result := range res.ResultsV31 {
		if strings.EqualFold(result.Status, "success") {
			continue
		}
		return fmt.Errorf("mail provider returned status %q", result.Status)
	}

	return nil
}
