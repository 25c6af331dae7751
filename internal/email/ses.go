package email

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESSender sends email via AWS SES
type SESSender struct {
	client    *ses.Client
	fromEmail string
	fromName  string
}

// NewSESSender creates a sender using the default AWS credential chain
func NewSESSender(region, fromEmail, fromName string) (*SESSender, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESSender{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

// Send delivers msg as a text message, adding an HTML part when present
func (e *SESSender) Send(ctx context.Context, msg Message) error {
	from := e.fromEmail
	if e.fromName != "" {
		from = (&mail.Address{Name: e.fromName, Address: e.fromEmail}).String()
	}

	body := &types.Body{Text: utf8Content(msg.Text)}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	_, err := e.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(from),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message:     &types.Message{Subject: utf8Content(msg.Subject), Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.To, err)
	}
	return nil
}

// CheckQuota verifies the credentials by fetching the account's send quota
func (e *SESSender) CheckQuota(ctx context.Context) error {
	out, err := e.client.GetSendQuota(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return fmt.Errorf("failed to read SES send quota: %w", err)
	}
	if out.Max24HourSend > 0 && out.SentLast24Hours >= out.Max24HourSend {
		return fmt.Errorf("SES daily quota exhausted (%.0f/%.0f)", out.SentLast24Hours, out.Max24HourSend)
	}
	return nil
}
