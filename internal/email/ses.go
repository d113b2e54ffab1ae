// Package email delivers transactional mail: verification codes today.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/uniconnect/backend/internal/logger"
	"go.uber.org/zap"
)

// Sender delivers verification codes to a mailbox
type Sender interface {
	SendVerificationCode(ctx context.Context, toEmail, name, code string) error
}

// SESAPI is the subset of the SES client used here
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    SESAPI
	fromEmail string
	fromName  string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewEmailServiceWithClient(ses.NewFromConfig(cfg), fromEmail, fromName), nil
}

// NewEmailServiceWithClient wraps an existing SES client
func NewEmailServiceWithClient(client SESAPI, fromEmail, fromName string) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendVerificationCode emails the 4-digit account verification code
func (e *EmailService) SendVerificationCode(ctx context.Context, toEmail, name, code string) error {
	subject := "Your Verification Code"
	htmlBody := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head><meta charset="UTF-8"></head>
		<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #333;">
			<p>Hi %s,</p>
			<p>Your verification code is: <b>%s</b></p>
			<p>The code expires in 10 minutes.</p>
			<hr>
			<p style="color: #999; font-size: 12px;">This is an automated message from UniConnect.</p>
		</body>
		</html>
	`, name, code)
	textBody := fmt.Sprintf("Your verification code is: %s\n\nThe code expires in 10 minutes.\n", code)

	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// LogSender writes codes to the log instead of sending mail. Used in
// development when no sender address is configured.
type LogSender struct{}

// SendVerificationCode logs the code
func (LogSender) SendVerificationCode(ctx context.Context, toEmail, name, code string) error {
	logger.Log.Info("Verification code (email delivery disabled)",
		zap.String("email", toEmail),
		zap.String("code", code),
	)
	return nil
}
