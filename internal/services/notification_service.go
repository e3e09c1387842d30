package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/marketsquad/authgate/internal/models"
)

// SESNotificationService sends account security notices using AWS SES
type SESNotificationService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewSESNotificationService creates a new AWS SES notification service
func NewSESNotificationService(region, fromAddress string, logger *slog.Logger) (*SESNotificationService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESNotificationService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

// NotifyAccountLocked emails the account holder that repeated failed
// attempts have temporarily locked the account. Best effort: errors are
// logged and swallowed so the caller's response is never delayed.
func (s *SESNotificationService) NotifyAccountLocked(ctx context.Context, account *models.Account, duration time.Duration) {
	if account.Email == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	minutes := int(duration.Minutes())
	textBody := fmt.Sprintf(`Hi %s,

We noticed several unsuccessful sign-in attempts on your account, so sign-in has been paused for %d minutes.

If this was you, please wait and try again with the correct password. If you don't recognize this activity, we recommend resetting your password once the pause ends.

This is an automated message. Please do not reply to this email.
`, account.FirstName, minutes)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{account.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Sign-in temporarily paused on your account"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send lockout notice via SES",
			slog.String("account_id", account.ID),
			slog.Any("error", err))
		return
	}

	s.logger.Info("lockout notice sent",
		slog.String("account_id", account.ID),
		slog.String("message_id", *result.MessageId))
}

// NoopNotificationService is used when no email backend is configured
type NoopNotificationService struct {
	logger *slog.Logger
}

// NewNoopNotificationService creates a notification service that only logs
func NewNoopNotificationService(logger *slog.Logger) *NoopNotificationService {
	return &NoopNotificationService{logger: logger}
}

// NotifyAccountLocked logs the lockout instead of sending mail
func (s *NoopNotificationService) NotifyAccountLocked(_ context.Context, account *models.Account, duration time.Duration) {
	s.logger.Info("account lockout notice suppressed, email backend not configured",
		slog.String("account_id", account.ID),
		slog.Duration("duration", duration))
}

var (
	_ NotificationSender = (*SESNotificationService)(nil)
	_ NotificationSender = (*NoopNotificationService)(nil)
)
