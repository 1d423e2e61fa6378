package notification

import (
	"athletix/training-app/internal/config"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// sesMailer implements the Mailer interface using Amazon SES.
type sesMailer struct {
	client *sesv2.Client
	sender string
}

// NewSESMailer creates a new SES-backed mailer instance.
func NewSESMailer(cfg config.EmailConfig, log *logrus.Logger) (Mailer, error) {
	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.Region),
	}
	// Static credentials from config; fall back to the default provider
	// chain (env, shared config, instance role) when unset.
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		log.WithError(err).Error("failed to load AWS SDK config for SES")
		return nil, err
	}

	client := sesv2.NewFromConfig(awsSDKConfig)
	log.WithFields(logrus.Fields{
		"region": cfg.Region,
		"sender": cfg.Sender,
	}).Info("SES mailer initialized")

	return &sesMailer{
		client: client,
		sender: cfg.Sender,
	}, nil
}

// Send delivers a plain-text email through SES.
func (m *sesMailer) Send(ctx context.Context, recipient, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body)},
				},
			},
		},
	}
	_, err := m.client.SendEmail(ctx, input)
	return err
}
