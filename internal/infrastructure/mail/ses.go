package mail

import (
	"context"
	"errors"
	"fmt"

	"subtrack/internal/application/dto"
	"subtrack/internal/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES v2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails via AWS SES using the SDK v2.
type SESSender struct {
	client   sesAPI
	from     string
	fromName string
	log      logger.Logger
}

// SESConfig holds the settings of an SESSender. Without static keys the
// default AWS credential chain is used.
type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	From      string
	FromName  string
}

// NewSESSender loads the AWS configuration and creates an SES sender.
func NewSESSender(ctx context.Context, cfg SESConfig, log logger.Logger) (*SESSender, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.From == "" {
		return nil, errors.New("ses: sender address is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: failed to initialize AWS config: %w", err)
	}

	return newSESSender(sesv2.NewFromConfig(awsCfg), cfg.From, cfg.FromName, log), nil
}

func newSESSender(client sesAPI, from, fromName string, log logger.Logger) *SESSender {
	return &SESSender{client: client, from: from, fromName: fromName, log: log}
}

// Send delivers a single email through AWS SES.
func (s *SESSender) Send(ctx context.Context, msg dto.EmailMessage) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(formatAddress(s.fromName, s.from)),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	if msg.Text != "" {
		input.Content.Simple.Body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses: %w", err)
	}

	messageID := ""
	if result.MessageId != nil {
		messageID = *result.MessageId
	}
	s.log.Debug(fmt.Sprintf("[SES] Sent to %s (id: %s)", logger.RedactEmail(msg.To), messageID))
	return nil
}
