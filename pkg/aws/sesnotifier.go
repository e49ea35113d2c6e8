package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/ng-cloudflare/plexrequest/pkg/notify"
)

// SESSendEmailAPI is the part of the SES client the notifier uses.
type SESSendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier delivers notifications with Amazon SES.
type SESNotifier struct {
	fromEmail string
	sesClient SESSendEmailAPI
}

var _ notify.Notifier = (*SESNotifier)(nil)

// NewSESNotifier returns a notifier that sends email from fromEmail.
func NewSESNotifier(cfg aws.Config, fromEmail string, opts ...func(*sesv2.Options)) *SESNotifier {
	return NewSESNotifierWithClient(sesv2.NewFromConfig(cfg, opts...), fromEmail)
}

func NewSESNotifierWithClient(client SESSendEmailAPI, fromEmail string) *SESNotifier {
	return &SESNotifier{fromEmail: fromEmail, sesClient: client}
}

// Notify implements notify.Notifier.
func (s *SESNotifier) Notify(ctx context.Context, n notify.Notification) error {
	_, err := s.sesClient.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{n.ToEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(n.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(n.HTML),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
