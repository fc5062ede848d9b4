package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// SendAPI is the subset of *sesv2.Client used here.
type SendAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SES sends plain text notifications through Amazon SES.
type SES struct {
	api    SendAPI
	source string
}

var _ ports.MessageTransport = (*SES)(nil)

// NewSES registers the verified sender address.
func NewSES(api SendAPI, source string) *SES {
	return &SES{api: api, source: source}
}

// Send delivers msg to its recipients in a single SendEmail call.
func (s *SES) Send(ctx context.Context, msg domain.NotificationMessage) error {
	if s.source == "" || len(msg.Recipients) == 0 {
		return fmt.Errorf("%w: ses transport misconfigured", domain.ErrDispatch)
	}

	_, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.source),
		Destination:      &types.Destination{ToAddresses: msg.Recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.BodyText), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: ses send: %w", domain.ErrDispatch, err)
	}
	return nil
}
