package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

const sesCharset = "UTF-8"

// SESAPI is the subset of the SES v2 client used for sending.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends email through Amazon SES v2.
type SESNotifier struct {
	client SESAPI
}

func NewSESNotifier(client SESAPI) (*SESNotifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: ses client is required", domain.ErrConfiguration)
	}
	return &SESNotifier{client: client}, nil
}

func (p *SESNotifier) Name() string { return NameSES }

func (p *SESNotifier) Send(ctx context.Context, msg domain.Message) (*SendResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	out, err := p.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String(sesCharset)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String(sesCharset)},
				},
			},
		},
	})
	if err != nil {
		return nil, sesProviderError(err)
	}

	resp := &SendResponse{StatusCode: 200}
	if out != nil && out.MessageId != nil {
		resp.MessageID = *out.MessageId
	}
	return resp, nil
}

func sesProviderError(err error) *ProviderError {
	providerErr := &ProviderError{
		Provider:  NameSES,
		Message:   "provider request failed",
		Transient: !errors.Is(err, context.Canceled),
		Cause:     err,
	}

	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return providerErr
	}

	code := apiErr.ErrorCode()
	providerErr.Message = strings.TrimSpace(code + " " + apiErr.ErrorMessage())
	providerErr.Permission = isSESPermissionCode(code)
	providerErr.Transient = apiErr.ErrorFault() == smithy.FaultServer || code == "TooManyRequestsException"
	return providerErr
}

func isSESPermissionCode(code string) bool {
	switch code {
	case "AccessDeniedException", "AccessDenied", "NotAuthorizedException",
		"UnrecognizedClientException", "InvalidClientTokenId", "MailFromDomainNotVerifiedException":
		return true
	}
	return false
}
