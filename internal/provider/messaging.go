package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

const (
	defaultSendTimeout = 10 * time.Second
	messagingSendPath  = "/messaging/smtp/send"
)

type messagingRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type messagingResponse struct {
	ID string `json:"$id"`
}

type messagingErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// MessagingConfig configures the hosted messaging endpoint.
type MessagingConfig struct {
	Endpoint  string
	ProjectID string
	APIKey    string
	Timeout   time.Duration
}

// MessagingNotifier sends email through the hosting platform's messaging endpoint.
type MessagingNotifier struct {
	client    *resty.Client
	endpoint  string
	projectID string
	apiKey    string
}

func NewMessagingNotifier(cfg MessagingConfig) (*MessagingNotifier, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	client.SetRetryCount(0)

	return NewMessagingNotifierWithClient(cfg, client)
}

func NewMessagingNotifierWithClient(cfg MessagingConfig, client *resty.Client) (*MessagingNotifier, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("%w: messaging endpoint is required", domain.ErrConfiguration)
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid messaging endpoint: %v", domain.ErrConfiguration, err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: messaging api key is required", domain.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("%w: messaging project id is required", domain.ErrConfiguration)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &MessagingNotifier{
		client:    client,
		endpoint:  endpoint,
		projectID: strings.TrimSpace(cfg.ProjectID),
		apiKey:    strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (p *MessagingNotifier) Name() string { return NameMessaging }

func (p *MessagingNotifier) Send(ctx context.Context, msg domain.Message) (*SendResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	var sent messagingResponse
	var failure messagingErrorBody
	response, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Appwrite-Project", p.projectID).
		SetHeader("X-Appwrite-Key", p.apiKey).
		SetBody(messagingRequest{
			From:    msg.From,
			To:      []string{msg.To},
			Subject: msg.Subject,
			HTML:    msg.HTML,
		}).
		SetResult(&sent).
		SetError(&failure).
		Post(p.endpoint + messagingSendPath)
	if err != nil {
		return nil, &ProviderError{
			Provider:  NameMessaging,
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &ProviderError{
			Provider:  NameMessaging,
			Message:   "provider returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResponse{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  sent.ID,
		}, nil
	}

	detail := strings.TrimSpace(failure.Message)
	if detail == "" {
		detail = responseBody
	}

	return nil, &ProviderError{
		Provider:   NameMessaging,
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, detail),
		Permission: isPermissionHTTPStatus(statusCode) || isScopeErrorType(failure.Type),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

// isScopeErrorType matches platform error types such as general_unauthorized_scope.
func isScopeErrorType(errorType string) bool {
	t := strings.ToLower(strings.TrimSpace(errorType))
	return strings.Contains(t, "scope") || strings.Contains(t, "unauthorized")
}
