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
	DefaultSendGridBaseURL = "https://api.sendgrid.com"
	sendGridSendPath       = "/v3/mail/send"
)

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

type sendGridErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (b sendGridErrorBody) detail() string {
	messages := make([]string, 0, len(b.Errors))
	for _, e := range b.Errors {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if field := strings.TrimSpace(e.Field); field != "" {
			msg = field + ": " + msg
		}
		messages = append(messages, msg)
	}
	return strings.Join(messages, "; ")
}

// SendGridConfig configures the transactional email API.
type SendGridConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// SendGridNotifier sends email through the SendGrid v3 mail send API.
type SendGridNotifier struct {
	client   *resty.Client
	endpoint string
	apiKey   string
}

func NewSendGridNotifier(cfg SendGridConfig) (*SendGridNotifier, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	client.SetRetryCount(0)

	return NewSendGridNotifierWithClient(cfg, client)
}

func NewSendGridNotifierWithClient(cfg SendGridConfig, client *resty.Client) (*SendGridNotifier, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: sendgrid api key is required", domain.ErrConfiguration)
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultSendGridBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: invalid sendgrid base url: %v", domain.ErrConfiguration, err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &SendGridNotifier{
		client:   client,
		endpoint: baseURL + sendGridSendPath,
		apiKey:   strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (p *SendGridNotifier) Name() string { return NameSendGrid }

func (p *SendGridNotifier) Send(ctx context.Context, msg domain.Message) (*SendResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}

	reqBody := sendGridRequest{
		Personalizations: []sendGridPersonalization{{To: []sendGridAddress{{Email: msg.To}}}},
		From:             sendGridAddress{Email: msg.From},
		Subject:          msg.Subject,
		Content:          []sendGridContent{{Type: "text/html", Value: msg.HTML}},
	}

	var failure sendGridErrorBody
	response, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetError(&failure).
		Post(p.endpoint)
	if err != nil {
		return nil, &ProviderError{
			Provider:  NameSendGrid,
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &ProviderError{
			Provider:  NameSendGrid,
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
			MessageID:  strings.TrimSpace(response.Header().Get("X-Message-Id")),
		}, nil
	}

	detail := failure.detail()
	if detail == "" {
		detail = responseBody
	}

	return nil, &ProviderError{
		Provider:   NameSendGrid,
		StatusCode: statusCode,
		Message:    providerErrorMessage(statusCode, detail),
		Permission: isPermissionHTTPStatus(statusCode),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}
