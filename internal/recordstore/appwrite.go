package recordstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

const (
	DefaultEndpoint       = "https://cloud.appwrite.io/v1"
	defaultRequestTimeout = 10 * time.Second
)

// AppwriteConfig addresses one collection of the hosted document database.
type AppwriteConfig struct {
	Endpoint     string
	ProjectID    string
	APIKey       string
	DatabaseID   string
	CollectionID string
	Timeout      time.Duration
}

type sessionDocument struct {
	ID          string   `json:"$id"`
	PhotoURLs   []string `json:"photoUrls"`
	Status      string   `json:"status"`
	UserEmail   string   `json:"userEmail"`
	DeliveredAt string   `json:"deliveredAt"`
}

type updateDocumentRequest struct {
	Data sessionPatchData `json:"data"`
}

type sessionPatchData struct {
	Status      string `json:"status"`
	UserEmail   string `json:"userEmail,omitempty"`
	DeliveredAt string `json:"deliveredAt,omitempty"`
}

type appwriteErrorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

var _ Store = (*AppwriteStore)(nil)

// AppwriteStore implements Store over the database documents REST API.
type AppwriteStore struct {
	client       *resty.Client
	endpoint     string
	databaseID   string
	collectionID string
}

func NewAppwriteStore(cfg AppwriteConfig) (*AppwriteStore, error) {
	client := resty.New()
	client.SetTimeout(defaultRequestTimeout)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return NewAppwriteStoreWithClient(cfg, client)
}

func NewAppwriteStoreWithClient(cfg AppwriteConfig, client *resty.Client) (*AppwriteStore, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("%w: invalid record store endpoint: %v", domain.ErrConfiguration, err)
	}
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("%w: record store project id is required", domain.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: record store api key is required", domain.ErrConfiguration)
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" || strings.TrimSpace(cfg.CollectionID) == "" {
		return nil, fmt.Errorf("%w: record store database and collection ids are required", domain.ErrConfiguration)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRequestTimeout)
	}
	client.SetRetryCount(0)
	client.SetHeader("X-Appwrite-Project", strings.TrimSpace(cfg.ProjectID))
	client.SetHeader("X-Appwrite-Key", strings.TrimSpace(cfg.APIKey))
	client.SetHeader("Content-Type", "application/json")

	return &AppwriteStore{
		client:       client,
		endpoint:     endpoint,
		databaseID:   strings.TrimSpace(cfg.DatabaseID),
		collectionID: strings.TrimSpace(cfg.CollectionID),
	}, nil
}

func (s *AppwriteStore) Get(ctx context.Context, sessionID string) (*domain.PhotoSession, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("record store is not initialized")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}

	var doc sessionDocument
	var failure appwriteErrorBody
	response, err := s.client.R().
		SetContext(ctx).
		SetResult(&doc).
		SetError(&failure).
		Get(s.documentURL(sessionID))
	if err != nil {
		return nil, &StoreError{Operation: "get", Cause: err}
	}
	if err := classifyResponse("get", sessionID, response, failure); err != nil {
		return nil, err
	}

	return documentToSession(sessionID, doc), nil
}

func (s *AppwriteStore) Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.PhotoSession, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("record store is not initialized")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrValidation)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	data := sessionPatchData{
		Status:    patch.Status.String(),
		UserEmail: patch.UserEmail,
	}
	if !patch.DeliveredAt.IsZero() {
		data.DeliveredAt = patch.DeliveredAt.UTC().Format(time.RFC3339Nano)
	}

	var doc sessionDocument
	var failure appwriteErrorBody
	response, err := s.client.R().
		SetContext(ctx).
		SetBody(updateDocumentRequest{Data: data}).
		SetResult(&doc).
		SetError(&failure).
		Patch(s.documentURL(sessionID))
	if err != nil {
		return nil, &StoreError{Operation: "update", Cause: err}
	}
	if err := classifyResponse("update", sessionID, response, failure); err != nil {
		return nil, err
	}

	return documentToSession(sessionID, doc), nil
}

func (s *AppwriteStore) documentURL(sessionID string) string {
	return fmt.Sprintf("%s/databases/%s/collections/%s/documents/%s",
		s.endpoint,
		url.PathEscape(s.databaseID),
		url.PathEscape(s.collectionID),
		url.PathEscape(sessionID),
	)
}

func classifyResponse(operation string, sessionID string, response *resty.Response, failure appwriteErrorBody) error {
	if response == nil {
		return &StoreError{Operation: operation, Message: "empty response"}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	message := strings.TrimSpace(failure.Message)
	if message == "" {
		message = strings.TrimSpace(response.String())
	}
	storeErr := &StoreError{
		Operation:  operation,
		StatusCode: statusCode,
		Type:       failure.Type,
		Message:    message,
	}

	switch {
	case statusCode == http.StatusNotFound:
		return fmt.Errorf("%w: photo session %q does not exist", domain.ErrNotFound, sessionID)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, storeErr)
	default:
		return storeErr
	}
}

func documentToSession(sessionID string, doc sessionDocument) *domain.PhotoSession {
	session := &domain.PhotoSession{
		ID:        doc.ID,
		PhotoURLs: doc.PhotoURLs,
		UserEmail: doc.UserEmail,
		Status:    domain.SessionStatusPending,
	}
	if session.ID == "" {
		session.ID = sessionID
	}
	if status, err := domain.ParseSessionStatusFromString(doc.Status); err == nil {
		session.Status = status
	}
	if doc.DeliveredAt != "" {
		if at, err := time.Parse(time.RFC3339Nano, doc.DeliveredAt); err == nil {
			session.DeliveredAt = &at
		}
	}
	return session
}
