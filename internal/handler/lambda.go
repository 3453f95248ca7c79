package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"go.uber.org/zap"
)

// LambdaHandler serves API Gateway proxy events.
type LambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewLambdaHandler adapts API Gateway events onto the pipeline. Failures are
// always returned as a response; the runtime never sees an error.
func NewLambdaHandler(pipeline NotifyPipeline, logger *zap.Logger) LambdaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		ctx = observability.WithCorrelationID(ctx, lambdaCorrelationID(req))

		var result domain.NotificationResult
		body, err := lambdaBody(req)
		if err != nil {
			result = domain.Failed(domain.CategoryValidation, "invalid format", nil)
		} else {
			result = pipeline.HandlePayload(ctx, body)
		}

		payload, err := json.Marshal(toResultResponse(result))
		if err != nil {
			observability.WithContextLogger(logger, ctx).Error("failed to encode lambda response", zap.Error(err))
			return events.APIGatewayProxyResponse{
				StatusCode: http.StatusInternalServerError,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       `{"success":false,"message":"internal error"}`,
			}, nil
		}

		return events.APIGatewayProxyResponse{
			StatusCode: result.HTTPStatus(),
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       string(payload),
		}, nil
	}
}

func lambdaBody(req events.APIGatewayProxyRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}

func lambdaCorrelationID(req events.APIGatewayProxyRequest) string {
	for name, value := range req.Headers {
		if strings.EqualFold(name, "X-Request-ID") && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return req.RequestContext.RequestID
}
