package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "fiber error", err: fiber.NewError(fiber.StatusRequestEntityTooLarge, "body too large"), wantStatus: fiber.StatusRequestEntityTooLarge, wantMessage: "body too large"},
		{name: "unhandled error", err: errors.New("pq: connection refused"), wantStatus: fiber.StatusInternalServerError, wantMessage: "internal error"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
			app.Get("/boom", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			raw, _ := io.ReadAll(resp.Body)
			var body errorResponse
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("json unmarshal error = %v", err)
			}
			if body.Success {
				t.Fatal("success should be false")
			}
			if body.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestErrorHandlerUnknownRoute(t *testing.T) {
	t.Parallel()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
