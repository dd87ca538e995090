package smoke

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikhailRaia/menu-scraper/internal/auth"
	"github.com/MikhailRaia/menu-scraper/internal/handler"
	"github.com/MikhailRaia/menu-scraper/internal/middleware"
	"github.com/MikhailRaia/menu-scraper/internal/service"
	"github.com/MikhailRaia/menu-scraper/internal/storage/memory"
	"github.com/MikhailRaia/menu-scraper/internal/validation"
)

func newServer(t *testing.T, jwtService *auth.JWTService) *httptest.Server {
	t.Helper()

	currencies, err := validation.NewCurrencySet(nil)
	require.NoError(t, err)
	svc := service.NewMenuService(memory.NewStorage(), validation.New(currencies, 0), 100)

	var authMiddleware *middleware.AuthMiddleware
	if jwtService != nil {
		authMiddleware = middleware.NewAuthMiddleware(jwtService)
	}

	server := httptest.NewServer(handler.NewHandler(svc, authMiddleware).RegisterRoutes())
	t.Cleanup(server.Close)
	return server
}

func statuses(results []StepResult) []Status {
	out := make([]Status, 0, len(results))
	for _, r := range results {
		out = append(out, r.Status)
	}
	return out
}

func TestRunner_FreshStore(t *testing.T) {
	server := newServer(t, nil)
	var out bytes.Buffer

	results, err := NewRunner(NewClient(server.URL, "", 5*time.Second), &out, false).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Status{StatusPass, StatusPass, StatusPass, StatusPass, StatusPass}, statuses(results))
	assert.Contains(t, out.String(), "[PASS] 1. Health endpoint")
	assert.Contains(t, out.String(), "Saved 3 out of 3 items")
	assert.Contains(t, out.String(), "Found 2 items from Pizza Palace")
	assert.Contains(t, out.String(), "Smoke test complete")
}

func TestRunner_SecondRunWarns(t *testing.T) {
	server := newServer(t, nil)
	client := NewClient(server.URL+"/", "", 5*time.Second)

	_, err := NewRunner(client, &bytes.Buffer{}, false).Run(context.Background())
	require.NoError(t, err)

	results, err := NewRunner(client, &bytes.Buffer{}, false).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusWarn, results[3].Status)
	assert.Contains(t, results[3].Details[0], "Found 4 items")
}

func TestRunner_Auth(t *testing.T) {
	jwtService := auth.NewJWTService("smoke-secret", time.Hour)
	server := newServer(t, jwtService)

	results, err := NewRunner(NewClient(server.URL, "", 5*time.Second), &bytes.Buffer{}, false).Run(context.Background())
	assert.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.Contains(t, results[1].Details[0], "status 401")

	token, err := jwtService.GenerateToken("smoke")
	require.NoError(t, err)

	_, err = NewRunner(NewClient(server.URL, token, 5*time.Second), &bytes.Buffer{}, false).Run(context.Background())
	assert.NoError(t, err)
}

func TestRunner_BrokenServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	var out bytes.Buffer
	results, err := NewRunner(NewClient(server.URL, "", 5*time.Second), &out, false).Run(context.Background())
	assert.ErrorIs(t, err, ErrFailed)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.Equal(t, StatusFail, r.Status, r.Name)
	}
	assert.Contains(t, out.String(), "Smoke test FAILED")
}

func TestRunner_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	results, err := NewRunner(NewClient(url, "", time.Second), &bytes.Buffer{}, false).Run(context.Background())
	assert.ErrorIs(t, err, ErrFailed)
	assert.Equal(t, StatusFail, results[0].Status)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"short", "Fresh tomatoes", 50, "Fresh tomatoes"},
		{"exact", "abcde", 5, "abcde"},
		{"long", "Classic pepperoni with mozzarella", 7, "Classic..."},
		{"multibyte", "ramen 🍜 bowl", 7, "ramen 🍜..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.input, tt.width))
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "PASS", StatusPass.String())
	assert.Equal(t, "WARN", StatusWarn.String())
	assert.Equal(t, "FAIL", StatusFail.String())
	assert.True(t, strings.HasPrefix(Status(7).String(), "FAIL"))
}
