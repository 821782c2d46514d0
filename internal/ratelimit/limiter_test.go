package ratelimit

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

func newTestApp(l *Limiter, p Policy, handler fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "message": de.Message})
		},
	})
	app.Post("/limited", l.Middleware(p), handler)
	return app
}

func doRequest(t *testing.T, app *fiber.App, ip string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/limited", nil)
	if ip != "" {
		req.Header.Set(fiber.HeaderXForwardedFor, ip)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	return resp
}

func TestMiddlewareRejectsAfterBudget(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStore()
	store.SetClock(clock.Now)
	limiter := NewLimiter(store, nil, nil)
	limiter.SetClock(clock.Now)

	policy := Policy{Class: ClassStrict, Window: time.Minute, Max: 2, Message: "slow down"}
	app := newTestApp(limiter, policy, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		resp := doRequest(t, app, "9.9.9.9")
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("request %d: status %d", i, resp.StatusCode)
		}
		if resp.Header.Get(HeaderLimit) != "2" {
			t.Fatalf("missing limit header")
		}
		if got := resp.Header.Get(HeaderRemaining); got != strconv.Itoa(1-i) {
			t.Fatalf("request %d: remaining %q", i, got)
		}
		if _, err := time.Parse(time.RFC3339, resp.Header.Get(HeaderReset)); err != nil {
			t.Fatalf("reset header is not ISO-8601: %v", err)
		}
	}

	clock.Advance(20 * time.Second)
	resp := doRequest(t, app, "9.9.9.9")
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(HeaderRetryAfter); got != "40" {
		t.Fatalf("expected Retry-After 40, got %q", got)
	}

	if resp := doRequest(t, app, "8.8.8.8"); resp.StatusCode != fiber.StatusOK {
		t.Fatalf("other client should have its own budget, got %d", resp.StatusCode)
	}
}

func TestMiddlewareSkipSuccessfulCountsOnlyFailures(t *testing.T) {
	store := NewMemoryStore()
	limiter := NewLimiter(store, nil, nil)
	policy := Policy{Class: ClassLogin, Window: 15 * time.Minute, Max: 5, SkipSuccessfulRequests: true}

	fail := true
	app := newTestApp(limiter, policy, func(c *fiber.Ctx) error {
		if fail {
			return apperrors.NewUnauthorized(errors.New("bad password"))
		}
		return c.SendStatus(fiber.StatusOK)
	})

	fail = false
	for i := 0; i < 10; i++ {
		if resp := doRequest(t, app, "1.1.1.1"); resp.StatusCode != fiber.StatusOK {
			t.Fatalf("successful login %d was limited: %d", i, resp.StatusCode)
		}
	}

	fail = true
	for i := 0; i < 5; i++ {
		if resp := doRequest(t, app, "1.1.1.1"); resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("failed login %d: status %d", i, resp.StatusCode)
		}
	}
	resp := doRequest(t, app, "1.1.1.1")
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 after five failures, got %d", resp.StatusCode)
	}
	if resp.Header.Get(HeaderRetryAfter) == "" {
		t.Fatalf("missing Retry-After")
	}
}

func TestClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(ClientIP(c)) })

	cases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded first entry", map[string]string{fiber.HeaderXForwardedFor: " 203.0.113.7 , 10.0.0.1"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"unknown", nil, UnknownClient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			if got := string(body); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
