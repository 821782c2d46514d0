package ratelimit

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/observability"
	apperrors "github.com/spec-kit/storefront/pkg/util/errorutil"
)

// Response headers written on every limited request.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// UnknownClient is the shared bucket used when no client address is available.
const UnknownClient = "unknown"

// Route classes.
const (
	ClassLogin    = "login"
	ClassAPI      = "api"
	ClassStrict   = "strict"
	ClassTracking = "tracking"
)

// Policy is the budget for one route class.
type Policy struct {
	Class   string
	Window  time.Duration
	Max     int
	Message string
	// SkipSuccessfulRequests refunds the slot after a 2xx so only failures count.
	SkipSuccessfulRequests bool
}

// PolicyFromConfig names a configured budget.
func PolicyFromConfig(class string, p config.RateLimitPolicy) Policy {
	return Policy{
		Class:                  class,
		Window:                 p.Window,
		Max:                    p.Max,
		Message:                p.Message,
		SkipSuccessfulRequests: p.SkipSuccessfulRequests,
	}
}

// Limiter builds fiber middleware over a Store.
type Limiter struct {
	store   Store
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewLimiter constructs a limiter. logger and metrics may be nil.
func NewLimiter(store Store, logger *zap.Logger, metrics *observability.Metrics) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{store: store, logger: logger, metrics: metrics, now: time.Now}
}

// SetClock overrides the time source used for Retry-After.
func (l *Limiter) SetClock(now func() time.Time) {
	l.now = now
}

// Middleware charges each request to the policy's window before the handler
// runs. Charges are not rolled back when the handler fails.
func (l *Limiter) Middleware(p Policy) fiber.Handler {
	if p.Max <= 0 || p.Window <= 0 {
		panic("ratelimit: policy " + p.Class + " needs a positive window and max")
	}
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := p.Class + ":" + ClientIP(c)

		decision, err := l.store.Take(ctx, key, p.Max, p.Window)
		if err != nil {
			l.logger.Error("rate limit store failure", zap.String("class", p.Class), zap.Error(err))
			return apperrors.MapError(err)
		}
		setHeaders(c, decision)

		if !decision.Allowed {
			retryAfter := retryAfterSeconds(decision.ResetAt.Sub(l.now()))
			c.Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
			l.metrics.RecordRateLimited(p.Class)
			l.logger.Info("rate limited",
				zap.String("class", p.Class),
				zap.String("key", key),
				zap.Int("retry_after", retryAfter))
			return apperrors.NewRateLimited(p.Message, retryAfter)
		}

		err = c.Next()

		if p.SkipSuccessfulRequests && err == nil && isSuccess(c.Response().StatusCode()) {
			if refundErr := l.store.Refund(ctx, key, decision.ResetAt); refundErr != nil {
				l.logger.Warn("rate limit refund failed", zap.String("class", p.Class), zap.Error(refundErr))
			} else {
				c.Set(HeaderRemaining, strconv.Itoa(decision.Remaining+1))
			}
		}
		return err
	}
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then UnknownClient.
func ClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get(fiber.HeaderXForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
		return real
	}
	return UnknownClient
}

func setHeaders(c *fiber.Ctx, d Decision) {
	c.Set(HeaderLimit, strconv.Itoa(d.Limit))
	c.Set(HeaderRemaining, strconv.Itoa(d.Remaining))
	c.Set(HeaderReset, d.ResetAt.UTC().Format(time.RFC3339))
}

func retryAfterSeconds(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Seconds()))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
