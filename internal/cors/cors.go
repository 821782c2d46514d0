package cors

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront/internal/config"
)

// Wildcard allows every origin.
const Wildcard = "*"

// DefaultMaxAge is how long browsers may cache a preflight answer.
const DefaultMaxAge = 24 * time.Hour

// Options configures the gate. An origin is allowed when it is listed in
// AllowOrigins or accepted by AllowOriginFunc.
type Options struct {
	AllowOrigins     []string
	AllowOriginFunc  func(origin string) bool
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// FromConfig maps env configuration onto Options.
func FromConfig(cfg config.CORSConfig) Options {
	return Options{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           time.Duration(cfg.MaxAgeSeconds) * time.Second,
	}
}

type gate struct {
	wildcard    bool
	origins     map[string]struct{}
	originFunc  func(string) bool
	methods     string
	headers     string
	credentials bool
	maxAge      string
}

// New answers preflight requests with 204 and decorates every other response
// with the allow-origin and credentials headers. With a wildcard origin the
// credentials header is still sent when AllowCredentials is set, which
// browsers treat as a looser policy than a fixed list.
func New(opts Options) fiber.Handler {
	g := &gate{
		origins:     make(map[string]struct{}, len(opts.AllowOrigins)),
		originFunc:  opts.AllowOriginFunc,
		methods:     strings.Join(opts.AllowMethods, ", "),
		headers:     strings.Join(opts.AllowHeaders, ", "),
		credentials: opts.AllowCredentials,
	}
	for _, origin := range opts.AllowOrigins {
		origin = strings.TrimSpace(origin)
		if origin == Wildcard {
			g.wildcard = true
			continue
		}
		if origin != "" {
			g.origins[strings.ToLower(origin)] = struct{}{}
		}
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	g.maxAge = strconv.Itoa(int(maxAge / time.Second))

	return g.handle
}

func (g *gate) handle(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodOptions {
		g.setOriginHeaders(c)
		if g.methods != "" {
			c.Set(fiber.HeaderAccessControlAllowMethods, g.methods)
		}
		if g.headers != "" {
			c.Set(fiber.HeaderAccessControlAllowHeaders, g.headers)
		} else if requested := c.Get(fiber.HeaderAccessControlRequestHeaders); requested != "" {
			c.Set(fiber.HeaderAccessControlAllowHeaders, requested)
		}
		c.Set(fiber.HeaderAccessControlMaxAge, g.maxAge)
		return c.SendStatus(fiber.StatusNoContent)
	}

	err := c.Next()
	g.setOriginHeaders(c)
	return err
}

func (g *gate) setOriginHeaders(c *fiber.Ctx) {
	if allowed := g.allowOrigin(c.Get(fiber.HeaderOrigin)); allowed != "" {
		c.Set(fiber.HeaderAccessControlAllowOrigin, allowed)
		if allowed != Wildcard {
			c.Vary(fiber.HeaderOrigin)
		}
		if g.credentials {
			c.Set(fiber.HeaderAccessControlAllowCredentials, "true")
		}
	}
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when the origin is not allowed.
func (g *gate) allowOrigin(origin string) string {
	if g.wildcard {
		return Wildcard
	}
	if origin == "" {
		return ""
	}
	if _, ok := g.origins[strings.ToLower(origin)]; ok {
		return origin
	}
	if g.originFunc != nil && g.originFunc(origin) {
		return origin
	}
	return ""
}
