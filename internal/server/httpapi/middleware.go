package httpapi

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/sitecrew/internal/common"
	"github.com/dmitrijs2005/sitecrew/internal/logging"
	"github.com/dmitrijs2005/sitecrew/internal/server/auth"
)

const (
	RequestIDHeaderName = "X-Request-ID"

	ctxUserID    = "user_id"
	ctxRole      = "role"
	ctxRequestID = "request_id"
)

// RequestID reuses the caller's X-Request-ID or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeaderName)
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set(ctxRequestID, rid)
		c.Header(RequestIDHeaderName, rid)
		c.Next()
	}
}

// AccessLog writes one line per request. Server errors are logged at error
// level together with the cause recorded by the handler.
func AccessLog(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", c.GetString(ctxRequestID),
		}
		if uid := c.GetString(ctxUserID); uid != "" {
			args = append(args, "user_id", uid)
		}
		if key := c.GetHeader(common.IdempotencyKeyHeaderName); key != "" {
			args = append(args, "idempotency_key", key)
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			if len(c.Errors) > 0 {
				args = append(args, "error", c.Errors.Last().Err)
			}
			logger.Error(ctx, "request failed", args...)
		case status >= http.StatusBadRequest:
			logger.Warn(ctx, "request rejected", args...)
		default:
			logger.Info(ctx, "request served", args...)
		}
	}
}

// Auth validates the bearer token. When the caller also sends X-User-ID it
// must name the token's subject.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader(common.AuthorizationHeaderName), common.BearerPrefix)
		if !found || token == "" {
			abort(c, http.StatusUnauthorized, CodeUnauthorized, "token not found")
			return
		}

		claims, err := auth.ParseToken(token, secret)
		if err != nil {
			e := ToAppError(err)
			abort(c, e.HTTPStatus, e.Code, e.Message)
			return
		}

		if uid := c.GetHeader(common.UserIDHeaderName); uid != "" && uid != claims.UserID {
			abort(c, http.StatusUnauthorized, CodeUnauthorized, "user id does not match token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets through only callers whose token carries one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, c.GetString(ctxRole)) {
			abort(c, http.StatusForbidden, CodeForbidden, "you do not have permission to access this resource")
			return
		}
		c.Next()
	}
}

type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{ips: make(map[string]*rate.Limiter), r: r, b: b}
}

func (i *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[key]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[key] = limiter
	}
	return limiter
}

// RateLimitByIP allows r requests per second per client IP with burst b.
func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	limiter := NewIPRateLimiter(r, b)
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			abort(c, http.StatusTooManyRequests, CodeRateLimited, "too many requests from this IP")
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}
