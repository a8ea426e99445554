package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/devconnector/internal/application/service"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/auth"
	"github.com/khoahotran/devconnector/pkg/logger"
)

const (
	GinContextKeyUserID    = "userID"
	GinContextKeyRequestID = "request_id"
	HeaderRequestID        = "X-Request-Id"
	DefaultTokenHeader     = "x-auth-token"
)

const (
	msgNoToken      = "No token, authorization denied"
	msgTokenInvalid = "Token is not valid"
	msgServerError  = "Server Error"
)

// AuthMiddleware verifies the token carried in header and puts the caller's
// user id into the gin context. A "Bearer " prefix is accepted. Tokens of
// revoked users are refused like any other invalid token.
func AuthMiddleware(jwtSvc *auth.JWTService, revocations service.RevocationStore, header string, log logger.Logger) gin.HandlerFunc {
	if header == "" {
		header = DefaultTokenHeader
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(header))
		token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msgNoToken})
			return
		}

		claims, err := jwtSvc.ValidateToken(token)
		if err != nil {
			if errors.Is(err, auth.ErrVerifierMisconfigured) {
				log.Error("Token verifier misconfigured", err, zap.String("request_id", c.GetString(GinContextKeyRequestID)))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": msgServerError})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msgTokenInvalid})
			return
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.UserID)
			if err != nil {
				log.Error("Revocation check failed", err, zap.String("request_id", c.GetString(GinContextKeyRequestID)))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": msgServerError})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": msgTokenInvalid})
				return
			}
		}

		c.Set(GinContextKeyUserID, claims.UserID)

		c.Next()
	}
}

func GetUserIDFromGinContext(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(GinContextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	return userUUID, true
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
// 5xx causes are logged and never sent to the client.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := apperror.ToHTTPStatus(err)
		body := gin.H{"msg": msgServerError}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			body = appErr.ToJSON()
		} else {
			status = http.StatusInternalServerError
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err,
				zap.String("request_id", GetRequestID(c.Request.Context())),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
			)
		}
		c.JSON(status, body)
	}
}

type requestIDKey struct{}

// RequestIDMiddleware reuses or generates an X-Request-Id, echoes it back and
// logs one line per request.
func RequestIDMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if rid == "" {
			rid = newRequestID()
		}

		c.Set(GinContextKeyRequestID, rid)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey{}, rid))
		c.Writer.Header().Set(HeaderRequestID, rid)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("request_id", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey{}).(string); ok {
		return rid
	}
	return ""
}

func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err == nil {
		return hex.EncodeToString(b)
	}
	return uuid.NewString()
}
