package ingestion

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

const signaturePrefix = "sha256="

// SignatureConfig configures the webhook signature gate.
type SignatureConfig struct {
	Secret     string
	Header     string
	Production bool // without a secret, production rejects every delivery
}

// ComputeSignature returns the hex HMAC-SHA256 of body under secret.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature, with or without the sha256= prefix, to the expected HMAC in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix)
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected))
}

// SignatureGate authenticates webhook deliveries before any parsing happens.
// The body is read once and restored for the next handler.
func SignatureGate(cfg SignatureConfig) gin.HandlerFunc {
	header := cfg.Header
	if header == "" {
		header = "X-Signature"
	}

	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context()).With(
			zap.String("client_ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
		)

		if cfg.Secret == "" {
			if cfg.Production {
				log.Error("Rejecting webhook: no webhook secret configured in production")
				observer.IncSignatureRejection("not_configured")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook secret not configured"})
				return
			}
			log.Warn("Webhook secret not configured, accepting unsigned delivery")
			c.Next()
			return
		}

		signature := c.GetHeader(header)
		if signature == "" {
			log.Warn("Rejecting webhook: missing signature")
			observer.IncSignatureRejection("missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing signature"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			log.Warn("Rejecting webhook: unreadable body", zap.Error(err))
			observer.IncSignatureRejection("unreadable")
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !VerifySignature(cfg.Secret, body, signature) {
			log.Warn("Rejecting webhook: invalid signature")
			observer.IncSignatureRejection("invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.Next()
	}
}
