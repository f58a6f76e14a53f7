package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// SignatureHeader carries base64(HMAC-SHA256(secret, raw body))
const SignatureHeader = "X-Webhook-Signature"

// ValidateWebhookSignature validates that the webhook request comes from the
// PMS. An empty secret disables the check.
func ValidateWebhookSignature(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Next()
		}

		signature := c.Get(SignatureHeader)
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing webhook signature",
			})
		}

		expected := calculateSignature(secret, c.Body())
		if !hmac.Equal([]byte(signature), []byte(expected)) {
			logrus.WithField("ip", c.IP()).Warn("Rejected webhook with invalid signature")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// calculateSignature calculates the expected signature
func calculateSignature(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
