package trigger

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/sanketnighot/hookified/pkg/types"
)

// Signature header conventions accepted on inbound webhooks.
const (
	HeaderWebhookSignature = "X-Webhook-Signature"
	HeaderHubSignature     = "X-Hub-Signature-256"
)

// VerifySignature checks the HMAC-SHA256 of body against the signature
// header using the hook's shared secret. The header value may be a bare hex
// digest or carry a "sha256=" prefix. Comparison is constant-time.
//
// An empty secret skips verification entirely. This fails open on purpose:
// hooks without a configured secret are a documented lower-security mode
// for convenience integrations.
func VerifySignature(secret string, body []byte, headers http.Header) error {
	if secret == "" {
		return nil
	}

	provided := headers.Get(HeaderWebhookSignature)
	if provided == "" {
		provided = headers.Get(HeaderHubSignature)
	}
	if provided == "" {
		return &types.ErrUnauthorized{Reason: "missing webhook signature"}
	}
	provided = strings.TrimPrefix(provided, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(provided))) {
		return &types.ErrUnauthorized{Reason: "invalid webhook signature"}
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of body with secret. Used by tests and
// by the CLI to produce valid webhook requests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
