package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/devplatform/github-automation/internal/models"
)

// GitHub webhook request headers.
const (
	HeaderEvent     = "X-GitHub-Event"
	HeaderDelivery  = "X-GitHub-Delivery"
	HeaderSignature = "X-Hub-Signature-256"
)

// Delivery is a webhook POST that passed guard validation.
type Delivery struct {
	EventType  string
	DeliveryID string
	Body       []byte
	Repository models.RepositoryPayload
}

// Guard validates incoming webhook requests before any processing or store
// mutation. With a secret configured it also verifies the HMAC-SHA256 payload
// signature.
type Guard struct {
	secret string
}

func NewGuard(secret string) *Guard {
	return &Guard{secret: secret}
}

// Verify checks headers, signature and payload shape. It returns a
// RejectionError for anything malformed; rejections are cheap and leave no
// trace in the store.
func (g *Guard) Verify(headers http.Header, body []byte) (*Delivery, error) {
	eventType := headers.Get(HeaderEvent)
	deliveryID := headers.Get(HeaderDelivery)
	if eventType == "" || deliveryID == "" {
		return nil, NewRejectionError(ReasonMissingHeaders, "missing required GitHub headers")
	}

	if g.secret != "" {
		if !g.verifySignature(body, headers.Get(HeaderSignature)) {
			return nil, NewRejectionError(ReasonInvalidSignature, "payload signature verification failed")
		}
	}

	var payload struct {
		Repository *models.RepositoryPayload `json:"repository"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, NewRejectionError(ReasonInvalidPayload, "invalid JSON payload")
	}
	if payload.Repository == nil || payload.Repository.ID == 0 {
		return nil, NewRejectionError(ReasonMissingRepository, "no repository data in payload")
	}

	return &Delivery{
		EventType:  eventType,
		DeliveryID: deliveryID,
		Body:       body,
		Repository: *payload.Repository,
	}, nil
}

// verifySignature validates the sha256= signature header against the raw
// body. The comparison is constant time.
func (g *Guard) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
