package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBody() []byte {
	return []byte(`{"repository":{"id":42,"name":"demo","full_name":"acme/demo"}}`)
}

func webhookHeaders(event, delivery string) http.Header {
	h := http.Header{}
	if event != "" {
		h.Set(HeaderEvent, event)
	}
	if delivery != "" {
		h.Set(HeaderDelivery, delivery)
	}
	return h
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestGuardVerify(t *testing.T) {
	tests := []struct {
		name       string
		headers    http.Header
		body       []byte
		wantReason string
	}{
		{
			name:       "missing event header",
			headers:    webhookHeaders("", "delivery-1"),
			body:       validBody(),
			wantReason: ReasonMissingHeaders,
		},
		{
			name:       "missing delivery header",
			headers:    webhookHeaders("push", ""),
			body:       validBody(),
			wantReason: ReasonMissingHeaders,
		},
		{
			name:       "invalid json payload",
			headers:    webhookHeaders("push", "delivery-1"),
			body:       []byte("not json"),
			wantReason: ReasonInvalidPayload,
		},
		{
			name:       "payload without repository",
			headers:    webhookHeaders("push", "delivery-1"),
			body:       []byte(`{"action":"opened"}`),
			wantReason: ReasonMissingRepository,
		},
		{
			name:       "repository with zero id",
			headers:    webhookHeaders("push", "delivery-1"),
			body:       []byte(`{"repository":{"id":0,"name":"demo"}}`),
			wantReason: ReasonMissingRepository,
		},
	}

	guard := NewGuard("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery, err := guard.Verify(tt.headers, tt.body)
			require.Error(t, err)
			assert.Nil(t, delivery)

			rejection, ok := IsRejection(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantReason, rejection.Reason)
		})
	}
}

func TestGuardVerifyAcceptsValidDelivery(t *testing.T) {
	guard := NewGuard("")
	delivery, err := guard.Verify(webhookHeaders("push", "delivery-1"), validBody())

	require.NoError(t, err)
	assert.Equal(t, "push", delivery.EventType)
	assert.Equal(t, "delivery-1", delivery.DeliveryID)
	assert.Equal(t, int64(42), delivery.Repository.ID)
	assert.Equal(t, "acme/demo", delivery.Repository.FullName)
	assert.Equal(t, validBody(), delivery.Body)
}

func TestGuardVerifySignature(t *testing.T) {
	const secret = "topsecret"
	guard := NewGuard(secret)
	body := validBody()

	t.Run("valid signature", func(t *testing.T) {
		headers := webhookHeaders("push", "delivery-1")
		headers.Set(HeaderSignature, sign(secret, body))

		_, err := guard.Verify(headers, body)
		assert.NoError(t, err)
	})

	t.Run("wrong signature", func(t *testing.T) {
		headers := webhookHeaders("push", "delivery-1")
		headers.Set(HeaderSignature, sign("other-secret", body))

		_, err := guard.Verify(headers, body)
		var rejection *RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, ReasonInvalidSignature, rejection.Reason)
	})

	t.Run("absent signature", func(t *testing.T) {
		_, err := guard.Verify(webhookHeaders("push", "delivery-1"), body)
		var rejection *RejectionError
		require.ErrorAs(t, err, &rejection)
		assert.Equal(t, ReasonInvalidSignature, rejection.Reason)
	})

	t.Run("tampered body", func(t *testing.T) {
		headers := webhookHeaders("push", "delivery-1")
		headers.Set(HeaderSignature, sign(secret, body))

		tampered := append([]byte{}, body...)
		tampered[len(tampered)-2] = 'x'
		_, err := guard.Verify(headers, tampered)
		_, ok := IsRejection(err)
		assert.True(t, ok)
	})
}

func TestGuardWithoutSecretIgnoresSignature(t *testing.T) {
	guard := NewGuard("")
	headers := webhookHeaders("push", "delivery-1")
	headers.Set(HeaderSignature, "sha256=garbage")

	_, err := guard.Verify(headers, validBody())
	assert.NoError(t, err)
}
