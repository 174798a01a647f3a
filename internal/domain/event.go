package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// ErrMalformedPayload is wrapped by DecodePayload when the data field is not
// base64-encoded UTF-8 JSON describing an object.
var ErrMalformedPayload = errors.New("malformed notification payload")

// NotificationEvent is a Pub/Sub message announcing a stored object. Only
// Data is interpreted; the rest is delivery metadata.
type NotificationEvent struct {
	// Data is the base64-encoded object payload. nil means the field was absent.
	Data        *string           `json:"data,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime *time.Time        `json:"publishTime,omitempty"`
}

// PushEnvelope is the body Pub/Sub POSTs to a push subscription endpoint.
type PushEnvelope struct {
	Message      NotificationEvent `json:"message"`
	Subscription string            `json:"subscription"`
}

// ObjectPayload is the subset of the GCS JSON_API_V1 object resource carried
// in a storage notification.
type ObjectPayload struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}

// Ref returns the object reference named by the payload.
func (p ObjectPayload) Ref() ObjectRef {
	return ObjectRef{Bucket: p.Bucket, Name: p.Name}
}

// DecodePayload decodes a notification data field: base64, then UTF-8
// text, then a JSON object.
func DecodePayload(data string) (*ObjectPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrMalformedPayload, err)
	}

	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformedPayload)
	}

	var payload *ObjectPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedPayload)
	}

	return payload, nil
}

// EncodePayload is the inverse of DecodePayload.
func EncodePayload(p ObjectPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
