package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/geocoder89/devdeck/internal/domain/job"
)

func EncodePayload(t JobType, payload any) ([]byte, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	switch t {
	case JobMessageNotify:
		switch payload.(type) {
		case MessageNotificationPayload, *MessageNotificationPayload:
		default:
			return nil, ErrPayloadTypeMismatch
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload unmarshals j.Payload into the typed payload for its job type.
func DecodePayload(j job.Job) (any, error) {
	t := JobType(j.Type)
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	switch t {
	case JobMessageNotify:
		var p MessageNotificationPayload
		if err := json.Unmarshal(j.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
		}
		return p, nil

	default:
		return nil, ErrInvalidJobType
	}
}

// NewCreateRequest validates and encodes payload into a job create request.
func NewCreateRequest(t JobType, payload any, userID *int64) (job.CreateRequest, error) {
	if err := ValidatePayload(t, payload); err != nil {
		return job.CreateRequest{}, err
	}

	b, err := EncodePayload(t, payload)
	if err != nil {
		return job.CreateRequest{}, err
	}

	return job.CreateRequest{
		Type:    string(t),
		Payload: b,
		UserID:  userID,
	}, nil
}
