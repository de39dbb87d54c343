package jobs

// ValidatePayload performs minimal validation on decoded payloads.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	switch t {
	case JobMessageNotify:
		var p MessageNotificationPayload
		switch v := payload.(type) {
		case MessageNotificationPayload:
			p = v
		case *MessageNotificationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if p.MessageID <= 0 || p.SenderID <= 0 || p.ReceiverID <= 0 {
			return ErrInvalidJobPayload
		}
		if p.SenderID == p.ReceiverID {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
