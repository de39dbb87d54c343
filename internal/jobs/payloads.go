package jobs

// MessageNotificationPayload is ID-based; the worker loads the rest from the DB.
type MessageNotificationPayload struct {
	MessageID  int64  `json:"messageId"`
	SenderID   int64  `json:"senderId"`
	ReceiverID int64  `json:"receiverId"`
	RequestID  string `json:"requestId,omitempty"`
}
