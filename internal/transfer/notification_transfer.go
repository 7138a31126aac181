package transfer

type DeliveryNotification struct {
	UserID     int64  `json:"user_id"`
	PostID     int64  `json:"post_id"`
	Platform   string `json:"platform"`
	OK         bool   `json:"ok"`
	ExternalID string `json:"external_id,omitempty"`
	Error      string `json:"error,omitempty"`
}
