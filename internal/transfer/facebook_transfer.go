package transfer

// FacebookPublishResponse covers /feed (id), /photos (id, post_id) and /videos (id).
type FacebookPublishResponse struct {
	ID     string `json:"id"`
	PostID string `json:"post_id"`
}
