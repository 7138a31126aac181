package transfer

type XTweetRequest struct {
	Text string `json:"text"`
}

type XTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}
