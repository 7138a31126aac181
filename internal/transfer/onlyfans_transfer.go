package transfer

import (
	"bytes"
	"encoding/json"
)

type OnlyFansPostRequest struct {
	Text          string   `json:"text"`
	MediaURLs     []string `json:"mediaUrls,omitempty"`
	ScheduledDate string   `json:"scheduledDate,omitempty"`
}

type OnlyFansPostResponse struct {
	ID   FlexibleID `json:"id"`
	Data struct {
		ID FlexibleID `json:"id"`
	} `json:"data"`
}

// FlexibleID accepts an identifier encoded either as a JSON string or number.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}
