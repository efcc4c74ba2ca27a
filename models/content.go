package models

// TweetRequest is the POST /tweets body.
type TweetRequest struct {
	Text string `json:"text"`
}

// Tweet is a post accepted by the provider.
type Tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// TweetResult is the POST /tweets response. Failures on the administrative
// path are reported here with Success=false and a 200 status.
type TweetResult struct {
	Success bool   `json:"success"`
	TweetID string `json:"tweet_id,omitempty"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NoteRequest is the POST /save body.
type NoteRequest struct {
	Content string `json:"content"`
}

// NoteResult describes a note written to the repository.
type NoteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Repo    string `json:"repo"`
	Path    string `json:"path"`
}
