package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"tweet-fleet/models"
	"tweet-fleet/session"
	"tweet-fleet/twitter"

	"github.com/umakantv/go-utils/errs"
	"go.uber.org/zap"
)

// TweetPublisher posts on behalf of a session subject.
type TweetPublisher interface {
	Publish(ctx context.Context, subject session.Subject, text string) (*models.Tweet, error)
}

// TweetHandler serves POST /tweets.
type TweetHandler struct {
	publisher TweetPublisher
}

func NewTweetHandler(publisher TweetPublisher) *TweetHandler {
	return &TweetHandler{publisher: publisher}
}

// CreateTweet posts the request text. Operator sessions keep the legacy
// contract of always answering 200 with a success flag; OAuth users get
// real status codes.
func (h *TweetHandler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	subject, ok := SubjectFromContext(r.Context())
	if !ok {
		unauthorized(w, "Not authenticated")
		return
	}

	var req models.TweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logRequest(r, "error", "Invalid tweet body", zap.Error(err))
		badRequest(w, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "Text is required")
		return
	}

	tweet, err := h.publisher.Publish(r.Context(), subject, req.Text)
	if err != nil {
		logRequest(r, "error", "Failed to post tweet", zap.Error(err))
		if subject.IsAdministrative() {
			writeJSON(w, http.StatusOK, models.TweetResult{Success: false, Error: err.Error()})
			return
		}

		var postErr *twitter.PostError
		switch {
		case errors.Is(err, twitter.ErrAuthRequired), errors.Is(err, twitter.ErrTokenExpired):
			unauthorized(w, err.Error())
		case errors.As(err, &postErr):
			writeJSON(w, http.StatusBadGateway, models.TweetResult{Success: false, Error: postErr.Message})
		default:
			writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError("Could not post tweet: "+err.Error()))
		}
		return
	}

	logRequest(r, "info", "Tweet posted", zap.String("tweet_id", tweet.ID))
	writeJSON(w, http.StatusOK, models.TweetResult{Success: true, TweetID: tweet.ID, Text: tweet.Text})
}
