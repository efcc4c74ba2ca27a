package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tweet-fleet/config"
	"tweet-fleet/models"

	"github.com/dghubble/oauth1"
	"golang.org/x/oauth2"
)

// Credentials is the long-lived OAuth 1.0a credential set of the operator
// account.
type Credentials struct {
	APIKey            string
	APISecret         string
	AccessToken       string
	AccessTokenSecret string
}

// CredentialsFrom maps the application configuration onto Credentials.
func CredentialsFrom(cfg config.TwitterConfig) Credentials {
	return Credentials{
		APIKey:            cfg.APIKey,
		APISecret:         cfg.APISecret,
		AccessToken:       cfg.AccessToken,
		AccessTokenSecret: cfg.AccessTokenSecret,
	}
}

func (c Credentials) complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.AccessToken != "" && c.AccessTokenSecret != ""
}

// PostError is a rejection of a post by X.
type PostError struct {
	Status  int
	Message string
}

func (e *PostError) Error() string {
	return fmt.Sprintf("post rejected (%d): %s", e.Status, e.Message)
}

// Client posts to the X v2 API.
type Client struct {
	apiURL     string
	static     Credentials
	httpClient *http.Client
}

// NewClient creates a Client. A nil httpClient uses http.DefaultClient.
func NewClient(apiURL string, static Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		apiURL:     strings.TrimRight(apiURL, "/"),
		static:     static,
		httpClient: httpClient,
	}
}

// CheckAuth reports whether the static credential set can build a client.
func (c *Client) CheckAuth() error {
	if !c.static.complete() {
		return fmt.Errorf("%w: TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_TOKEN_SECRET are required", config.ErrMissingConfig)
	}
	return nil
}

// PostOnBehalf publishes text. A non-empty accessToken posts as that user
// with a bearer token; otherwise the static credential set is used.
func (c *Client) PostOnBehalf(ctx context.Context, text, accessToken string) (*models.Tweet, error) {
	httpClient, err := c.clientFor(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("encoding tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting tweet: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PostError{Status: resp.StatusCode, Message: errorMessage(body)}
	}

	var created struct {
		Data models.Tweet `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if created.Data.Text == "" {
		created.Data.Text = text
	}
	return &created.Data, nil
}

func (c *Client) clientFor(ctx context.Context, accessToken string) (*http.Client, error) {
	if accessToken != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		})), nil
	}

	if err := c.CheckAuth(); err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, oauth1.HTTPClient, c.httpClient)
	cfg := oauth1.NewConfig(c.static.APIKey, c.static.APISecret)
	return cfg.Client(ctx, oauth1.NewToken(c.static.AccessToken, c.static.AccessTokenSecret)), nil
}

// errorMessage pulls a readable message out of an X v2 error body.
func errorMessage(body []byte) string {
	var parsed struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Detail != "":
			return parsed.Detail
		case len(parsed.Errors) > 0 && parsed.Errors[0].Message != "":
			return parsed.Errors[0].Message
		case parsed.Title != "":
			return parsed.Title
		}
	}
	return strings.TrimSpace(string(body))
}
