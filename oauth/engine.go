package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tweet-fleet/cache"
	"tweet-fleet/config"
	"tweet-fleet/models"

	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Scopes requested from X: read, write and identity.
var Scopes = []string{"tweet.read", "tweet.write", "users.read"}

// Config describes the X OAuth 2.0 client.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	APIURL       string
}

// ConfigFrom maps the application configuration onto the engine's.
func ConfigFrom(cfg config.TwitterConfig) Config {
	return Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthorizeURL: cfg.AuthorizeURL,
		TokenURL:     cfg.TokenURL,
		APIURL:       strings.TrimRight(cfg.APIURL, "/"),
	}
}

// CredentialStore is the persistence the engine needs.
type CredentialStore interface {
	FindOrCreateUser(ctx context.Context, username string) (models.User, error)
	ReplaceToken(ctx context.Context, tok models.OAuthToken) (models.OAuthToken, error)
	GetToken(ctx context.Context, userID int64, provider string) (*models.OAuthToken, error)
}

// Result is the outcome of a completed authorization.
type Result struct {
	User  models.User
	Token models.TokenInfo
}

// Engine runs the authorization-code + PKCE flow against X.
type Engine struct {
	cfg        Config
	challenges cache.ChallengeStore
	store      CredentialStore
	httpClient *http.Client
}

// NewEngine creates an Engine. A nil httpClient uses http.DefaultClient.
func NewEngine(cfg Config, challenges cache.ChallengeStore, store CredentialStore, httpClient *http.Client) *Engine {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Engine{
		cfg:        cfg,
		challenges: challenges,
		store:      store,
		httpClient: httpClient,
	}
}

func (e *Engine) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     e.cfg.ClientID,
		ClientSecret: e.cfg.ClientSecret,
		RedirectURL:  e.cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   e.cfg.AuthorizeURL,
			TokenURL:  e.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (e *Engine) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
}

// BeginAuthorization records a new attempt and returns the URL the user must
// visit to grant access.
func (e *Engine) BeginAuthorization(ctx context.Context) (*models.AuthorizationStart, error) {
	if e.cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: TWITTER_CLIENT_ID is required", config.ErrMissingConfig)
	}

	verifier, err := newCodeVerifier()
	if err != nil {
		return nil, err
	}
	state, err := newState()
	if err != nil {
		return nil, err
	}

	if err := e.challenges.Put(ctx, state, verifier); err != nil {
		return nil, fmt.Errorf("recording authorization attempt: %w", err)
	}

	authURL := e.oauth2Config().AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", verifier),
		oauth2.SetAuthURLParam("code_challenge_method", "plain"),
	)

	logger.Info("OAuth authorization started", zap.String("redirect_uri", e.cfg.RedirectURI))
	return &models.AuthorizationStart{AuthorizationURL: authURL, State: state}, nil
}

// CompleteAuthorization consumes state, exchanges code for tokens, resolves
// the X user and stores the new token. The state is consumed before any
// network call, so a failed attempt cannot be replayed.
func (e *Engine) CompleteAuthorization(ctx context.Context, code, state string) (*Result, error) {
	verifier, err := e.challenges.Take(ctx, state)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, ErrInvalidState
	}
	if err != nil {
		return nil, err
	}

	if e.cfg.ClientID == "" || e.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: TWITTER_CLIENT_ID and TWITTER_CLIENT_SECRET are required", config.ErrMissingConfig)
	}

	tok, err := e.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	username, err := e.fetchUsername(ctx, tok)
	if err != nil {
		return nil, err
	}

	user, err := e.store.FindOrCreateUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolving user %q: %w", username, err)
	}

	info := tokenInfo(tok)
	if _, err := e.store.ReplaceToken(ctx, toStoredToken(user.ID, info)); err != nil {
		return nil, fmt.Errorf("saving token for user %d: %w", user.ID, err)
	}

	logger.Info("OAuth authorization completed", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return &Result{User: user, Token: info}, nil
}

// Abandon discards the attempt held for state without contacting X. An
// unknown state is not an error.
func (e *Engine) Abandon(ctx context.Context, state string) error {
	_, err := e.challenges.Take(ctx, state)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		return err
	}
	return nil
}

// GetUserToken returns the user's stored X token, or nil when there is none.
func (e *Engine) GetUserToken(ctx context.Context, userID int64) (*models.OAuthToken, error) {
	return e.store.GetToken(ctx, userID, models.ProviderTwitter)
}

func (e *Engine) exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := e.oauth2Config().Exchange(e.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err == nil {
		return tok, nil
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		logger.Error("Token exchange rejected", zap.Int("status", status), zap.String("body", string(retrieveErr.Body)))
		return nil, &ProviderError{Kind: ErrTokenExchange, Status: status, Body: string(retrieveErr.Body)}
	}

	logger.Error("Token exchange failed", zap.Error(err))
	return nil, fmt.Errorf("%w: %w", ErrTokenExchange, err)
}

type meResponse struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
	} `json:"data"`
}

func (e *Engine) fetchUsername(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.APIURL+"/users/me", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUserInfo, err)
	}

	client := e.oauth2Config().Client(e.clientContext(ctx), tok)
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("User info request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %w", ErrUserInfo, err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Error("User info rejected", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return "", &ProviderError{Kind: ErrUserInfo, Status: resp.StatusCode, Body: string(body)}
	}

	var me meResponse
	if err := json.Unmarshal(body, &me); err != nil {
		return "", fmt.Errorf("%w: decoding body: %w", ErrUserInfo, err)
	}
	if me.Data.Username == "" {
		return "", &ProviderError{Kind: ErrUserInfo, Status: resp.StatusCode, Body: string(body)}
	}
	return me.Data.Username, nil
}

func tokenInfo(tok *oauth2.Token) models.TokenInfo {
	info := models.TokenInfo{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		info.Scope = scope
	}
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		info.ExpiresAt = &expiry
	}
	return info
}

func toStoredToken(userID int64, info models.TokenInfo) models.OAuthToken {
	tok := models.OAuthToken{
		UserID:      userID,
		Provider:    models.ProviderTwitter,
		AccessToken: info.AccessToken,
		ExpiresAt:   info.ExpiresAt,
	}
	if info.RefreshToken != "" {
		tok.RefreshToken = &info.RefreshToken
	}
	if info.Scope != "" {
		tok.Scope = &info.Scope
	}
	return tok
}
