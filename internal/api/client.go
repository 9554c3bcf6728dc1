// Package api is the REST client for the notification and reel backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/colonyops/feedsync/internal/core/entity"
)

// TokenProvider returns the bearer token for a request. An empty token sends
// no Authorization header.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken returns a provider for a fixed token.
func StaticToken(token string) TokenProvider {
	return func(context.Context) (string, error) { return token, nil }
}

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
	Timeout       time.Duration
	UserAgent     string
	// MaxBodyBytes caps response bodies; larger ones fail with
	// ErrInvalidResponse. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// Client calls the backend. It never retries; retry policy belongs to the
// caller.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider
	httpClient    *http.Client
	userAgent     string
	maxBody       int64
}

// New creates a client with defaults for unset options.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "feedsync"
	}
	return &Client{
		baseURL:       baseURL,
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		userAgent:     userAgent,
		maxBody:       maxBody,
	}
}

// ListNotifications fetches the user's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context, userID string) ([]entity.Notification, error) {
	var dtos []notificationDTO
	if err := c.do(ctx, http.MethodGet, "/api/notifications/"+url.PathEscape(userID), nil, nil, &dtos); err != nil {
		return nil, err
	}
	return notifications(dtos)
}

// MarkRead marks one notification read and returns the server record. The
// record is zero when the server answers without a body.
func (c *Client) MarkRead(ctx context.Context, id string) (entity.Notification, error) {
	var dto *notificationDTO
	if err := c.do(ctx, http.MethodPut, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil, &dto); err != nil {
		return entity.Notification{}, err
	}
	if dto == nil {
		return entity.Notification{}, nil
	}
	out, err := notifications([]notificationDTO{*dto})
	if err != nil {
		return entity.Notification{}, err
	}
	return out[0], nil
}

// MarkReadMany marks the listed notifications read.
func (c *Client) MarkReadMany(ctx context.Context, ids []string) ([]entity.Notification, error) {
	var dtos []notificationDTO
	if err := c.do(ctx, http.MethodPut, "/api/notifications/read", nil, idsRequest{IDs: ids}, &dtos); err != nil {
		return nil, err
	}
	return notifications(dtos)
}

// MarkAllRead marks every notification of userID read.
func (c *Client) MarkAllRead(ctx context.Context, userID string) ([]entity.Notification, error) {
	var dtos []notificationDTO
	if err := c.do(ctx, http.MethodPut, "/api/notifications/user/"+url.PathEscape(userID)+"/read-all", nil, nil, &dtos); err != nil {
		return nil, err
	}
	return notifications(dtos)
}

// Delete deletes one notification.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+url.PathEscape(id), nil, nil, nil)
}

// DeleteMany deletes the listed notifications.
func (c *Client) DeleteMany(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/delete", nil, idsRequest{IDs: ids}, nil)
}

// Notify asks the backend to create a notification for userID. clientRef
// comes back on the NEW_NOTIFICATION push so the sender can match it.
func (c *Client) Notify(ctx context.Context, userID, message, clientRef string) (entity.Notification, error) {
	var dto notificationDTO
	req := notifyRequest{Message: message, ClientRef: clientRef}
	if err := c.do(ctx, http.MethodPost, "/api/dev/notify/"+url.PathEscape(userID), nil, req, &dto); err != nil {
		return entity.Notification{}, err
	}
	out, err := notifications([]notificationDTO{dto})
	if err != nil {
		return entity.Notification{}, err
	}
	return out[0], nil
}

// ListReels fetches the reel feed in server order.
func (c *Client) ListReels(ctx context.Context, userID string) ([]entity.FeedItem, error) {
	var dtos []reelDTO
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/api/reels", q, nil, &dtos); err != nil {
		return nil, err
	}
	return reels(dtos)
}

// Like likes reelID as userID and returns the authoritative like state.
func (c *Client) Like(ctx context.Context, reelID, userID string) (entity.LikeState, error) {
	return c.like(ctx, "like", reelID, userID)
}

// Unlike removes userID's like from reelID.
func (c *Client) Unlike(ctx context.Context, reelID, userID string) (entity.LikeState, error) {
	return c.like(ctx, "unlike", reelID, userID)
}

func (c *Client) like(ctx context.Context, action, reelID, userID string) (entity.LikeState, error) {
	var dto likeDTO
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, http.MethodPost, "/api/reels/"+url.PathEscape(reelID)+"/"+action, q, nil, &dto); err != nil {
		return entity.LikeState{}, err
	}
	if err := validate.Struct(dto); err != nil {
		return entity.LikeState{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	likedBy := entity.WireIDs(dto.LikedBy)
	if likedBy == nil {
		likedBy = []string{}
	}
	return entity.LikeState{LikedBy: likedBy, LikeCount: dto.LikeCount}, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		if token = strings.TrimSpace(token); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, readErr)
	}
	if int64(len(respBody)) > c.maxBody {
		return fmt.Errorf("%w: %s %s: body exceeds %d bytes", ErrInvalidResponse, method, path, c.maxBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrInvalidResponse, method, path, err)
	}
	return nil
}

func statusError(method, path string, status int, body []byte) *StatusError {
	e := &StatusError{
		Method:  method,
		Path:    path,
		Status:  status,
		Message: strings.TrimSpace(string(body)),
	}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		e.Code = parsed.Code
		switch {
		case strings.TrimSpace(parsed.Message) != "":
			e.Message = parsed.Message
		case strings.TrimSpace(parsed.Error) != "":
			e.Message = parsed.Error
		}
	}
	return e
}
