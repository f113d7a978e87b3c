// Package apiclient is a typed HTTP client for the picfeed API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oggyb/picfeed/internal/api"
	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/utils/pagination"
)

// Client talks to one API base URL. Token may be empty for anonymous use.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) ListPosts(ctx context.Context, page, limit int, userID string) (pagination.Page[api.Post], error) {
	q := pageQuery(page, limit)
	if userID != "" {
		q.Set("userId", userID)
	}
	var out pagination.Page[api.Post]
	err := c.do(ctx, http.MethodGet, "/api/posts?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) GetPost(ctx context.Context, postID string) (api.Post, error) {
	var out api.PostResponse
	err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID), nil, &out)
	return out.Post, err
}

func (c *Client) CreatePost(ctx context.Context, req api.CreatePostRequest) (api.Post, error) {
	var out api.PostResponse
	err := c.do(ctx, http.MethodPost, "/api/posts", req, &out)
	return out.Post, err
}

func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+url.PathEscape(postID), nil, nil)
}

// UploadImage sends the raw image bytes and returns the stored URL.
func (c *Client) UploadImage(ctx context.Context, contentType string, body io.Reader) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/posts/upload", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	var out api.UploadResponse
	err = c.send(req, &out)
	return out.ImageURL, err
}

func (c *Client) Like(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodPost, "/api/likes", api.LikeRequest{PostID: postID}, nil)
}

func (c *Client) Unlike(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/api/likes", api.LikeRequest{PostID: postID}, nil)
}

func (c *Client) Follow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/api/follows", api.FollowRequest{FollowingID: userID}, nil)
}

func (c *Client) Unfollow(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/api/follows", api.FollowRequest{FollowingID: userID}, nil)
}

// ListComments pages a post's comments, newest first unless asc is set.
func (c *Client) ListComments(ctx context.Context, postID string, page, limit int, asc bool) (pagination.Page[api.Comment], error) {
	q := pageQuery(page, limit)
	if asc {
		q.Set("order", "asc")
	}
	var out pagination.Page[api.Comment]
	err := c.do(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID)+"/comments?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, postID, content string) (api.Comment, error) {
	var out api.CommentResponse
	err := c.do(ctx, http.MethodPost, "/api/comments", api.CreateCommentRequest{PostID: postID, Content: content}, &out)
	return out.Comment, err
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.do(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(commentID), nil, nil)
}

// Profile accepts either the internal id or the identity-provider id.
func (c *Client) Profile(ctx context.Context, ref string) (api.Profile, error) {
	var out api.ProfileResponse
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(ref), nil, &out)
	return out.User, err
}

func (c *Client) Search(ctx context.Context, query string) ([]api.Profile, error) {
	var out api.SearchResponse
	err := c.do(ctx, http.MethodGet, "/api/search?"+url.Values{"q": {query}}.Encode(), nil, &out)
	return out.Users, err
}

// Sync upserts the caller's profile from the token claims.
func (c *Client) Sync(ctx context.Context) (api.UserRef, error) {
	var out api.SyncResponse
	err := c.do(ctx, http.MethodPost, "/api/users/sync", nil, &out)
	return out.User, err
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// decodeError turns a non-2xx response into a typed error. The kind comes
// from the body when present and from the status otherwise.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	kind := svcErr.Kind(body.Kind)
	if kind == "" {
		kind = svcErr.KindForStatus(resp.StatusCode)
	}
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return svcErr.New(kind, msg)
}
