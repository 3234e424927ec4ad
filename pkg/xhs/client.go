package xhs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"xhscollect/pkg/logger"
)

// Client is an authenticated Xiaohongshu web API client. It issues plain
// cookie-authenticated requests; request signing is left to the session
// cookies the way the web frontend uses them.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	apiBase    string
	logger     logger.Logger
}

// NewClient creates a new API client. The cookie string is the session
// credential; requests without it are rejected by the service.
func NewClient(cookies, userAgent string, timeout time.Duration, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Cookie":          cookies,
			"Origin":          BaseURL,
			"Referer":         BaseURL + "/",
		},
		apiBase: APIBaseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetAPIBaseURL overrides the API host, used by tests.
func (c *Client) SetAPIBaseURL(base string) {
	c.apiBase = base
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	// Set all headers
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	// Log the request
	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}

	return c.doRequest(req)
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	return c.decodeJSON(resp, url, target)
}

// postJSON performs a POST request with a JSON payload and decodes the
// JSON response
func (c *Client) postJSON(ctx context.Context, url string, payload, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to encode request body: %v", err),
			Code:    0,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Error{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Code:    0,
		}
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	return c.decodeJSON(resp, url, target)
}

// decodeJSON reads and decodes a response body
func (c *Client) decodeJSON(resp *http.Response, url string, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		// Create a preview of the body for debugging
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &Error{
			Type:    ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

// checkResponseStatus checks the HTTP response status and returns appropriate errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeAuth,
			Message: "authentication required",
			Code:    resp.StatusCode,
		}
	case http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeNotFound,
			Message: "resource not found",
			Code:    resp.StatusCode,
		}
	case http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return &Error{
			Type:    ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		if resp.StatusCode >= 400 {
			c.logger.ErrorWithFields("unexpected API error", map[string]interface{}{
				"status": resp.StatusCode,
				"url":    resp.Request.URL.String(),
			})
			return &Error{
				Type:    ErrorTypeUnknown,
				Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
				Code:    resp.StatusCode,
			}
		}
		return nil
	}
}

// searchRequest is the body of a search call
type searchRequest struct {
	Keyword  string `json:"keyword"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	SearchID string `json:"search_id"`
	Sort     string `json:"sort"`
	NoteType int    `json:"note_type"`
}

// SearchNotes fetches one page of search results for a keyword
func (c *Client) SearchNotes(ctx context.Context, keyword string, page int, sort string, noteType int) (*SearchData, error) {
	c.logger.DebugWithFields("searching notes", map[string]interface{}{
		"keyword": keyword,
		"page":    page,
		"sort":    sort,
	})

	var response SearchResponse
	body := searchRequest{
		Keyword:  keyword,
		Page:     page,
		PageSize: SearchPageSize,
		SearchID: newSearchID(),
		Sort:     sort,
		NoteType: noteType,
	}
	if err := c.postJSON(ctx, c.apiBase+SearchNotesEndpoint, body, &response); err != nil {
		c.logger.ErrorWithFields("failed to search notes", map[string]interface{}{
			"keyword": keyword,
			"page":    page,
			"error":   err.Error(),
		})
		return nil, err
	}

	if !response.Success {
		return nil, envelopeError(response.Code, response.Msg)
	}

	c.logger.DebugWithFields("search page fetched", map[string]interface{}{
		"keyword":  keyword,
		"page":     page,
		"items":    len(response.Data.Items),
		"has_more": response.Data.HasMore,
	})

	return &response.Data, nil
}

// feedRequest is the body of a note detail call
type feedRequest struct {
	SourceNoteID string   `json:"source_note_id"`
	ImageFormats []string `json:"image_formats"`
	XsecSource   string   `json:"xsec_source"`
	XsecToken    string   `json:"xsec_token"`
}

// GetNoteDetail fetches the full note card for a search result reference
func (c *Client) GetNoteDetail(ctx context.Context, ref NoteRef) (*NoteCard, error) {
	c.logger.DebugWithFields("fetching note detail", map[string]interface{}{
		"note_id": ref.ID,
	})

	var response FeedResponse
	body := feedRequest{
		SourceNoteID: ref.ID,
		ImageFormats: []string{"jpg", "webp", "avif"},
		XsecSource:   "pc_search",
		XsecToken:    ref.XsecToken,
	}
	if err := c.postJSON(ctx, c.apiBase+NoteFeedEndpoint, body, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, envelopeError(response.Code, response.Msg)
	}
	if len(response.Data.Items) == 0 {
		return nil, &Error{
			Type:    ErrorTypeNotFound,
			Message: "note detail payload is empty",
			Code:    http.StatusOK,
		}
	}

	return &response.Data.Items[0].NoteCard, nil
}

// GetNoteComments fetches one page of comments for a note
func (c *Client) GetNoteComments(ctx context.Context, noteID, cursor string) (*CommentsData, error) {
	var response CommentsResponse
	if err := c.GetJSON(ctx, commentsURL(c.apiBase, noteID, cursor), &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, envelopeError(response.Code, response.Msg)
	}

	return &response.Data, nil
}

// GetUserProfile fetches a user's profile
func (c *Client) GetUserProfile(ctx context.Context, userID string) (*UserData, error) {
	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"user_id": userID,
	})

	var response UserResponse
	if err := c.GetJSON(ctx, userProfileURL(c.apiBase, userID), &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, envelopeError(response.Code, response.Msg)
	}

	return &response.Data, nil
}

// GetUserNotes fetches one page of a user's posted notes
func (c *Client) GetUserNotes(ctx context.Context, userID, cursor string) (*UserNotesData, error) {
	c.logger.DebugWithFields("fetching user notes", map[string]interface{}{
		"user_id": userID,
		"cursor":  cursor,
	})

	var response UserNotesResponse
	if err := c.GetJSON(ctx, userNotesURL(c.apiBase, userID, cursor, UserNotesPageSize), &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, envelopeError(response.Code, response.Msg)
	}

	return &response.Data, nil
}

// DownloadMedia downloads a media file from the given URL
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	c.logger.DebugWithFields("downloading media", map[string]interface{}{
		"url": mediaURL,
	})

	resp, err := c.Get(ctx, mediaURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.ErrorWithFields("failed to read media data", map[string]interface{}{
			"url":   mediaURL,
			"error": err.Error(),
		})
		return nil, &Error{
			Type:    ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to download media: %v", err),
			Code:    0,
		}
	}

	c.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}
