package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/maskpaint/internal/imageio"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 2 * time.Minute

// Client is an HTTP implementation of MaskApplier and BackgroundRemover.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var (
	_ MaskApplier       = (*Client)(nil)
	_ BackgroundRemover = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option { return func(c *Client) { c.token = strings.TrimSpace(token) } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithTimeout sets the network timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("service url is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid service url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type imagePayload struct {
	Ref  string `json:"ref"`
	URL  string `json:"url,omitempty"`
	Data string `json:"data,omitempty"`
}

type response struct {
	Success bool          `json:"success"`
	Image   *imagePayload `json:"image,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ApplyMask uploads the mask as multipart form data and returns the image
// the service prepared from it.
func (c *Client) ApplyMask(ctx context.Context, req MaskRequest) (*PreparedImage, error) {
	if req.SourceRef == "" {
		return nil, fmt.Errorf("source image reference is required")
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = imageio.PNG.ContentType()
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("image_ref", req.SourceRef); err != nil {
		return nil, err
	}
	if req.SessionID != "" {
		if err := mw.WriteField("session_id", req.SessionID); err != nil {
			return nil, err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="mask"; filename="mask`+extFor(contentType)+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(req.Mask); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, "/apply-mask", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	return c.prepared(ctx, resp)
}

// RemoveBackground asks the service for an automatic cut-out of sourceRef.
func (c *Client) RemoveBackground(ctx context.Context, sourceRef string) (*PreparedImage, error) {
	if sourceRef == "" {
		return nil, fmt.Errorf("source image reference is required")
	}
	payload, err := json.Marshal(map[string]string{"image_ref": sourceRef})
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, "/remove-background", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	return c.prepared(ctx, resp)
}

func (c *Client) send(ctx context.Context, path, contentType string, body io.Reader) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var out response
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && out.Error != "" {
			return nil, &RejectedError{Status: resp.StatusCode, Message: out.Error}
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse response: %w", decodeErr)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "no reason given"
		}
		return nil, &RejectedError{Message: msg}
	}
	if out.Image == nil {
		return nil, fmt.Errorf("response has no image")
	}
	return &out, nil
}

func (c *Client) prepared(ctx context.Context, resp *response) (*PreparedImage, error) {
	p := &PreparedImage{Ref: resp.Image.Ref, URL: resp.Image.URL}
	switch {
	case resp.Image.Data != "":
		raw, err := base64.StdEncoding.DecodeString(resp.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("decode image data: %w", err)
		}
		img, err := imageio.Decode(raw)
		if err != nil {
			return nil, err
		}
		p.Image = img
	case resp.Image.URL != "":
		u, err := c.resolve(resp.Image.URL)
		if err != nil {
			return nil, err
		}
		img, err := imageio.Fetch(ctx, c.httpClient, u)
		if err != nil {
			return nil, err
		}
		p.URL = u
		p.Image = img
	}
	return p, nil
}

func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", err
	}
	u, err := base.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid image url %q: %w", ref, err)
	}
	return u.String(), nil
}

func extFor(contentType string) string {
	if contentType == imageio.WebP.ContentType() {
		return imageio.WebP.Ext()
	}
	return imageio.PNG.Ext()
}
