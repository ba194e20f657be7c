package gofile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	DefaultAPIURL    = "https://api.gofile.io"
	DefaultUploadURL = "https://{server}.gofile.io/uploadFile"
	DefaultTimeout   = 10 * time.Second
	DefaultZone      = "eu"

	serverPlaceholder = "{server}"
)

// Client represents a Gofile API client
type Client struct {
	apiURL           string
	uploadURL        string
	discoveryTimeout time.Duration
	httpClient       *http.Client
}

var _ ClientAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithAPIURL overrides the discovery API base URL.
func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// WithUploadURL overrides the upload URL template. "{server}" is replaced by the server name.
func WithUploadURL(template string) Option {
	return func(c *Client) {
		c.uploadURL = template
	}
}

// WithDiscoveryTimeout bounds the server discovery request.
func WithDiscoveryTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.discoveryTimeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient creates a new Gofile client. The HTTP client has no global
// timeout since uploads can be arbitrarily large; discovery is bounded
// separately.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiURL:           DefaultAPIURL,
		uploadURL:        DefaultUploadURL,
		discoveryTimeout: DefaultTimeout,
		httpClient:       &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// doRequest executes an HTTP request bound to ctx
func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	return c.httpClient.Do(req)
}

// GetServers queries the discovery endpoint for the available upload servers
func (c *Client) GetServers(ctx context.Context) ([]Server, error) {
	ctx, cancel := context.WithTimeout(ctx, c.discoveryTimeout)
	defer cancel()

	resp, err := c.doRequest(ctx, http.MethodGet, c.apiURL+"/servers", nil, "")
	if err != nil {
		return nil, fmt.Errorf("error getting gofile servers: %w", err)
	}
	defer resp.Body.Close()

	env, err := readEnvelope(resp, "error getting gofile servers")
	if err != nil {
		return nil, err
	}

	data, err := HandleResponse(env)
	if err != nil {
		return nil, err
	}

	var result ServersData
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("error decoding gofile servers: %w", err)
	}

	return result.Servers, nil
}

// UploadURL returns the upload endpoint of the given server
func (c *Client) UploadURL(server Server) string {
	return strings.ReplaceAll(c.uploadURL, serverPlaceholder, server.Name)
}

// UploadMultipart posts filePath as a multipart form under field, along with
// any extra form fields, and returns the decoded response envelope. The body
// is streamed through a pipe so the file is never held in memory.
func (c *Client) UploadMultipart(ctx context.Context, url, filePath, field string, fields map[string]string) (*Envelope, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bodyReader, bodyWriter := io.Pipe()
	defer bodyReader.Close()

	writer := multipart.NewWriter(bodyWriter)

	go func() {
		bodyWriter.CloseWithError(writeForm(writer, file, filepath.Base(filePath), field, fields))
	}()

	resp, err := c.doRequest(ctx, http.MethodPost, url, bodyReader, writer.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("error uploading file to gofile: %w", err)
	}
	defer resp.Body.Close()

	return readEnvelope(resp, "error uploading file to gofile")
}

// readEnvelope decodes the response body whatever the HTTP status. Gofile
// reports failures such as rate limiting with a non-200 status and an
// "error-<code>" envelope, which surfaces as a *RemoteError. The bare HTTP
// status is reported only when the body carries no envelope.
func readEnvelope(resp *http.Response, action string) (*Envelope, error) {
	var env Envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && env.Status != "" {
			if _, err := HandleResponse(&env); err != nil {
				return nil, err
			}
		}
		return nil, fmt.Errorf("%s: %s", action, resp.Status)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%s: invalid response: %w", action, decodeErr)
	}

	return &env, nil
}

// writeForm writes the extra fields in key order, then the file part.
func writeForm(writer *multipart.Writer, file io.Reader, fileName, field string, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return err
		}
	}

	part, err := writer.CreateFormFile(field, fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	return writer.Close()
}
