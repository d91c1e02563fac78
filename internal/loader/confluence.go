package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloo-solutions/docsmith/internal/domain"
	"golang.org/x/time/rate"
)

const (
	// DefaultConfluenceTimeout bounds a single Confluence request.
	DefaultConfluenceTimeout = 30 * time.Second
	// DefaultConfluenceRate is the proactive request rate (requests per second).
	DefaultConfluenceRate = 5.0

	maxErrorBody = 2048
)

// ErrMissingCredentials is returned when the Confluence URL, username or token is unset.
var ErrMissingCredentials = errors.New("missing confluence credentials (URL, USERNAME, or API_TOKEN)")

// MissingCredentialsMessage is the status text shown to users for ErrMissingCredentials.
const MissingCredentialsMessage = "Missing Confluence credentials (URL, USERNAME, or API_TOKEN)"

// HTTPError is a non-2xx response from Confluence. It is surfaced to the caller
// unchanged; requests are never retried.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("confluence returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("confluence returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ConfluenceConfig configures the Confluence client.
type ConfluenceConfig struct {
	BaseURL           string
	Username          string
	APIToken          string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// ConfluenceStatus reports whether Confluence is usable.
type ConfluenceStatus struct {
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
	URL       string `json:"url"`
	Username  string `json:"username"`
}

// ConfluenceClient fetches pages through the Confluence REST API using basic auth.
type ConfluenceClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	apiToken   string
	limiter    *rate.Limiter
	now        func() time.Time
}

type contentResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Space struct {
		Key string `json:"key"`
	} `json:"space"`
	Version struct {
		Number int `json:"number"`
	} `json:"version"`
	Body struct {
		Storage struct {
			Value string `json:"value"`
		} `json:"storage"`
	} `json:"body"`
}

// NewConfluenceClient creates a client. Missing credentials are not an error
// here; Configured and Status report them.
func NewConfluenceClient(cfg ConfluenceConfig) *ConfluenceClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfluenceTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfluenceRate
	}
	return &ConfluenceClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		username:   strings.TrimSpace(cfg.Username),
		apiToken:   strings.TrimSpace(cfg.APIToken),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		now:        time.Now,
	}
}

// Configured reports whether all credentials are present.
func (c *ConfluenceClient) Configured() bool {
	return c.baseURL != "" && c.username != "" && c.apiToken != ""
}

// Status probes the space listing endpoint to verify the credentials.
func (c *ConfluenceClient) Status(ctx context.Context) ConfluenceStatus {
	status := ConfluenceStatus{URL: orNotSet(c.baseURL), Username: orNotSet(c.username)}
	if !c.Configured() {
		status.Error = MissingCredentialsMessage
		return status
	}

	var spaces struct {
		Results []json.RawMessage `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/space?limit=1", &spaces); err != nil {
		status.Error = fmt.Sprintf("Connection failed: %v", err)
		return status
	}
	if len(spaces.Results) == 0 {
		status.Error = "Unable to fetch spaces - check permissions"
		return status
	}
	status.Available = true
	return status
}

// FetchPage loads a page and its storage-format body as a document.
func (c *ConfluenceClient) FetchPage(ctx context.Context, pageID string) (*domain.Document, error) {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return nil, domain.ErrMissingRequiredField
	}
	if !c.Configured() {
		return nil, domain.NewDomainErrorWithCause(domain.ErrConfluenceUnavailable.Code, domain.ErrConfluenceUnavailable.Message, ErrMissingCredentials)
	}

	var page contentResponse
	path := "/rest/api/content/" + url.PathEscape(pageID) + "?expand=body.storage,version,space"
	if err := c.get(ctx, path, &page); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(page.Title)
	if title == "" {
		title = "Confluence page " + pageID
	}
	text := fmt.Sprintf("Title: %s\n\n%s", title, CleanHTML(page.Body.Storage.Value))

	doc := domain.NewDocument(domain.SourceTypeConfluence, pageID, title, []string{text}, c.now().UTC())
	doc.SpaceKey = page.Space.Key
	doc.URL = c.PageURL(pageID)
	return doc, nil
}

// PageURL returns the browser URL of a page.
func (c *ConfluenceClient) PageURL(pageID string) string {
	return c.baseURL + "/pages/viewpage.action?pageId=" + url.QueryEscape(pageID)
}

func (c *ConfluenceClient) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}
