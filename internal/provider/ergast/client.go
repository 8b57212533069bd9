package ergast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appErr "f1-penca/pkg/errors"

	jsoniter "github.com/json-iterator/go"
)

const defaultBaseURL = "https://api.jolpi.ca/ergast/f1"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL, userAgent: cfg.UserAgent}
}

// FetchPage requests one page of category results for season.
func (c *Client) FetchPage(ctx context.Context, category Category, season, limit, offset int) (*Page, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", appErr.ErrProviderFailure, category)
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	endpoint := fmt.Sprintf("%s/%d/%s.json?%s", c.baseURL, season, category, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", appErr.ErrProviderFailure, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s offset=%d: %v", appErr.ErrProviderTimeout, category, offset, err)
		}
		return nil, fmt.Errorf("%w: %s offset=%d: %v", appErr.ErrProviderFailure, category, offset, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, fmt.Errorf("%w: %s offset=%d: http %d", appErr.ErrProviderFailure, category, offset, res.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s offset=%d: %v", appErr.ErrProviderTimeout, category, offset, err)
		}
		return nil, fmt.Errorf("%w: decode %s: %v", appErr.ErrProviderFailure, category, err)
	}

	total, err := atoiField("total", env.MRData.Total)
	if err != nil {
		return nil, err
	}
	page := &Page{
		Total:  total,
		Limit:  limit,
		Offset: offset,
		Races:  env.MRData.RaceTable.Races,
	}
	if v, err := strconv.Atoi(env.MRData.Limit); err == nil {
		page.Limit = v
	}
	if v, err := strconv.Atoi(env.MRData.Offset); err == nil {
		page.Offset = v
	}
	return page, nil
}

func atoiField(name, raw string) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: malformed %s %q", appErr.ErrProviderFailure, name, raw)
	}
	return v, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
