package fetcher

import (
	"fmt"
	"io"
	"net/http"
)

// Client fetches pages and stylesheets. No timeout is configured on
// purpose: a hung stylesheet request only delays that one sheet's
// contribution to the current pass.
type Client struct {
	client *http.Client

	// OnCSSFetch, when set, observes every stylesheet fetch outcome.
	// body is nil when err is non-nil.
	OnCSSFetch func(url string, body []byte, err error)
}

func NewClient() *Client {
	return &Client{
		client: &http.Client{},
	}
}

// GetHTML fetches a page body.
func (c *Client) GetHTML(url string) ([]byte, error) {
	return c.get(url)
}

// GetCSS fetches a stylesheet body and reports the outcome to OnCSSFetch.
func (c *Client) GetCSS(url string) ([]byte, error) {
	body, err := c.get(url)
	if c.OnCSSFetch != nil {
		c.OnCSSFetch(url, body, err)
	}
	return body, err
}

func (c *Client) get(url string) ([]byte, error) {
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s, status code: %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
