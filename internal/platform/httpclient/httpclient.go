package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBody = 1 << 20
)

// Client JSON para los upstreams del servicio (Odin, helper registry).
// Propaga el X-Request-ID del request entrante.
type Client struct {
	http    *http.Client
	baseURL string
	headers http.Header
}

// NewWithBaseURL: baseURL vacío es válido; en ese caso Do solo acepta URLs absolutas.
func NewWithBaseURL(baseURL string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		http:    &http.Client{Timeout: timeout},
		headers: http.Header{},
	}

	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return c, nil
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

func (c *Client) BaseURL() string { return c.baseURL }

// WithHeader fija un header para todos los requests. Valor vacío lo omite.
func (c *Client) WithHeader(key, value string) *Client {
	key = strings.TrimSpace(key)
	if key == "" || value == "" {
		return c
	}
	c.headers.Set(key, value)
	return c
}

type Request struct {
	Method string
	Path   string // relativo a baseURL o absoluto
	Header http.Header
	Body   any // nil => sin body
	Out    any // nil => se descarta la respuesta
}

// StatusError es una respuesta no-2xx del upstream.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Status)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Out: out})
}

func (c *Client) Do(ctx context.Context, r Request) error {
	target, err := c.resolve(r.Path)
	if err != nil {
		return err
	}

	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("httpclient: marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := chimw.GetReqID(ctx); id != "" {
		req.Header.Set(chimw.RequestIDHeader, id)
	}
	copyHeader(req.Header, c.headers)
	copyHeader(req.Header, r.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s %s: %w", r.Method, r.Path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if r.Out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, r.Out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", r.Path, err)
	}
	return nil
}

func (c *Client) resolve(p string) (string, error) {
	p = strings.TrimSpace(p)
	switch {
	case p == "":
		return "", errors.New("httpclient: empty path")
	case strings.HasPrefix(p, "http://"), strings.HasPrefix(p, "https://"):
		return p, nil
	case c.baseURL == "":
		return "", errors.New("httpclient: relative path without base url")
	case !strings.HasPrefix(p, "/"):
		p = "/" + p
	}
	return c.baseURL + p, nil
}

func copyHeader(dst, src http.Header) {
	for k, vs := range src {
		for i, v := range vs {
			if i == 0 {
				dst.Set(k, v)
			} else {
				dst.Add(k, v)
			}
		}
	}
}
