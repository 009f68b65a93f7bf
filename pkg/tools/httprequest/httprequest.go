// Package httprequest provides the http_request tool, which lets agents call
// web APIs. Requests may be limited to an allow-list of hosts and blocked
// from reaching private networks.
package httprequest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/germanamz/kata/pkg/tools/toolbox"
)

// ToolName is the name agents use to call the tool.
const ToolName = "http_request"

// maxBodySize is the maximum response body size (1MB).
const maxBodySize = 1 << 20

const defaultUserAgent = "kata/0.1 (+https://github.com/germanamz/kata)"

// Options configure a Requester.
type Options struct {
	// AllowedHosts restricts requests to these hostnames. Empty allows all.
	AllowedHosts []string
	// BlockPrivate rejects connections to loopback and private addresses.
	BlockPrivate bool
	// Client overrides the HTTP client. BlockPrivate is ignored when set.
	Client *http.Client
	// UserAgent is sent when the caller does not set one.
	UserAgent string
}

// Requester performs HTTP requests on behalf of agents.
type Requester struct {
	allowed   []string
	client    *http.Client
	userAgent string
}

var privateRanges = func() []*net.IPNet {
	cidrs := []string{
		"0.0.0.0/8",
		"127.0.0.0/8",
		"10.0.0.0/8",
		"100.64.0.0/10",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}

	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, ipNet, _ := net.ParseCIDR(cidr)
		nets = append(nets, ipNet)
	}

	return nets
}()

func isPrivateIP(ip net.IP) bool {
	for _, r := range privateRanges {
		if r.Contains(ip) {
			return true
		}
	}

	return false
}

// safeTransport validates resolved IPs at dial time so a hostname cannot
// resolve to a private address after the allow-list check.
func safeTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid address %s: %w", ToolName, addr, err)
			}

			ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
			if err != nil {
				return nil, fmt.Errorf("%s: DNS lookup failed for %s: %w", ToolName, host, err)
			}

			for _, ip := range ips {
				if isPrivateIP(ip.IP) {
					return nil, fmt.Errorf("%s: connection to private address %s blocked", ToolName, ip.IP)
				}
			}

			return dialer.DialContext(ctx, network, net.JoinHostPort(ips[0].IP.String(), port))
		},
	}
}

// New creates a Requester.
func New(opts Options) *Requester {
	r := &Requester{
		allowed:   normalizeHosts(opts.AllowedHosts),
		client:    opts.Client,
		userAgent: opts.UserAgent,
	}

	if r.userAgent == "" {
		r.userAgent = defaultUserAgent
	}

	if r.client == nil {
		r.client = &http.Client{Timeout: 60 * time.Second}
		if opts.BlockPrivate {
			r.client.Transport = safeTransport()
		}
		r.client.CheckRedirect = func(req *http.Request, _ []*http.Request) error {
			return r.checkHost(req.URL)
		}
	}

	return r
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Tools returns a ToolBox containing the http_request tool.
func (r *Requester) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(r.Tool())

	return tb
}

// Tool returns the http_request tool.
func (r *Requester) Tool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ToolName,
		Description: "Make an HTTP request to a web API. Returns status, headers, and body (capped at 1MB).",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"url":{"type":"string","description":"The URL to request"},"method":{"type":"string","description":"HTTP method (default GET)"},"headers":{"type":"object","additionalProperties":{"type":"string"},"description":"Request headers"},"body":{"type":"string","description":"Request body"}},"required":["url"]}`),
		Handler:     toolbox.Typed(ToolName, r.Do),
	}
}

// Input is the http_request tool input.
type Input struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Output is the http_request tool output, returned JSON-encoded.
type Output struct {
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Truncated bool              `json:"truncated,omitempty"`
}

func (r *Requester) checkHost(u *url.URL) error {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%s: URL has no host", ToolName)
	}

	if len(r.allowed) > 0 && !slices.Contains(r.allowed, host) {
		return fmt.Errorf("%s: host %s is not allowed", ToolName, host)
	}

	return nil
}

// Do performs the request described by in and returns the JSON-encoded Output.
func (r *Requester) Do(ctx context.Context, in Input) (string, error) {
	if in.URL == "" {
		return "", fmt.Errorf("%s: url is required", ToolName)
	}

	u, err := url.Parse(in.URL)
	if err != nil {
		return "", fmt.Errorf("%s: invalid URL: %w", ToolName, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s: unsupported scheme %q", ToolName, u.Scheme)
	}

	if err := r.checkHost(u); err != nil {
		return "", err
	}

	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if in.Body != "" {
		bodyReader = strings.NewReader(in.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return "", fmt.Errorf("%s: create request: %w", ToolName, err)
	}

	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}

	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req) //nolint:gosec // host is checked against the allow-list
	if err != nil {
		return "", fmt.Errorf("%s: %w", ToolName, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("%s: read body: %w", ToolName, err)
	}

	out := Output{
		Status:  resp.StatusCode,
		Headers: make(map[string]string, len(resp.Header)),
	}

	if len(body) > maxBodySize {
		body = body[:maxBodySize]
		out.Truncated = true
	}
	out.Body = string(body)

	for k := range resp.Header {
		out.Headers[k] = resp.Header.Get(k)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", ToolName, err)
	}

	return string(data), nil
}
