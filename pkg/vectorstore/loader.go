package vectorstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DefaultMaxDepth is the crawl depth used when Loader.MaxDepth is zero.
const DefaultMaxDepth = 2

// contentClass marks the main content container of mkdocs-material pages.
const contentClass = "md-content__inner"

const maxPageSize = 5 << 20

var blankLines = regexp.MustCompile(`\n\n+`)

// Document is a unit of loaded or split text.
type Document struct {
	Source  string
	Content string
	Chunk   int // Index of the chunk within its source document.
}

// Loader recursively fetches HTML pages breadth-first. Only links on the same
// host and below the starting URL's path are followed.
type Loader struct {
	Client   *http.Client
	MaxDepth int // Pages at depth < MaxDepth are loaded (0 = DefaultMaxDepth).
	Logger   *slog.Logger
}

type pending struct {
	url   *url.URL
	depth int
}

// Load crawls every start URL and returns the documents in visiting order.
// Pages that fail to load are logged and skipped; an invalid start URL is an
// error.
func (l *Loader) Load(ctx context.Context, urls ...string) ([]Document, error) {
	maxDepth := l.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	log := l.Logger
	if log == nil {
		log = slog.Default()
	}

	// Each start URL is crawled on its own. Pages reached from several start
	// URLs are fetched and returned once.
	fetched := make(map[string]*html.Node)
	var docs []Document

	for _, raw := range urls {
		root, err := url.Parse(raw)
		if err != nil || (root.Scheme != "http" && root.Scheme != "https") {
			return nil, fmt.Errorf("vectorstore: invalid start url %q", raw)
		}
		root.Fragment = ""

		visited := make(map[string]struct{})
		queue := []pending{{url: root, depth: 0}}
		for len(queue) > 0 {
			if err := ctx.Err(); err != nil {
				return docs, err
			}

			p := queue[0]
			queue = queue[1:]

			key := p.url.String()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}

			page, known := fetched[key]
			if !known {
				page, err = l.fetch(ctx, key)
				if err != nil {
					log.WarnContext(ctx, "skipping page", "url", key, "error", err)
				} else {
					docs = append(docs, Document{Source: key, Content: ExtractText(page)})
				}
				fetched[key] = page
			}
			if page == nil {
				continue
			}

			if p.depth+1 >= maxDepth {
				continue
			}
			for _, link := range childLinks(page, p.url, root) {
				queue = append(queue, pending{url: link, depth: p.depth + 1})
			}
		}
	}

	log.InfoContext(ctx, "documents loaded", "count", len(docs))

	return docs, nil
}

func (l *Loader) fetch(ctx context.Context, target string) (*html.Node, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	ctype := resp.Header.Get("Content-Type")
	if ctype != "" && !strings.Contains(ctype, "html") {
		return nil, fmt.Errorf("unsupported content-type: %s", ctype)
	}

	return html.Parse(io.LimitReader(resp.Body, maxPageSize))
}

// ExtractText returns the text of the page's main content article, or of the
// whole document when there is none, with runs of blank lines collapsed.
func ExtractText(doc *html.Node) string {
	node := findByClass(doc, "article", contentClass)
	if node == nil {
		node = doc
	}

	var b strings.Builder
	collectText(node, &b)

	return strings.TrimSpace(blankLines.ReplaceAllString(b.String(), "\n\n"))
}

func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" && strings.Contains(" "+a.Val+" ", " "+class+" ") {
			return true
		}
	}
	return false
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// childLinks returns the absolute links of doc that stay on root's host and
// under root's path.
func childLinks(doc *html.Node, base, root *url.URL) []*url.URL {
	prefix := root.Path
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		prefix = prefix[:i+1]
	}

	var links []*url.URL
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" {
					continue
				}
				u, err := base.Parse(a.Val)
				if err != nil {
					continue
				}
				u.Fragment = ""
				u.RawQuery = ""
				if u.Host == root.Host && u.Scheme == root.Scheme && strings.HasPrefix(u.Path, prefix) {
					links = append(links, u)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}
