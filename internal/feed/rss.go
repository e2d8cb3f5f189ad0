package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

const (
	defaultFetchTimeout = 30 * time.Second
	maxFeedBytes        = 16 << 20
	userAgent           = "Auto-Bangumi"
)

// Item is one torrent announced by a feed.
type Item struct {
	Title string
	// URL is the torrent download location: the enclosure when present,
	// otherwise the item link.
	URL  string
	Link string
	// Hash is the lower-case info hash when it can be read from the URL or
	// link, empty otherwise.
	Hash      string
	Published time.Time
}

type rssDocument struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title     string `xml:"title"`
	Link      string `xml:"link"`
	GUID      string `xml:"guid"`
	PubDate   string `xml:"pubDate"`
	Enclosure struct {
		URL  string `xml:"url,attr"`
		Type string `xml:"type,attr"`
	} `xml:"enclosure"`
}

// Fetcher downloads and decodes RSS 2.0 feeds.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a fetcher that honours the proxy settings.
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{client: cfg.HTTPClient(defaultFetchTimeout)}
}

// NewFetcherWithClient wraps an existing HTTP client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Fetcher{client: client}
}

// Fetch returns the feed's channel title and items in document order.
// Items without a title or any download location are skipped.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (string, []Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", nil, services.Wrap(services.ErrValidation, "feed", "fetch", "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, services.Wrap(services.ErrTransient, "feed", "fetch", feedURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		marker := services.ErrExternalTool
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return "", nil, services.Wrap(marker, "feed", "fetch", fmt.Sprintf("%s: http %d", feedURL, resp.StatusCode), nil)
	}
	title, items, err := Decode(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return "", nil, services.Wrap(services.ErrExternalTool, "feed", "decode", feedURL, err)
	}
	return title, items, nil
}

// Decode reads an RSS 2.0 document.
func Decode(r io.Reader) (string, []Item, error) {
	var doc rssDocument
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("decode rss: %w", err)
	}
	items := make([]Item, 0, len(doc.Channel.Items))
	for _, raw := range doc.Channel.Items {
		item := Item{
			Title: strings.TrimSpace(raw.Title),
			URL:   strings.TrimSpace(raw.Enclosure.URL),
			Link:  strings.TrimSpace(raw.Link),
		}
		if item.URL == "" {
			item.URL = item.Link
		}
		if item.Title == "" || item.URL == "" {
			continue
		}
		item.Hash = firstNonEmpty(InfoHash(item.URL), InfoHash(item.Link), InfoHash(strings.TrimSpace(raw.GUID)))
		if published, err := time.Parse(time.RFC1123Z, strings.TrimSpace(raw.PubDate)); err == nil {
			item.Published = published
		}
		items = append(items, item)
	}
	return strings.TrimSpace(doc.Channel.Title), items, nil
}

var (
	hexHashPattern    = regexp.MustCompile(`(?i)^[0-9a-f]{40}$`)
	magnetHashPattern = regexp.MustCompile(`(?i)urn:btih:([0-9a-f]{40})`)
)

// InfoHash extracts a v1 info hash from a magnet link or from a URL whose
// last path segment is the hash ("<hash>.torrent" or "<hash>").
func InfoHash(raw string) string {
	if raw == "" {
		return ""
	}
	if groups := magnetHashPattern.FindStringSubmatch(raw); groups != nil {
		return strings.ToLower(groups[1])
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	segment := strings.TrimSuffix(path.Base(parsed.Path), ".torrent")
	if hexHashPattern.MatchString(segment) {
		return strings.ToLower(segment)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
