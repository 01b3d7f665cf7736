package quizimages

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// LeadImageFetcher returns the lead image of an encyclopedia article, or nil when it has none
type LeadImageFetcher interface {
	LeadImage(ctx context.Context, title string, width int) (*Candidate, error)
}

// WikipediaClient fetches article lead images through the pageimages API
type WikipediaClient struct {
	Client    *http.Client
	Endpoint  string
	Lang      string
	UserAgent string
}

// NewWikipediaClient creates a client for the given language edition
func NewWikipediaClient(lang, userAgent string) *WikipediaClient {
	if lang == "" {
		lang = "nl"
	}
	return &WikipediaClient{
		Client:    &http.Client{Timeout: 15 * time.Second},
		Endpoint:  fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang),
		Lang:      lang,
		UserAgent: userAgent,
	}
}

// LeadImage fetches the article thumbnail at the requested width
func (w *WikipediaClient) LeadImage(ctx context.Context, title string, width int) (*Candidate, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return nil, nil
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "pageimages")
	params.Set("piprop", "thumbnail|name")
	params.Set("pithumbsize", strconv.Itoa(width))
	params.Set("redirects", "1")
	params.Set("titles", t)

	var out mwResponse
	if err := getJSON(ctx, w.Client, w.Endpoint, params, w.UserAgent, &out); err != nil {
		return nil, fmt.Errorf("wikipedia lead image %q: %w", t, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("wikipedia lead image %q: api error %s: %s", t, out.Error.Code, out.Error.Info)
	}

	for _, p := range out.Query.Pages {
		if p.Missing || p.Thumbnail == nil || p.Thumbnail.Source == "" {
			continue
		}
		name := p.PageImage
		if name == "" {
			name = path.Base(p.Thumbnail.Source)
		}
		return &Candidate{
			Title:          "File:" + name,
			ImageURL:       p.Thumbnail.Source,
			DescriptionURL: fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", w.Lang, url.PathEscape(strings.ReplaceAll(p.Title, " ", "_"))),
			Width:          p.Thumbnail.Width,
			Height:         p.Thumbnail.Height,
			MIME:           thumbnailMIME(p.Thumbnail.Source),
			Description:    p.Title,
			Source:         SourceWikipedia,
			Query:          t,
		}, nil
	}
	return nil, nil
}

// thumbnailMIME reads the type of the served thumbnail, which is a raster rendering
// even when the page image is an SVG
func thumbnailMIME(src string) string {
	if u, err := url.Parse(src); err == nil {
		return mimeFromName(u.Path)
	}
	return mimeFromName(src)
}

// mimeFromName guesses the MIME type from a file name extension
func mimeFromName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
