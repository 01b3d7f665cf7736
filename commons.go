package quizimages

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ImageSearcher finds image candidates on a media repository
type ImageSearcher interface {
	SearchFiles(ctx context.Context, query string, limit int) ([]Candidate, error)
	CategoryMembers(ctx context.Context, category string, limit int) ([]Candidate, error)
}

// CommonsEndpoint is the Wikimedia Commons action API
const CommonsEndpoint = "https://commons.wikimedia.org/w/api.php"

// CommonsClient implements ImageSearcher over the MediaWiki action API
type CommonsClient struct {
	Client    *http.Client
	Endpoint  string
	UserAgent string
}

// NewCommonsClient creates a client for Wikimedia Commons
func NewCommonsClient(userAgent string) *CommonsClient {
	return &CommonsClient{
		Client:    &http.Client{Timeout: 20 * time.Second},
		Endpoint:  CommonsEndpoint,
		UserAgent: userAgent,
	}
}

type mwResponse struct {
	Query struct {
		Pages []mwPage `json:"pages"`
	} `json:"query"`
	Error *mwError `json:"error"`
}

type mwError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type mwPage struct {
	Title      string        `json:"title"`
	Index      int           `json:"index"`
	Missing    bool          `json:"missing"`
	ImageInfo  []mwImageInfo `json:"imageinfo"`
	Categories []mwCategory  `json:"categories"`
	Thumbnail  *mwThumbnail  `json:"thumbnail"`
	PageImage  string        `json:"pageimage"`
}

type mwCategory struct {
	Title string `json:"title"`
}

type mwThumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type mwImageInfo struct {
	URL            string                 `json:"url"`
	DescriptionURL string                 `json:"descriptionurl"`
	Width          int                    `json:"width"`
	Height         int                    `json:"height"`
	MIME           string                 `json:"mime"`
	ExtMetadata    map[string]mwMetaValue `json:"extmetadata"`
}

type mwMetaValue struct {
	Value any `json:"value"`
}

// SearchFiles runs a full-text search over the File namespace
func (c *CommonsClient) SearchFiles(ctx context.Context, query string, limit int) ([]Candidate, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	params := c.fileParams()
	params.Set("generator", "search")
	params.Set("gsrsearch", q)
	params.Set("gsrnamespace", "6")
	params.Set("gsrlimit", strconv.Itoa(limit))

	cands, err := c.query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("commons search %q: %w", q, err)
	}
	for i := range cands {
		cands[i].Query = q
	}
	return cands, nil
}

// CategoryMembers lists the files in a category
func (c *CommonsClient) CategoryMembers(ctx context.Context, category string, limit int) ([]Candidate, error) {
	cat := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(category), "Category:"))
	if cat == "" {
		return nil, nil
	}
	params := c.fileParams()
	params.Set("generator", "categorymembers")
	params.Set("gcmtitle", "Category:"+cat)
	params.Set("gcmtype", "file")
	params.Set("gcmlimit", strconv.Itoa(limit))

	cands, err := c.query(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("commons category %q: %w", cat, err)
	}
	return cands, nil
}

func (c *CommonsClient) fileParams() url.Values {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "imageinfo|categories")
	params.Set("iiprop", "url|size|mime|extmetadata")
	params.Set("iiextmetadatafilter", "ImageDescription")
	params.Set("clshow", "!hidden")
	params.Set("cllimit", "max")
	return params
}

func (c *CommonsClient) query(ctx context.Context, params url.Values) ([]Candidate, error) {
	var out mwResponse
	if err := getJSON(ctx, c.Client, c.Endpoint, params, c.UserAgent, &out); err != nil {
		return nil, err
	}
	if out.Error != nil {
		return nil, fmt.Errorf("api error %s: %s", out.Error.Code, out.Error.Info)
	}

	pages := out.Query.Pages
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	cands := make([]Candidate, 0, len(pages))
	for _, p := range pages {
		if p.Missing || len(p.ImageInfo) == 0 || p.ImageInfo[0].URL == "" {
			continue
		}
		ii := p.ImageInfo[0]
		cand := Candidate{
			Title:          p.Title,
			ImageURL:       ii.URL,
			DescriptionURL: ii.DescriptionURL,
			Width:          ii.Width,
			Height:         ii.Height,
			MIME:           ii.MIME,
			Source:         SourceCommons,
		}
		if d, ok := ii.ExtMetadata["ImageDescription"]; ok {
			if s, ok := d.Value.(string); ok {
				cand.Description = htmlToText(s)
			}
		}
		for _, cat := range p.Categories {
			cand.Categories = append(cand.Categories, cat.Title)
		}
		cands = append(cands, cand)
	}
	return cands, nil
}

// getJSON performs a GET with query params and decodes a JSON body
func getJSON(ctx context.Context, client *http.Client, endpoint string, params url.Values, userAgent string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
