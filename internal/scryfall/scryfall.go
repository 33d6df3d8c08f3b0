// Package scryfall is a search.Backend backed by the Scryfall REST API.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AlexYaroshenko/scryfallbot/internal/errs"
	"github.com/AlexYaroshenko/scryfallbot/internal/search"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.scryfall.com/"

const userAgent = "scryfallbot/1.0"

// Client searches cards on Scryfall.
type Client struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// HTTP defaults to http.DefaultClient.
	HTTP *http.Client
}

var _ search.Backend = (*Client)(nil)

type imageURIs map[string]string

type cardFace struct {
	Name       string    `json:"name"`
	TypeLine   string    `json:"type_line"`
	OracleText string    `json:"oracle_text"`
	ImageURIs  imageURIs `json:"image_uris"`
}

type card struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ScryfallURI string     `json:"scryfall_uri"`
	TypeLine    string     `json:"type_line"`
	OracleText  string     `json:"oracle_text"`
	SetName     string     `json:"set_name"`
	Keywords    []string   `json:"keywords"`
	ImageURIs   imageURIs  `json:"image_uris"`
	CardFaces   []cardFace `json:"card_faces"`
}

type list struct {
	TotalCards *int   `json:"total_cards"`
	HasMore    *bool  `json:"has_more"`
	Data       []card `json:"data"`
}

type apiError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) searchURL(query, order string, page int) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if page < 1 {
		page = 1
	}
	v := url.Values{}
	v.Set("q", query)
	if order != "" {
		v.Set("order", order)
	}
	v.Set("page", strconv.Itoa(page))
	return strings.TrimSuffix(base, "/") + "/cards/search?" + v.Encode()
}

// Search implements search.Backend.
func (c *Client) Search(ctx context.Context, query, order string, page int) (_ *search.Result, err error) {
	if search.Blank(query) {
		return search.Empty(), nil
	}
	const op = "scryfall.Search"

	start := time.Now()
	defer func() {
		slog.DebugContext(
			ctx,
			"scryfall.Client.Search: HTTP GET",
			"query", query,
			"page", page,
			"took", time.Since(start),
			"err", err,
		)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, order, page), nil)
	if err != nil {
		return nil, errs.Backend(errs.ReasonBackendRejected, op, fmt.Errorf("failed to construct http request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, errs.Backend(errs.ReasonBackendUnavailable, op, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		var e apiError
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Code == "not_found" {
			return search.Empty(), nil
		}
		reason := errs.ReasonBackendRejected
		if resp.StatusCode >= 500 {
			reason = errs.ReasonBackendUnavailable
		}
		return nil, errs.Backend(reason, op, fmt.Errorf("code = %d, details = %q", resp.StatusCode, e.Details))
	}

	var l list
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, errs.Backend(errs.ReasonBackendDecode, op, err)
	}
	result := &search.Result{
		TotalCount: l.TotalCards,
		HasMore:    l.HasMore,
		Items:      make([]search.Item, 0, len(l.Data)),
	}
	for _, cd := range l.Data {
		result.Items = append(result.Items, cd.item())
	}
	return result, nil
}

// item maps a card object. Multi-faced cards without top-level images use
// the first face.
func (cd card) item() search.Item {
	it := search.Item{
		ID:            cd.ID,
		Name:          cd.Name,
		Tags:          cd.Keywords,
		DetailURL:     cd.ScryfallURI,
		Images:        cd.ImageURIs,
		Description:   cd.TypeLine,
		SecondaryText: cd.OracleText,
	}
	if len(cd.CardFaces) > 0 {
		face := cd.CardFaces[0]
		if len(it.Images) == 0 {
			it.Images = face.ImageURIs
		}
		if it.Description == "" {
			it.Description = face.TypeLine
		}
		if it.SecondaryText == "" {
			it.SecondaryText = face.OracleText
		}
	}
	if it.SecondaryText == "" {
		it.SecondaryText = cd.SetName
	}
	it.ThumbnailURL = it.Image(search.ImageSmall)
	return it
}

// DecodeBulk reads a Scryfall bulk data file (a JSON array of card objects)
// and maps every card. Cards without an id are skipped.
func DecodeBulk(r io.Reader) ([]search.Item, error) {
	dec := json.NewDecoder(r)
	var cards []card
	if err := dec.Decode(&cards); err != nil {
		return nil, errs.Backend(errs.ReasonBackendDecode, "scryfall.DecodeBulk", err)
	}
	items := make([]search.Item, 0, len(cards))
	for _, cd := range cards {
		if cd.ID == "" {
			continue
		}
		items = append(items, cd.item())
	}
	return items, nil
}
