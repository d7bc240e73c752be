package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/custodia-labs/remarkable-pocket/internal/core/domain"
	"github.com/custodia-labs/remarkable-pocket/internal/core/ports/driven"
	"github.com/custodia-labs/remarkable-pocket/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.ArticleSource = (*Client)(nil)

// Client reads unread articles and archives read ones.
type Client struct {
	transport   *transport
	credentials driven.CredentialsStore
	tag         string
}

// NewClient creates a client. The access token is read from credentials
// on every request. An empty tag returns all unread articles.
func NewClient(baseURL string, credentials driven.CredentialsStore, tag string) *Client {
	return &Client{
		transport:   newTransport(baseURL),
		credentials: credentials,
		tag:         tag,
	}
}

type getRequest struct {
	ConsumerKey string `json:"consumer_key"`
	AccessToken string `json:"access_token"`
	State       string `json:"state"`
	Sort        string `json:"sort"`
	ContentType string `json:"contentType"`
	DetailType  string `json:"detailType"`
	Tag         string `json:"tag,omitempty"`
}

type item struct {
	ItemID        string `json:"item_id"`
	ResolvedID    string `json:"resolved_id"`
	GivenURL      string `json:"given_url"`
	ResolvedURL   string `json:"resolved_url"`
	GivenTitle    string `json:"given_title"`
	ResolvedTitle string `json:"resolved_title"`
	SortID        int    `json:"sort_id"`
}

type getResponse struct {
	Status int `json:"status"`
	// List is an object keyed by item id, or an empty array when there
	// are no items.
	List json.RawMessage `json:"list"`
}

// Unread returns unread articles, newest first.
func (c *Client) Unread(ctx context.Context) ([]domain.Article, error) {
	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}

	var resp getResponse
	err = c.transport.post(ctx, "/v3/get", getRequest{
		ConsumerKey: ConsumerKey,
		AccessToken: token,
		State:       "unread",
		Sort:        "newest",
		ContentType: "article",
		DetailType:  "simple",
		Tag:         c.tag,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("get unread articles: %w", err)
	}

	items, err := parseItems(resp.List)
	if err != nil {
		return nil, fmt.Errorf("get unread articles: %w", err)
	}

	articles := make([]domain.Article, 0, len(items))
	for _, it := range items {
		a := toArticle(it)
		if a.Title == "" || a.URL == "" {
			logger.Debug("Skipping Pocket item %s without title or URL.", it.ItemID)
			continue
		}
		articles = append(articles, a)
	}
	logger.Debug("Pocket returned %d unread article(s).", len(articles))
	return articles, nil
}

// parseItems decodes the item map and orders it by sort_id, since JSON
// object order is not preserved.
func parseItems(raw json.RawMessage) ([]item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '[' || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var byID map[string]item
	if err := json.Unmarshal(raw, &byID); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	items := make([]item, 0, len(byID))
	for id, it := range byID {
		if it.ItemID == "" {
			it.ItemID = id
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortID != items[j].SortID {
			return items[i].SortID < items[j].SortID
		}
		return lessID(items[i].ItemID, items[j].ItemID)
	})
	return items, nil
}

func lessID(a, b string) bool {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return x < y
}

func toArticle(it item) domain.Article {
	url := it.ResolvedURL
	if url == "" {
		url = it.GivenURL
	}
	title := it.ResolvedTitle
	if title == "" {
		title = it.GivenTitle
	}
	return domain.NewArticle(it.ItemID, url, title)
}

type action struct {
	Action string `json:"action"`
	ItemID string `json:"item_id"`
}

type sendRequest struct {
	ConsumerKey string   `json:"consumer_key"`
	AccessToken string   `json:"access_token"`
	Actions     []action `json:"actions"`
}

type sendResponse struct {
	Status        int    `json:"status"`
	ActionResults []bool `json:"action_results"`
}

// Archive moves an article out of the unread list.
func (c *Client) Archive(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty article id", domain.ErrInvalidInput)
	}
	token, err := c.accessToken()
	if err != nil {
		return err
	}

	var resp sendResponse
	err = c.transport.post(ctx, "/v3/send", sendRequest{
		ConsumerKey: ConsumerKey,
		AccessToken: token,
		Actions:     []action{{Action: "archive", ItemID: id}},
	}, &resp)
	if err != nil {
		return fmt.Errorf("archive %s: %w", id, err)
	}
	if resp.Status != 1 || (len(resp.ActionResults) > 0 && !resp.ActionResults[0]) {
		return fmt.Errorf("archive %s: pocket rejected the action", id)
	}
	return nil
}

func (c *Client) accessToken() (string, error) {
	token := c.credentials.PocketAccessToken()
	if token == "" {
		return "", fmt.Errorf("%w: no Pocket access token", domain.ErrAuthRequired)
	}
	return token, nil
}
