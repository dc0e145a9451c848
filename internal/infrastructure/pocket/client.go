package pocket

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/ports"
)

const (
	// DefaultBaseURL is the public Pocket API endpoint.
	DefaultBaseURL = "https://getpocket.com"

	getPath  = "/v3/get"
	sendPath = "/v3/send"
)

// Client implements ports.ArticleService against the Pocket v3 API.
type Client struct {
	baseURL     string
	consumerKey string
	accessToken string
	http        *http.Client
}

var _ ports.ArticleService = (*Client)(nil)

// NewClient builds a client for one account. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, creds domain.Credentials, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		consumerKey: creds.ConsumerKey,
		accessToken: creds.AccessToken,
		http:        httpClient,
	}
}

type getRequest struct {
	ConsumerKey string `json:"consumer_key"`
	AccessToken string `json:"access_token"`
	Count       int    `json:"count,omitempty"`
	State       string `json:"state,omitempty"`
	Sort        string `json:"sort,omitempty"`
	DetailType  string `json:"detailType"`
}

type getResponse struct {
	Status int      `json:"status"`
	List   itemList `json:"list"`
}

type item struct {
	ItemID        string `json:"item_id"`
	ResolvedURL   string `json:"resolved_url"`
	GivenURL      string `json:"given_url"`
	ResolvedTitle string `json:"resolved_title"`
}

// itemList keeps the key order of the "list" object; Pocket sends [] when it is empty.
type itemList []item

func (l *itemList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "read list")
	}

	switch tok {
	case json.Delim('['):
		var items []item
		for dec.More() {
			var it item
			if err := dec.Decode(&it); err != nil {
				return errors.Wrap(err, "decode list item")
			}
			items = append(items, it)
		}
		*l = items
		return nil
	case json.Delim('{'):
		var items []item
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return errors.Wrap(err, "read item key")
			}
			key, _ := keyTok.(string)
			var it item
			if err := dec.Decode(&it); err != nil {
				return errors.Wrapf(err, "decode item %s", key)
			}
			if it.ItemID == "" {
				it.ItemID = key
			}
			items = append(items, it)
		}
		*l = items
		return nil
	case nil:
		*l = nil
		return nil
	default:
		return errors.Errorf("unexpected list token %v", tok)
	}
}

type sendAction struct {
	Action string `json:"action"`
	ItemID string `json:"item_id"`
	Tags   string `json:"tags,omitempty"`
}

type sendRequest struct {
	ConsumerKey string       `json:"consumer_key"`
	AccessToken string       `json:"access_token"`
	Actions     []sendAction `json:"actions"`
}

// Get retrieves saved items, preserving the order the API returned them in.
func (c *Client) Get(ctx context.Context, req domain.GetRequest) (domain.GetResponse, error) {
	body := getRequest{
		ConsumerKey: c.consumerKey,
		AccessToken: c.accessToken,
		Count:       req.Count,
		State:       string(req.State),
		Sort:        string(req.Sort),
		DetailType:  "simple",
	}

	var payload getResponse
	if err := c.post(ctx, getPath, body, &payload); err != nil {
		return domain.GetResponse{}, errors.Wrap(err, "pocket get")
	}

	resp := domain.GetResponse{List: make([]domain.Item, 0, len(payload.List))}
	for _, it := range payload.List {
		resp.List = append(resp.List, domain.Item{
			ID:          it.ItemID,
			ResolvedURL: it.ResolvedURL,
			GivenURL:    it.GivenURL,
			Title:       it.ResolvedTitle,
		})
	}
	return resp, nil
}

// Send submits a batch of tag actions.
func (c *Client) Send(ctx context.Context, actions []domain.TagAction) error {
	body := sendRequest{
		ConsumerKey: c.consumerKey,
		AccessToken: c.accessToken,
		Actions:     make([]sendAction, 0, len(actions)),
	}
	for _, action := range actions {
		body.Actions = append(body.Actions, sendAction{
			Action: string(action.Kind),
			ItemID: action.ItemID,
			Tags:   action.TagString(),
		})
	}

	if err := c.post(ctx, sendPath, body, nil); err != nil {
		return errors.Wrapf(err, "pocket send %d actions", len(actions))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail := resp.Header.Get("X-Error")
		if detail == "" {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			detail = strings.TrimSpace(string(snippet))
		}
		return errors.Errorf("pocket error %s: %s", resp.Status, detail)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
