// Package api is the REST client for the companion backend. All endpoints
// live under /api except the user endpoints, which the backend exposes
// unprefixed.
package api

import (
	"bytes"
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

	"github.com/google/uuid"

	"companion/internal/model"
)

// Error carries the backend's detail string for a non-2xx response.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api: unexpected status %d", e.Status)
}

type Client struct {
	base *url.URL
	http *http.Client
	log  *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api base url: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		base: u,
		http: &http.Client{Timeout: 20 * time.Second},
		log:  log,
	}, nil
}

// request performs one call and decodes the JSON body into out (skipped when
// out is nil). User endpoints bypass the /api prefix.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, body, out interface{}) error {
	prefix := "/api"
	if strings.HasPrefix(endpoint, "/users") {
		prefix = ""
	}

	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + prefix + endpoint
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var detail struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&detail); err == nil {
			apiErr.Detail = detail.Detail
		}
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", endpoint, err)
	}
	return nil
}

// NearbyPlaces fetches the GeoJSON places around a point filtered by mood,
// within radius meters.
func (c *Client) NearbyPlaces(ctx context.Context, lat, lng float64, mood string, radius int) ([]model.Place, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	query.Set("mood", mood)
	query.Set("radius", strconv.Itoa(radius))

	var raw json.RawMessage
	if err := c.request(ctx, http.MethodGet, "/map/nearby", query, nil, &raw); err != nil {
		return nil, err
	}
	places, err := model.ParsePlaces(raw)
	if err != nil {
		return nil, err
	}
	c.log.Debug("nearby places loaded", "count", len(places))
	return places, nil
}

func (c *Client) GroupsAtLocation(ctx context.Context, locationID string) ([]model.Group, error) {
	var groups []model.Group
	err := c.request(ctx, http.MethodGet, "/locations/"+url.PathEscape(locationID)+"/groups", nil, nil, &groups)
	return groups, err
}

type CreateGroupRequest struct {
	LocationID  string     `json:"location_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AgeRange    [2]int     `json:"age_range"`
	Date        string     `json:"date"`
	Host        model.User `json:"host"`
}

func (c *Client) CreateGroup(ctx context.Context, req CreateGroupRequest) (model.Group, error) {
	var group model.Group
	err := c.request(ctx, http.MethodPost, "/groups/create", nil, req, &group)
	return group, err
}

type joinGroupRequest struct {
	LocationID string     `json:"location_id"`
	GroupID    uuid.UUID  `json:"group_id"`
	User       model.User `json:"user"`
}

func (c *Client) JoinGroup(ctx context.Context, locationID string, groupID uuid.UUID, user model.User) error {
	return c.request(ctx, http.MethodPost, "/groups/join", nil, joinGroupRequest{
		LocationID: locationID,
		GroupID:    groupID,
		User:       user,
	}, nil)
}

func (c *Client) UserGroups(ctx context.Context, userID int) ([]model.Group, error) {
	var groups []model.Group
	err := c.request(ctx, http.MethodGet, "/users/"+strconv.Itoa(userID)+"/groups", nil, nil, &groups)
	return groups, err
}

type RegisterResponse struct {
	User model.User `json:"user"`
}

func (c *Client) RegisterUser(ctx context.Context, user model.User) (RegisterResponse, error) {
	var resp RegisterResponse
	err := c.request(ctx, http.MethodPost, "/users/register", nil, user, &resp)
	return resp, err
}

func (c *Client) ChatHistory(ctx context.Context, locationID string, groupID uuid.UUID, userID int) ([]model.ChatMessage, error) {
	query := url.Values{}
	query.Set("location_id", locationID)
	query.Set("group_id", groupID.String())
	query.Set("user_id", strconv.Itoa(userID))

	var messages []model.ChatMessage
	err := c.request(ctx, http.MethodGet, "/chat/history", query, nil, &messages)
	return messages, err
}

type sendMessageRequest struct {
	LocationID string     `json:"location_id"`
	GroupID    uuid.UUID  `json:"group_id"`
	User       model.User `json:"user"`
	Content    string     `json:"content"`
}

// SendMessage posts a chat message. Delivery to other members happens over
// the WebSocket channel; sending always goes through REST.
func (c *Client) SendMessage(ctx context.Context, locationID string, groupID uuid.UUID, user model.User, content string) error {
	return c.request(ctx, http.MethodPost, "/chat/send", nil, sendMessageRequest{
		LocationID: locationID,
		GroupID:    groupID,
		User:       user,
		Content:    content,
	}, nil)
}

type ChatbotReply struct {
	Reply string `json:"reply"`
}

func (c *Client) AskChatbot(ctx context.Context, userInput string, lat, lng float64) (ChatbotReply, error) {
	query := url.Values{}
	query.Set("user_input", userInput)
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	var reply ChatbotReply
	err := c.request(ctx, http.MethodGet, "/chatbot/user", query, nil, &reply)
	return reply, err
}
