package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL, nil)
	require.NoError(t, err)
	return client, srv
}

func TestNearbyPlaces(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[11.57,48.13]},
			 "properties":{"id":"p1","name":"Biergarten"}}]}`))
	})

	places, err := client.NearbyPlaces(context.Background(), 48.1372, 11.5755, "🌍 Everything", 2000)
	require.NoError(t, err)

	assert.Equal(t, "/api/map/nearby", gotPath)
	assert.Contains(t, gotQuery, "lat=48.1372")
	assert.Contains(t, gotQuery, "radius=2000")
	require.Len(t, places, 1)
	assert.Equal(t, "Biergarten", places[0].Name)
}

func TestUserEndpointsSkipAPIPrefix(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	})

	_, err := client.UserGroups(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, "/users/999/groups", gotPath)
}

func TestRegisterUser(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/register", r.URL.Path)

		var u model.User
		require.NoError(t, json.NewDecoder(r.Body).Decode(&u))
		json.NewEncoder(w).Encode(RegisterResponse{User: u})
	})

	resp, err := client.RegisterUser(context.Background(), model.User{ID: 999, Name: "Demo User"})
	require.NoError(t, err)
	assert.Equal(t, "Demo User", resp.User.Name)
}

func TestJoinGroupPayload(t *testing.T) {
	groupID := uuid.New()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/groups/join", r.URL.Path)

		var body struct {
			LocationID string     `json:"location_id"`
			GroupID    uuid.UUID  `json:"group_id"`
			User       model.User `json:"user"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "marienplatz", body.LocationID)
		assert.Equal(t, groupID, body.GroupID)
		assert.Equal(t, 999, body.User.ID)
		w.Write([]byte(`{}`))
	})

	err := client.JoinGroup(context.Background(), "marienplatz", groupID, model.User{ID: 999})
	require.NoError(t, err)
}

func TestCreateGroup(t *testing.T) {
	groupID := uuid.New()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/groups/create", r.URL.Path)

		var req CreateGroupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "marienplatz", req.LocationID)
		assert.Equal(t, [2]int{20, 35}, req.AgeRange)

		json.NewEncoder(w).Encode(model.Group{
			ID:     groupID,
			Title:  req.Title,
			HostID: req.Host.ID,
		})
	})

	group, err := client.CreateGroup(context.Background(), CreateGroupRequest{
		LocationID:  "marienplatz",
		Title:       "Altstadt walk",
		Description: "Evening stroll",
		AgeRange:    [2]int{20, 35},
		Date:        "2026-09-01",
		Host:        model.User{ID: 999, Name: "Demo User"},
	})
	require.NoError(t, err)
	assert.Equal(t, groupID, group.ID)
	assert.Equal(t, 999, group.HostID)
}

func TestSendMessage(t *testing.T) {
	groupID := uuid.New()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/send", r.URL.Path)

		var body struct {
			LocationID string     `json:"location_id"`
			GroupID    uuid.UUID  `json:"group_id"`
			User       model.User `json:"user"`
			Content    string     `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, groupID, body.GroupID)
		assert.Equal(t, "Bin dabei!", body.Content)
		w.Write([]byte(`{}`))
	})

	err := client.SendMessage(context.Background(), "marienplatz", groupID, model.User{ID: 999}, "Bin dabei!")
	require.NoError(t, err)
}

func TestAskChatbot(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chatbot/user", r.URL.Path)
		assert.Equal(t, "wo gibt es kaffee", r.URL.Query().Get("user_input"))
		w.Write([]byte(`{"reply":"Probier das Café am Rathaus."}`))
	})

	reply, err := client.AskChatbot(context.Background(), "wo gibt es kaffee", 48.1372, 11.5755)
	require.NoError(t, err)
	assert.Contains(t, reply.Reply, "Café")
}

func TestChatHistoryQuery(t *testing.T) {
	groupID := uuid.New()
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/history", r.URL.Path)
		assert.Equal(t, "marienplatz", r.URL.Query().Get("location_id"))
		assert.Equal(t, groupID.String(), r.URL.Query().Get("group_id"))
		w.Write([]byte(`[{"sender_id":1,"sender_name":"Anna","content":"hi"}]`))
	})

	messages, err := client.ChatHistory(context.Background(), "marienplatz", groupID, 999)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "Anna", messages[0].SenderName)
}

func TestErrorCarriesBackendDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"user already exists"}`))
	})

	_, err := client.RegisterUser(context.Background(), model.User{ID: 1})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "user already exists", apiErr.Detail)
	assert.Contains(t, apiErr.Error(), "user already exists")
}

func TestErrorWithoutDetailBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.GroupsAtLocation(context.Background(), "x")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}
