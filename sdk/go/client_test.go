package prioritylinesdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankSendsBatchAndToken(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/rank", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var body struct {
			Projects []Project `json:"projects"`
			Now      string    `json:"now"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-02-01T00:00:00Z", body.Now)
		require.Len(t, body.Projects, 1)
		_ = json.NewEncoder(w).Encode(Decision{Ranked: []RankedProject{{Rank: 1, Project: body.Projects[0], Action: "accept_and_assign"}}})
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	c.BearerToken = "tok"
	d, err := c.Rank(context.Background(), []Project{{ID: "A"}}, now)
	require.NoError(t, err)
	require.Len(t, d.Ranked, 1)
	assert.Equal(t, "A", d.Ranked[0].Project.ID)
}

func TestErrorEnvelopeIsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"not_found","message":"project X not found"}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CheckProgress(context.Background(), "X")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
	assert.Equal(t, "project X not found", apiErr.Message)
}

func TestEventsPageQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "42", r.URL.Query().Get("cursor"))
		_ = json.NewEncoder(w).Encode(PaginatedEvents{Items: []Event{{ID: 41}}, NextCursor: "41"})
	}))
	defer srv.Close()

	page, err := New(srv.URL).EventsPage(context.Background(), 5, "42")
	require.NoError(t, err)
	assert.Equal(t, "41", page.NextCursor)
	assert.Len(t, page.Items, 1)
}
