package pinterest

import (
	"context"
	"strings"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api", r.URL.Path)
		assert.Equal(t, "cute cats & dogs", r.URL.Query().Get("search"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":["https://i.pinimg.com/a.jpg","https://i.pinimg.com/b.jpg"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	urls, err := c.Search(context.Background(), "cute cats & dogs")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://i.pinimg.com/a.jpg", "https://i.pinimg.com/b.jpg"}, urls)
}

func TestClient_SearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusBadGateway, body: "bad gateway"},
		{name: "bad json", status: http.StatusOK, body: "<html>"},
		{name: "wrong shape", status: http.StatusOK, body: `{"data":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "cats")
			assert.Error(t, err)
		})
	}
}

func TestClient_SearchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	urls, err := NewClient(srv.URL, time.Second).Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestClient_SearchOversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":["` + strings.Repeat("a", maxResponseBytes) + `"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Search(context.Background(), "cats")
	assert.ErrorContains(t, err, "response exceeds")
}
