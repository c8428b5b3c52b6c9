package graphql_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ons3/Pfe-Project-Final/internal/adapter/graphql"
	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	"github.com/ons3/Pfe-Project-Final/internal/domain/query"
)

type projetsData struct {
	Projets []struct {
		IDProjet string `json:"idProjet"`
	} `json:"projets"`
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecute_SendsNamedQuery(t *testing.T) {
	var got map[string]any
	var auth, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"data":{"projets":[{"idProjet":"p1"}]}}`)
	}))
	defer srv.Close()

	c := graphql.NewClient(srv.URL, "secret", srv.Client())
	var out projetsData
	require.NoError(t, c.Execute(context.Background(), query.GetProjects, nil, &out))

	assert.Equal(t, "GetProjects", got["operationName"])
	assert.Equal(t, query.GetProjects.Document(), got["query"])
	assert.Empty(t, got["variables"])
	assert.Equal(t, "Bearer secret", auth)
	assert.Contains(t, contentType, "application/json")
	require.Len(t, out.Projets, 1)
	assert.Equal(t, "p1", out.Projets[0].IDProjet)
}

func TestExecute_NoTokenNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":{"projets":[]}}`)
	}))
	defer srv.Close()

	var out projetsData
	require.NoError(t, graphql.NewClient(srv.URL, "", nil).Execute(context.Background(), query.GetProjects, nil, &out))
	assert.Empty(t, out.Projets)
}

func TestExecute_ErrorClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"graphql errors", http.StatusOK, `{"data":null,"errors":[{"message":"not authorized"}]}`, fetch.ErrServer},
		{"partial data", http.StatusOK, `{"data":{"projets":[]},"errors":[{"message":"boom","path":["projets",0,"equipes"]}]}`, fetch.ErrServer},
		{"http 500 plain", http.StatusInternalServerError, `oops`, fetch.ErrServer},
		{"http 400 graphql", http.StatusBadRequest, `{"errors":[{"message":"Cannot query field"}]}`, fetch.ErrServer},
		{"not json", http.StatusOK, `<html>`, fetch.ErrProtocol},
		{"no data", http.StatusOK, `{}`, fetch.ErrProtocol},
		{"null data", http.StatusOK, `{"data":null}`, fetch.ErrProtocol},
		{"wrong shape", http.StatusOK, `{"data":{"projets":"nope"}}`, fetch.ErrProtocol},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serve(t, tc.status, tc.body)
			var out projetsData
			err := graphql.NewClient(srv.URL, "", srv.Client()).Execute(context.Background(), query.GetProjects, nil, &out)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestExecute_ReportsHTTPStatus(t *testing.T) {
	srv := serve(t, http.StatusBadGateway, `upstream down`)
	var out projetsData
	err := graphql.NewClient(srv.URL, "", srv.Client()).Execute(context.Background(), query.GetProjects, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrServer)
	assert.Contains(t, err.Error(), "502")
}

func TestExecute_KeepsCallerTransport(t *testing.T) {
	var used bool
	srv := serve(t, http.StatusOK, `{"data":{"projets":[]}}`)
	inner := srv.Client().Transport
	base := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		used = true
		return inner.RoundTrip(r)
	})}

	var out projetsData
	require.NoError(t, graphql.NewClient(srv.URL, "", base).Execute(context.Background(), query.GetProjects, nil, &out))
	assert.True(t, used)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestExecute_ServerMessagesIncludePath(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"errors":[{"message":"boom","path":["projets",0,"equipes"]}]}`)
	var out projetsData
	err := graphql.NewClient(srv.URL, "", srv.Client()).Execute(context.Background(), query.GetProjects, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom (at projets.0.equipes)")
}

func TestExecute_NetworkFailure(t *testing.T) {
	srv := serve(t, http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	var out projetsData
	err := graphql.NewClient(url, "", nil).Execute(context.Background(), query.GetProjects, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrNetwork)
}

func TestExecute_TimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out projetsData
	err := graphql.NewClient(srv.URL, "", srv.Client()).Execute(ctx, query.GetProjects, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrNetwork)
}

func TestExecute_CancelledContext(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"data":{"projets":[]}}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out projetsData
	err := graphql.NewClient(srv.URL, "", srv.Client()).Execute(ctx, query.GetProjects, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrCancelled)
}
