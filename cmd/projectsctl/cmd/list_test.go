package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
)

const response = `{"data":{"projets":[{"idProjet":"p1","nom_projet":"Alpha","description_projet":"","date_debut_projet":"2024-01-01","date_fin_projet":null,"statut_projet":"active","equipes":[{"idEquipe":"t1","nom_equipe":"Core"},{"idEquipe":"t2","nom_equipe":"Ops"}]}]}}`

func newGraphQLServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		output = "table"
		listEndpoint, listToken, listTimeout = "", "", 0
		listCmd.Flags().Lookup("timeout").Changed = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestList_Table(t *testing.T) {
	srv := newGraphQLServer(t)

	out, err := execute(t, "list", "--endpoint", srv.URL, "--token", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "Core, Ops")
	assert.Contains(t, out, "1 project(s)")
}

func TestList_JSON(t *testing.T) {
	srv := newGraphQLServer(t)

	out, err := execute(t, "list", "--endpoint", srv.URL, "--token", "secret", "-o", "json")
	require.NoError(t, err)

	var got []domainproject.Project
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
	assert.Len(t, got[0].Teams, 2)
}

func TestList_NoEndpoint(t *testing.T) {
	t.Setenv("GRAPHQL_ENDPOINT", "")
	_, err := execute(t, "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRAPHQL_ENDPOINT")
}

func TestList_ReadsEnvironment(t *testing.T) {
	srv := newGraphQLServer(t)
	t.Setenv("GRAPHQL_ENDPOINT", srv.URL)
	t.Setenv("GRAPHQL_TOKEN", "secret")
	t.Setenv("GRAPHQL_TIMEOUT", "5s")

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha")
}

func TestList_BadTimeoutFromEnvironment(t *testing.T) {
	t.Setenv("GRAPHQL_ENDPOINT", "http://localhost:1/graphql")
	t.Setenv("GRAPHQL_TIMEOUT", "soon")

	_, err := execute(t, "list")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "projectsctl dev")
}
