package query_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ons3/Pfe-Project-Final/internal/domain/query"
)

func TestGetProjects_Shape(t *testing.T) {
	q := query.GetProjects
	assert.Equal(t, query.KindQuery, q.Kind())
	assert.Equal(t, "GetProjects", q.OperationName())
	assert.True(t, strings.HasPrefix(q.Document(), "query GetProjects {"))

	for _, field := range []string{
		"projets", "idProjet", "nom_projet", "description_projet",
		"date_debut_projet", "date_fin_projet", "statut_projet",
		"equipes", "idEquipe", "nom_equipe",
	} {
		assert.Contains(t, q.Document(), field)
	}
	// No variables are declared.
	assert.NotContains(t, q.Document(), "$")
}

func TestGetProjects_CopyIsEqual(t *testing.T) {
	c := query.GetProjects
	assert.True(t, c.Equal(query.GetProjects))
	assert.False(t, c.IsZero())
	assert.True(t, query.Descriptor{}.IsZero())
}

func TestKey(t *testing.T) {
	q := query.GetProjects
	assert.Equal(t, "GetProjects", q.Key(nil))
	assert.Equal(t, "GetProjects", q.Key(map[string]any{}))

	a := q.Key(map[string]any{"b": 2, "a": 1})
	b := q.Key(map[string]any{"a": 1, "b": 2})
	assert.Equal(t, a, b)
	assert.Equal(t, `GetProjects:{"a":1,"b":2}`, a)
}
