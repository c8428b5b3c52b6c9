// Package query holds immutable GraphQL request descriptors.
package query

import (
	"encoding/json"
	"strings"
)

type Kind string

const KindQuery Kind = "query"

// Descriptor describes what to fetch. It never performs I/O and has no
// exported fields, so the shared package-level values cannot be altered.
type Descriptor struct {
	kind      Kind
	operation string
	document  string
}

func (d Descriptor) Kind() Kind { return d.kind }
func (d Descriptor) OperationName() string { return d.operation }
func (d Descriptor) Document() string { return d.document }
func (d Descriptor) IsZero() bool { return d.operation == "" }
func (d Descriptor) String() string { return string(d.kind) + " " + d.operation }
func (d Descriptor) Equal(o Descriptor) bool { return d == o }

// Key returns a stable cache/coalescing key for the descriptor and variables.
// Map keys are sorted by encoding/json, so equal variable sets give equal keys.
func (d Descriptor) Key(vars map[string]any) string {
	if len(vars) == 0 {
		return d.operation
	}
	b, err := json.Marshal(vars)
	if err != nil {
		return d.operation + ":" + err.Error()
	}
	return d.operation + ":" + string(b)
}

// GetProjects selects every project with its teams. Field names follow the
// upstream schema; internal/service/project renames them at decode time.
var GetProjects = Descriptor{
	kind:      KindQuery,
	operation: "GetProjects",
	document: strings.TrimSpace(`
query GetProjects {
    projets {
        idProjet
        nom_projet
        description_projet
        date_debut_projet
        date_fin_projet
        statut_projet
        equipes {
            idEquipe
            nom_equipe
        }
    }
}`),
}
