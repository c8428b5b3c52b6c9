package project

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
)

// projectsData mirrors the GetProjects selection set. Wire names stop here:
// nothing outside this file sees them.
type projectsData struct {
	Projets *[]wireProject `json:"projets"`
}

type wireProject struct {
	IDProjet          wireID     `json:"idProjet"`
	NomProjet         *string    `json:"nom_projet"`
	DescriptionProjet *string    `json:"description_projet"`
	DateDebutProjet   *string    `json:"date_debut_projet"`
	DateFinProjet     *string    `json:"date_fin_projet"`
	StatutProjet      *string    `json:"statut_projet"`
	Equipes           []wireTeam `json:"equipes"`
}

type wireTeam struct {
	IDEquipe  wireID  `json:"idEquipe"`
	NomEquipe *string `json:"nom_equipe"`
}

// wireID accepts a GraphQL ID serialized either as a string or a number.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = wireID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number, got %s", b)
	}
	*id = wireID(n.String())
	return nil
}

// mapProjects validates the decoded payload and converts it to domain records.
func mapProjects(op string, data projectsData) ([]domainproject.Project, error) {
	if data.Projets == nil {
		return nil, fetch.ProtocolError(op, "projets is missing or null", nil)
	}

	out := make([]domainproject.Project, 0, len(*data.Projets))
	for i, wp := range *data.Projets {
		id := strings.TrimSpace(string(wp.IDProjet))
		if id == "" {
			return nil, fetch.ProtocolError(op, fmt.Sprintf("projets[%d] has no idProjet", i), nil)
		}

		p := domainproject.Project{
			ID:          id,
			Name:        deref(wp.NomProjet),
			Description: deref(wp.DescriptionProjet),
			Status:      domainproject.Status(deref(wp.StatutProjet)),
			Teams:       make([]domainproject.Team, 0, len(wp.Equipes)),
		}

		start := deref(wp.DateDebutProjet)
		if start == "" {
			return nil, fetch.ProtocolError(op, fmt.Sprintf("project %s has no date_debut_projet", id), nil)
		}
		d, err := domainproject.ParseDate(start)
		if err != nil {
			return nil, fetch.ProtocolError(op, fmt.Sprintf("project %s", id), err)
		}
		p.StartDate = d

		if end := deref(wp.DateFinProjet); end != "" {
			d, err := domainproject.ParseDate(end)
			if err != nil {
				return nil, fetch.ProtocolError(op, fmt.Sprintf("project %s", id), err)
			}
			p.EndDate = &d
		}

		for j, wt := range wp.Equipes {
			tid := strings.TrimSpace(string(wt.IDEquipe))
			if tid == "" {
				return nil, fetch.ProtocolError(op, fmt.Sprintf("project %s: equipes[%d] has no idEquipe", id, j), nil)
			}
			p.Teams = append(p.Teams, domainproject.Team{ID: tid, Name: deref(wt.NomEquipe)})
		}

		out = append(out, p)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
