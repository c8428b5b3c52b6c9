package project_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want domainproject.Date
	}{
		{"2024-01-01", domainproject.Date{Year: 2024, Month: time.January, Day: 1}},
		{"2024-03-15T00:00:00Z", domainproject.Date{Year: 2024, Month: time.March, Day: 15}},
		{"2024-03-15T23:30:00+02:00", domainproject.Date{Year: 2024, Month: time.March, Day: 15}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domainproject.ParseDate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "01/02/2024", "2024-13-01", "tomorrow"} {
		_, err := domainproject.ParseDate(in)
		assert.Error(t, err, in)
	}
}

func TestDate_JSON(t *testing.T) {
	d := domainproject.Date{Year: 2025, Month: time.June, Day: 9}
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-06-09"`, string(b))

	var back domainproject.Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	var zero domainproject.Date
	require.NoError(t, json.Unmarshal([]byte("null"), &zero))
	assert.True(t, zero.IsZero())
}

func TestDate_Before(t *testing.T) {
	a := domainproject.Date{Year: 2024, Month: time.January, Day: 1}
	b := domainproject.Date{Year: 2024, Month: time.January, Day: 2}
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
}

func TestStatus_Known(t *testing.T) {
	assert.True(t, domainproject.StatusActive.Known())
	// Server-defined values outside the local list are still usable.
	assert.False(t, domainproject.Status("archived").Known())
}

func TestProject_CloneDoesNotAlias(t *testing.T) {
	end := domainproject.Date{Year: 2024, Month: time.December, Day: 31}
	p := domainproject.Project{
		ID:      "p1",
		EndDate: &end,
		Teams:   []domainproject.Team{{ID: "t1", Name: "Core"}},
	}

	c := p.Clone()
	c.Teams[0].Name = "changed"
	c.EndDate.Day = 1

	assert.Equal(t, "Core", p.Teams[0].Name)
	assert.Equal(t, 31, p.EndDate.Day)
	assert.Equal(t, []string{"t1"}, p.TeamIDs())
}

func TestProject_CloneNilTeams(t *testing.T) {
	c := domainproject.Project{ID: "p1"}.Clone()
	assert.NotNil(t, c.Teams)
	assert.Empty(t, c.Teams)
	assert.True(t, c.Ongoing())
}
