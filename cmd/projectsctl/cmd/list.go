package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ons3/Pfe-Project-Final/internal/adapter/graphql"
	"github.com/ons3/Pfe-Project-Final/internal/adapter/memory"
	"github.com/ons3/Pfe-Project-Final/internal/config"
	"github.com/ons3/Pfe-Project-Final/internal/domain/fetch"
	domainproject "github.com/ons3/Pfe-Project-Final/internal/domain/project"
	projectsvc "github.com/ons3/Pfe-Project-Final/internal/service/project"
)

var (
	listEndpoint string
	listToken    string
	listTimeout  time.Duration
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every project with its teams",
	Long: `Run the GetProjects query once against the data source and print the
result. Flags override GRAPHQL_ENDPOINT, GRAPHQL_TOKEN and GRAPHQL_TIMEOUT,
read from the environment or a .env file.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listEndpoint, "endpoint", "", "GraphQL endpoint URL (default $GRAPHQL_ENDPOINT)")
	listCmd.Flags().StringVar(&listToken, "token", "", "bearer token (default $GRAPHQL_TOKEN)")
	listCmd.Flags().DurationVar(&listTimeout, "timeout", 0, "request timeout (default $GRAPHQL_TIMEOUT or 15s)")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	overrides := map[string]string{
		"GRAPHQL_ENDPOINT": listEndpoint,
		"GRAPHQL_TOKEN":    listToken,
	}
	if cmd.Flags().Changed("timeout") {
		overrides["GRAPHQL_TIMEOUT"] = listTimeout.String()
	}
	gc, err := config.ParseGraphQL(overrides)
	if err != nil {
		return fmt.Errorf("no usable data source (pass --endpoint or set GRAPHQL_ENDPOINT): %w", err)
	}

	ctx := cmd.Context()
	if gc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.Timeout)
		defer cancel()
	}

	client := graphql.NewClient(gc.Endpoint, gc.Token, &http.Client{})
	svc := projectsvc.NewService(client, memory.NewCache(0), memory.NewEventBus(), nil, projectsvc.Config{Timeout: gc.Timeout})

	projects, err := svc.FetchProjects(ctx, fetch.PolicyNetworkOnly).Result(ctx)
	if err != nil {
		return fmt.Errorf("fetch projects: %w", err)
	}

	switch output {
	case "json":
		return writeJSON(cmd.OutOrStdout(), projects)
	case "table", "":
		return writeTable(cmd.OutOrStdout(), projects)
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func writeJSON(out io.Writer, projects []domainproject.Project) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(projects)
}

func writeTable(out io.Writer, projects []domainproject.Project) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "ID\tNAME\tSTATUS\tSTART\tEND\tTEAMS\n")
	fmt.Fprintf(w, "--\t----\t------\t-----\t---\t-----\n")
	for _, p := range projects {
		end := "-"
		if p.EndDate != nil {
			end = p.EndDate.String()
		}
		teams := make([]string, 0, len(p.Teams))
		for _, t := range p.Teams {
			teams = append(teams, t.Name)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, orDash(string(p.Status)), p.StartDate, end, orDash(strings.Join(teams, ", ")))
	}
	fmt.Fprintf(w, "\n%d project(s)\n", len(projects))
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
