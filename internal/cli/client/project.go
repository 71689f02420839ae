package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ProjectResponse mirrors the API's project payload.
type ProjectResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Domain      string   `json:"domain,omitempty"`
	Brand       string   `json:"brand"`
	Competitors []string `json:"competitors"`
	Keywords    []string `json:"keywords"`
	CreatedAt   string   `json:"created_at"`
}

func ProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage tracked projects",
		Long:  "List, inspect, and update brand tracking projects",
	}

	cmd.AddCommand(projectListCmd())
	cmd.AddCommand(projectGetCmd())
	cmd.AddCommand(projectUpdateCmd())
	cmd.AddCommand(projectDeleteCmd())

	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Root().PersistentFlags().GetBool("output")

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/projects")
			if err != nil {
				return err
			}

			var projects []ProjectResponse
			if err := json.Unmarshal(resp.Data, &projects); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(projects, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(projects) == 0 {
				fmt.Println("No projects found")
				return nil
			}
			for _, p := range projects {
				fmt.Printf("%s  %s (brand: %s, %d keywords)\n", p.ID, p.Name, p.Brand, len(p.Keywords))
			}
			return nil
		},
	}
}

func projectGetCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a project's configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Root().PersistentFlags().GetBool("output")

			id, err := resolveProjectID(projectID)
			if err != nil {
				return err
			}

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/projects/" + id)
			if err != nil {
				return err
			}

			var p ProjectResponse
			if err := json.Unmarshal(resp.Data, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(p, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Project: %s (%s)\n", p.Name, p.ID)
			fmt.Printf("Brand: %s\n", p.Brand)
			if p.Domain != "" {
				fmt.Printf("Domain: %s\n", p.Domain)
			}
			fmt.Printf("Competitors: %s\n", strings.Join(p.Competitors, ", "))
			fmt.Printf("Keywords: %s\n", strings.Join(p.Keywords, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")

	return cmd
}

func projectUpdateCmd() *cobra.Command {
	var (
		projectID   string
		name        string
		brand       string
		domainName  string
		competitors []string
		keywords    []string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a project's configuration",
		Long:  "Updates project fields. Keyword and competitor lists are replaced, not merged.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Root().PersistentFlags().GetBool("output")

			id, err := resolveProjectID(projectID)
			if err != nil {
				return err
			}

			body := map[string]interface{}{}
			if name != "" {
				body["name"] = name
			}
			if brand != "" {
				body["brand"] = brand
			}
			if domainName != "" {
				body["domain"] = domainName
			}
			if cmd.Flags().Changed("competitor") {
				body["competitors"] = competitors
			}
			if cmd.Flags().Changed("keyword") {
				body["keywords"] = keywords
			}
			if len(body) == 0 {
				return fmt.Errorf("nothing to update")
			}

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Put("/projects/"+id, body)
			if err != nil {
				return err
			}

			var p ProjectResponse
			if err := json.Unmarshal(resp.Data, &p); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(p, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Project %s updated\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")
	cmd.Flags().StringVar(&name, "name", "", "New project name")
	cmd.Flags().StringVar(&brand, "brand", "", "New brand name")
	cmd.Flags().StringVar(&domainName, "domain", "", "New brand domain")
	cmd.Flags().StringSliceVar(&competitors, "competitor", nil, "Competitor name (repeatable, replaces the list)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Keyword (repeatable, replaces the list)")

	return cmd
}

func projectDeleteCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project and its check history",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveProjectID(projectID)
			if err != nil {
				return err
			}

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			if _, err := api.Delete("/projects/" + id); err != nil {
				return err
			}

			fmt.Printf("Project %s deleted\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")

	return cmd
}
