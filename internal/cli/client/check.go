package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// CheckResponse mirrors the API's check payload.
type CheckResponse struct {
	ID                   string   `json:"id"`
	ProjectID            string   `json:"project_id"`
	Engine               string   `json:"engine"`
	Keyword              string   `json:"keyword"`
	Presence             bool     `json:"presence"`
	Position             *int     `json:"position"`
	CitationsCount       int      `json:"citations_count"`
	ObservedURLs         []string `json:"observed_urls"`
	CompetitorsMentioned []string `json:"competitors_mentioned"`
	AnswerSnippet        string   `json:"answer_snippet"`
	Timestamp            string   `json:"timestamp"`
}

type checkFailureResponse struct {
	Keyword string `json:"keyword"`
	Engine  string `json:"engine"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type runChecksResponse struct {
	ProjectID string                 `json:"project_id"`
	StartedAt string                 `json:"started_at"`
	Summary   string                 `json:"summary"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Checks    []CheckResponse        `json:"checks"`
	Failures  []checkFailureResponse `json:"failures"`
}

type checkJobResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Status    string `json:"status"`
	Retries   int    `json:"retries"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
}

type historyResponse struct {
	Items   []CheckResponse `json:"items"`
	Cursor  string          `json:"cursor,omitempty"`
	HasMore bool            `json:"has_more"`
}

func CheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run and inspect visibility checks",
		Long:  "Run the keyword × engine matrix, queue runs, and browse history",
	}

	cmd.AddCommand(checkRunCmd())
	cmd.AddCommand(checkEnqueueCmd())
	cmd.AddCommand(checkJobCmd())
	cmd.AddCommand(checkHistoryCmd())

	return cmd
}

func checkRunCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run all checks for the project now",
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

			resp, err := api.Post("/checks/run", map[string]string{"project_id": id})
			if err != nil {
				return err
			}

			var result runChecksResponse
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Println(result.Summary)
			for _, c := range result.Checks {
				printCheck(c)
			}
			for _, f := range result.Failures {
				fmt.Printf("  FAILED %-12s %-30q %s: %s\n", f.Engine, f.Keyword, f.Kind, f.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")

	return cmd
}

func checkEnqueueCmd() *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a check run for the background worker",
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

			resp, err := api.Post("/checks/enqueue", map[string]string{"project_id": id})
			if err != nil {
				return err
			}

			var job checkJobResponse
			if err := json.Unmarshal(resp.Data, &job); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(job, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Queued check run %s (status: %s)\n", job.ID, job.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")

	return cmd
}

func checkJobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Show the status of a queued check run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Root().PersistentFlags().GetBool("output")

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/checks/jobs/" + args[0])
			if err != nil {
				return err
			}

			var job checkJobResponse
			if err := json.Unmarshal(resp.Data, &job); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(job, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Job %s: %s (retries: %d)\n", job.ID, job.Status, job.Retries)
			if job.Error != "" {
				fmt.Printf("Last error: %s\n", job.Error)
			}
			return nil
		},
	}
}

func checkHistoryCmd() *cobra.Command {
	var (
		projectID string
		days      int
		limit     int
		cursor    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recent checks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Root().PersistentFlags().GetBool("output")

			id, err := resolveProjectID(projectID)
			if err != nil {
				return err
			}

			query := url.Values{}
			query.Set("project_id", id)
			if days > 0 {
				query.Set("days", strconv.Itoa(days))
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if cursor != "" {
				query.Set("cursor", cursor)
			}

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/checks/history?" + query.Encode())
			if err != nil {
				return err
			}

			var history historyResponse
			if err := json.Unmarshal(resp.Data, &history); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(history, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			if len(history.Items) == 0 {
				fmt.Println("No checks found")
				return nil
			}
			for _, c := range history.Items {
				printCheck(c)
			}
			if history.HasMore && history.Cursor != "" {
				fmt.Printf("\nMore results available. Use --cursor %s\n", history.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")
	cmd.Flags().IntVar(&days, "days", 0, "Lookback window in days (default 7)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func printCheck(c CheckResponse) {
	presence := "absent"
	if c.Presence {
		if c.Position != nil {
			presence = fmt.Sprintf("present @%d", *c.Position)
		} else {
			presence = "present"
		}
	}
	fmt.Printf("  %s  %-12s %-30q %s (citations: %d)\n",
		c.Timestamp, c.Engine, c.Keyword, presence, c.CitationsCount)
}
