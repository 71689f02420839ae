package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

type engineStatsResponse struct {
	Engine        string  `json:"engine"`
	TotalChecks   int     `json:"total_checks"`
	PresenceCount int     `json:"presence_count"`
	PresenceRate  float64 `json:"presence_rate"`
}

type trendPointResponse struct {
	Timestamp string `json:"timestamp"`
	Presence  bool   `json:"presence"`
}

type keywordTrendResponse struct {
	Keyword string               `json:"keyword"`
	Points  []trendPointResponse `json:"points"`
}

type voiceShareResponse struct {
	Name       string  `json:"name"`
	Mentions   int     `json:"mentions"`
	Proportion float64 `json:"proportion"`
}

type dashboardStatsResponse struct {
	TotalChecks   int                    `json:"total_checks"`
	PresenceCount int                    `json:"presence_count"`
	PresenceRate  float64                `json:"presence_rate"`
	EngineStats   []engineStatsResponse  `json:"engine_stats"`
	KeywordTrends []keywordTrendResponse `json:"keyword_trends"`
	ShareOfVoice  []voiceShareResponse   `json:"share_of_voice"`
}

func StatsCmd() *cobra.Command {
	var (
		projectID string
		days      int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the visibility dashboard",
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

			api, err := NewAPIClient()
			if err != nil {
				return err
			}

			resp, err := api.Get("/dashboard/stats?" + query.Encode())
			if err != nil {
				return err
			}

			var stats dashboardStatsResponse
			if err := json.Unmarshal(resp.Data, &stats); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if outputJSON {
				data, _ := json.MarshalIndent(stats, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Presence rate: %.1f%% (%d of %d checks)\n",
				stats.PresenceRate*100, stats.PresenceCount, stats.TotalChecks)

			if len(stats.EngineStats) > 0 {
				fmt.Println("\nBy engine:")
				for _, es := range stats.EngineStats {
					fmt.Printf("  %-12s %.1f%% (%d/%d)\n",
						es.Engine, es.PresenceRate*100, es.PresenceCount, es.TotalChecks)
				}
			}

			if len(stats.ShareOfVoice) > 0 {
				fmt.Println("\nShare of voice:")
				for _, v := range stats.ShareOfVoice {
					fmt.Printf("  %-20s %.1f%% (%d mentions)\n",
						v.Name, v.Proportion*100, v.Mentions)
				}
			}

			if len(stats.KeywordTrends) > 0 {
				fmt.Println("\nKeyword trends:")
				for _, t := range stats.KeywordTrends {
					present := 0
					for _, p := range t.Points {
						if p.Presence {
							present++
						}
					}
					fmt.Printf("  %-30q %d/%d present\n", t.Keyword, present, len(t.Points))
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")
	cmd.Flags().IntVar(&days, "days", 0, "Lookback window in days (default 7)")

	return cmd
}
