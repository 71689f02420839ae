package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type exportResponse struct {
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	Rows        int    `json:"rows"`
}

func ExportCmd() *cobra.Command {
	var (
		projectID string
		days      int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export check history as CSV",
		Long:  "Renders the project's check history to CSV server-side; optionally downloads the file.",
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

			resp, err := api.Post("/exports", map[string]interface{}{
				"project_id": id,
				"days":       days,
			})
			if err != nil {
				return err
			}

			var result exportResponse
			if err := json.Unmarshal(resp.Data, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			if output != "" {
				if err := api.DownloadFile(result.DownloadURL, output); err != nil {
					return err
				}
				fmt.Printf("Exported %d checks to %s\n", result.Rows, output)
				return nil
			}

			if outputJSON {
				data, _ := json.MarshalIndent(result, "", "  ")
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Exported %d checks to %s\n", result.Rows, result.Key)
			fmt.Printf("Download: %s\n", result.DownloadURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Project ID (defaults to the current project)")
	cmd.Flags().IntVar(&days, "days", 0, "Lookback window in days (default 7)")
	cmd.Flags().StringVarP(&output, "file", "f", "", "Download the CSV to this path")

	return cmd
}
