package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aeotrackhq/aeotrack/internal/repository"
	"github.com/aeotrackhq/aeotrack/internal/service"
	"github.com/spf13/cobra"
)

func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed a demo project with check history",
		Long:  "Creates a demo project with two weeks of generated visibility checks so the dashboard has data before any real runs",
		RunE:  runSeed,
	}

	cmd.Flags().StringP("org", "o", "", "Organization ID or name (required)")
	cmd.Flags().StringP("output", "", "text", "Output format (text or json)")
	cmd.MarkFlagRequired("org")

	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	orgRef, _ := cmd.Flags().GetString("org")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	orgRepo := repository.NewOrgRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	checkRepo := repository.NewCheckRepository(pool)

	orgID, err := resolveOrgID(ctx, orgRepo, orgRef)
	if err != nil {
		return err
	}

	seedSvc := service.NewSeedService(projectRepo, checkRepo, &service.DefaultUUIDGenerator{})
	result, err := seedSvc.Seed(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"project_id":   result.Project.ID,
			"project_name": result.Project.Name,
			"brand":        result.Project.Brand,
			"checks":       result.Checks,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Seeded project '%s' (%s) with %d checks\n", result.Project.Name, result.Project.ID, result.Checks)
	}

	return nil
}
