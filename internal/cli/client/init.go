package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	aeotrackDir = ".aeotrack"
	configFile  = "config.yaml"
	envFile     = ".env"
)

type Config struct {
	ProjectID string `json:"project_id" yaml:"project_id"`
}

func InitCmd() *cobra.Command {
	var projectName string
	var brand string
	var domainName string
	var competitors []string
	var keywords []string
	var apiKey string
	var apiURL string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an aeotrack project",
		Long:  "Creates the .aeotrack/ directory, config.yaml, and .env with API key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runInit(initInput{
				projectName: projectName,
				brand:       brand,
				domainName:  domainName,
				competitors: competitors,
				keywords:    keywords,
				apiKey:      apiKey,
				apiURL:      apiURL,
			}, outputJSON)
		},
	}

	cmd.Flags().StringVar(&projectName, "project", "", "Project name (auto-generated from directory name if not provided)")
	cmd.Flags().StringVar(&brand, "brand", "", "Brand name to track (defaults to project name)")
	cmd.Flags().StringVar(&domainName, "domain", "", "Brand website domain")
	cmd.Flags().StringSliceVar(&competitors, "competitor", nil, "Competitor name (repeatable)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "Keyword to check (repeatable)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (default: http://localhost:8080)")

	return cmd
}

type initInput struct {
	projectName string
	brand       string
	domainName  string
	competitors []string
	keywords    []string
	apiKey      string
	apiURL      string
}

func runInit(in initInput, outputJSON bool) error {
	if _, err := os.Stat(aeotrackDir); err == nil {
		return fmt.Errorf(".aeotrack directory already exists")
	}

	_ = godotenv.Load()
	apiKey := in.apiKey
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	if apiKey == "" {
		fmt.Print("Enter API key: ")
		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = strings.TrimSpace(input)
		if apiKey == "" {
			return fmt.Errorf("API key is required")
		}
	}

	apiURL := in.apiURL
	if apiURL == "" {
		apiURL = os.Getenv(envAPIURL)
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	projectName := in.projectName
	if projectName == "" {
		cwd, _ := os.Getwd()
		projectName = filepath.Base(cwd)
	}

	brand := in.brand
	if brand == "" {
		brand = projectName
	}

	envData := fmt.Sprintf("AEOTRACK_API_KEY=%s\nAEOTRACK_API_URL=%s\n", apiKey, apiURL)
	if err := os.WriteFile(envFile, []byte(envData), 0600); err != nil {
		return fmt.Errorf("failed to create .env: %w", err)
	}

	api, err := NewAPIClientWithConfig(apiKey, apiURL)
	if err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to create API client: %w", err)
	}

	resp, err := api.Post("/projects", map[string]interface{}{
		"name":        projectName,
		"brand":       brand,
		"domain":      in.domainName,
		"competitors": in.competitors,
		"keywords":    in.keywords,
	})
	if err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to create project: %w", err)
	}

	var project struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Brand string `json:"brand"`
	}
	if err := json.Unmarshal(resp.Data, &project); err != nil {
		os.Remove(envFile)
		return fmt.Errorf("failed to parse project response: %w", err)
	}

	if err := os.MkdirAll(aeotrackDir, 0755); err != nil {
		return fmt.Errorf("failed to create .aeotrack directory: %w", err)
	}

	configPath := filepath.Join(aeotrackDir, configFile)
	configData := fmt.Sprintf("project_id: %s\nproject_name: %s\n", project.ID, project.Name)
	if err := os.WriteFile(configPath, []byte(configData), 0644); err != nil {
		return fmt.Errorf("failed to create config.yaml: %w", err)
	}

	if outputJSON {
		result := map[string]interface{}{
			"success":      true,
			"project_id":   project.ID,
			"project_name": project.Name,
			"brand":        project.Brand,
			"config":       configPath,
			"env":          envFile,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Initialized aeotrack project '%s' tracking brand '%s'\n", project.Name, project.Brand)
		fmt.Printf("Project ID: %s\n", project.ID)
		fmt.Printf("Config saved to %s\n", configPath)
	}

	return nil
}

// LoadConfig reads the config from .aeotrack/config.yaml.
func LoadConfig() (*Config, error) {
	configPath := filepath.Join(aeotrackDir, configFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not an aeotrack project (run 'aeotrack init' first)")
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Simple YAML parsing for single field
	var config Config
	for _, line := range splitLines(string(data)) {
		if len(line) > 12 && line[:12] == "project_id: " {
			config.ProjectID = line[12:]
			break
		}
	}

	if config.ProjectID == "" {
		return nil, fmt.Errorf("invalid config: project_id not found")
	}

	return &config, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// resolveProjectID returns the --project flag value or falls back to the
// project recorded by 'aeotrack init'.
func resolveProjectID(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}
	return config.ProjectID, nil
}
