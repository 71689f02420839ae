//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func TestE2E_Bootstrap(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	var orgID string

	t.Run("create organization", func(t *testing.T) {
		resp, err := env.Post("/orgs", map[string]string{"name": "Bootstrap Org"}, "")
		if err != nil {
			t.Fatalf("failed to create org: %v", err)
		}

		var org struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(resp.Data, &org); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if org.ID == "" {
			t.Error("expected org ID to be set")
		}
		if org.Name != "Bootstrap Org" {
			t.Errorf("expected org name 'Bootstrap Org', got %q", org.Name)
		}
		orgID = org.ID
	})

	var token string

	t.Run("create API key", func(t *testing.T) {
		resp, err := env.Post("/apikeys", map[string]string{
			"org_id": orgID,
			"name":   "bootstrap-key",
		}, "")
		if err != nil {
			t.Fatalf("failed to create API key: %v", err)
		}

		var key struct {
			Token string `json:"token"`
			Name  string `json:"name"`
		}
		if err := json.Unmarshal(resp.Data, &key); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if !strings.HasPrefix(key.Token, "aeo_") {
			t.Errorf("expected token with aeo_ prefix, got %q", key.Token)
		}
		token = key.Token
	})

	t.Run("API key works for authentication", func(t *testing.T) {
		resp, err := env.Get("/projects", token)
		if err != nil {
			t.Fatalf("authenticated request failed: %v", err)
		}

		var projects []json.RawMessage
		if err := json.Unmarshal(resp.Data, &projects); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(projects) != 0 {
			t.Errorf("expected no projects yet, got %d", len(projects))
		}
	})

	t.Run("invalid API key returns 401", func(t *testing.T) {
		_, err := env.Get("/projects", "aeo_"+strings.Repeat("0", 64))
		if err == nil {
			t.Fatal("expected error for invalid key")
		}
		if !strings.Contains(err.Error(), "401") {
			t.Errorf("expected 401, got: %v", err)
		}
	})
}

func TestE2E_ProjectLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	var projectID string

	t.Run("create project", func(t *testing.T) {
		resp, err := env.Post("/projects", map[string]interface{}{
			"name":        "Acme Widgets Site",
			"domain":      "acmewidgets.com",
			"brand":       "Acme Widgets",
			"competitors": []string{"WidgetCo", "Widgetly"},
			"keywords":    []string{"best widgets", "widget pricing"},
		}, env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to create project: %v", err)
		}

		var project struct {
			ID       string   `json:"id"`
			Brand    string   `json:"brand"`
			Keywords []string `json:"keywords"`
		}
		if err := json.Unmarshal(resp.Data, &project); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if project.ID == "" {
			t.Fatal("expected project ID to be set")
		}
		if project.Brand != "Acme Widgets" {
			t.Errorf("expected brand 'Acme Widgets', got %q", project.Brand)
		}
		projectID = project.ID
	})

	t.Run("get project by ID", func(t *testing.T) {
		resp, err := env.Get("/projects/"+projectID, env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to get project: %v", err)
		}

		var project struct {
			ID          string   `json:"id"`
			Competitors []string `json:"competitors"`
		}
		if err := json.Unmarshal(resp.Data, &project); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(project.Competitors) != 2 {
			t.Errorf("expected 2 competitors, got %d", len(project.Competitors))
		}
	})

	t.Run("update replaces keyword list", func(t *testing.T) {
		resp, err := env.Put("/projects/"+projectID, map[string]interface{}{
			"name":        "Acme Widgets Site",
			"domain":      "acmewidgets.com",
			"brand":       "Acme Widgets",
			"competitors": []string{"WidgetCo"},
			"keywords":    []string{"widget reviews"},
		}, env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to update project: %v", err)
		}

		var project struct {
			Keywords []string `json:"keywords"`
		}
		if err := json.Unmarshal(resp.Data, &project); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(project.Keywords) != 1 || project.Keywords[0] != "widget reviews" {
			t.Errorf("expected keywords replaced wholesale, got %v", project.Keywords)
		}
	})

	t.Run("delete project", func(t *testing.T) {
		if _, err := env.Delete("/projects/"+projectID, env.APIKeyToken); err != nil {
			t.Fatalf("failed to delete project: %v", err)
		}

		if _, err := env.Get("/projects/"+projectID, env.APIKeyToken); err == nil {
			t.Fatal("expected 404 after delete")
		}
	})
}

func TestE2E_CheckRunAndDashboard(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	projectID := createTestProject(t, env)

	t.Run("run checks synchronously", func(t *testing.T) {
		resp, err := env.Post("/checks/run", map[string]string{"project_id": projectID}, env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to run checks: %v", err)
		}

		var result struct {
			Summary   string `json:"summary"`
			Succeeded int    `json:"succeeded"`
			Failed    int    `json:"failed"`
			Checks    []struct {
				Keyword        string   `json:"keyword"`
				Presence       bool     `json:"presence"`
				Position       *int     `json:"position"`
				CitationsCount int      `json:"citations_count"`
				ObservedURLs   []string `json:"observed_urls"`
			} `json:"checks"`
		}
		if err := json.Unmarshal(resp.Data, &result); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		// 2 keywords x 4 engines, scripted engine always answers.
		if result.Succeeded != 8 || result.Failed != 0 {
			t.Fatalf("expected 8 successes, got %d succeeded / %d failed: %s",
				result.Succeeded, result.Failed, result.Summary)
		}

		for _, c := range result.Checks {
			if !c.Presence {
				t.Errorf("expected brand present for %q", c.Keyword)
			}
			if c.Position == nil {
				t.Errorf("expected position for %q", c.Keyword)
			}
			if c.CitationsCount < 1 {
				t.Errorf("expected citations for %q", c.Keyword)
			}
			if len(c.ObservedURLs) == 0 {
				t.Errorf("expected observed URLs for %q", c.Keyword)
			}
		}
	})

	t.Run("history returns recorded checks", func(t *testing.T) {
		resp, err := env.Get(fmt.Sprintf("/checks/history?project_id=%s&limit=5", projectID), env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to fetch history: %v", err)
		}

		var page struct {
			Items   []json.RawMessage `json:"items"`
			Cursor  string            `json:"cursor"`
			HasMore bool              `json:"has_more"`
		}
		if err := json.Unmarshal(resp.Data, &page); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(page.Items) != 5 {
			t.Errorf("expected 5 items, got %d", len(page.Items))
		}
		if !page.HasMore || page.Cursor == "" {
			t.Error("expected more pages with a cursor")
		}

		// Second page picks up where the first stopped.
		resp, err = env.Get(fmt.Sprintf("/checks/history?project_id=%s&limit=5&cursor=%s", projectID, page.Cursor), env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to fetch second page: %v", err)
		}
		if err := json.Unmarshal(resp.Data, &page); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(page.Items) != 3 {
			t.Errorf("expected 3 remaining items, got %d", len(page.Items))
		}
		if page.HasMore {
			t.Error("expected final page")
		}
	})

	t.Run("dashboard aggregates the run", func(t *testing.T) {
		resp, err := env.Get(fmt.Sprintf("/dashboard/stats?project_id=%s&days=7", projectID), env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to fetch dashboard: %v", err)
		}

		var stats struct {
			TotalChecks  int     `json:"total_checks"`
			PresenceRate float64 `json:"presence_rate"`
			EngineStats  []struct {
				Engine string `json:"engine"`
			} `json:"engine_stats"`
			ShareOfVoice []struct {
				Name     string `json:"name"`
				Mentions int    `json:"mentions"`
			} `json:"share_of_voice"`
		}
		if err := json.Unmarshal(resp.Data, &stats); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if stats.TotalChecks != 8 {
			t.Errorf("expected 8 checks in window, got %d", stats.TotalChecks)
		}
		if stats.PresenceRate != 1.0 {
			t.Errorf("expected presence rate 1.0, got %f", stats.PresenceRate)
		}
		if len(stats.EngineStats) != 4 {
			t.Errorf("expected 4 engines, got %d", len(stats.EngineStats))
		}
		if len(stats.ShareOfVoice) == 0 || stats.ShareOfVoice[0].Name != "Acme Widgets" {
			t.Errorf("expected brand first in share of voice, got %+v", stats.ShareOfVoice)
		}
	})
}

func TestE2E_QueuedRun(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	projectID := createTestProject(t, env)

	resp, err := env.Post("/checks/enqueue", map[string]string{"project_id": projectID}, env.APIKeyToken)
	if err != nil {
		t.Fatalf("failed to enqueue checks: %v", err)
	}

	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Data, &job); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if job.Status != "pending" {
		t.Errorf("expected pending job, got %q", job.Status)
	}

	// The background worker polls every 200ms; wait for it to finish the run.
	deadline := time.Now().Add(15 * time.Second)
	for {
		resp, err := env.Get("/checks/jobs/"+job.ID, env.APIKeyToken)
		if err != nil {
			t.Fatalf("failed to fetch job: %v", err)
		}
		if err := json.Unmarshal(resp.Data, &job); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if job.Status == "completed" {
			break
		}
		if job.Status == "failed" {
			t.Fatalf("job failed unexpectedly")
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete in time, status %q", job.Status)
		}
		time.Sleep(200 * time.Millisecond)
	}

	histResp, err := env.Get(fmt.Sprintf("/checks/history?project_id=%s", projectID), env.APIKeyToken)
	if err != nil {
		t.Fatalf("failed to fetch history: %v", err)
	}
	var page struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(histResp.Data, &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(page.Items) != 8 {
		t.Errorf("expected 8 recorded checks from the queued run, got %d", len(page.Items))
	}
}

func TestE2E_ExportDownload(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()

	projectID := createTestProject(t, env)

	if _, err := env.Post("/checks/run", map[string]string{"project_id": projectID}, env.APIKeyToken); err != nil {
		t.Fatalf("failed to run checks: %v", err)
	}

	resp, err := env.Post("/exports", map[string]interface{}{
		"project_id": projectID,
		"days":       7,
	}, env.APIKeyToken)
	if err != nil {
		t.Fatalf("failed to create export: %v", err)
	}

	var export struct {
		Key         string `json:"key"`
		DownloadURL string `json:"download_url"`
		Rows        int    `json:"rows"`
	}
	if err := json.Unmarshal(resp.Data, &export); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if export.Rows != 8 {
		t.Errorf("expected 8 rows, got %d", export.Rows)
	}
	if !strings.HasPrefix(export.Key, "exports/"+projectID+"/checks-") {
		t.Errorf("unexpected export key %q", export.Key)
	}

	body, err := env.DownloadFile(export.DownloadURL)
	if err != nil {
		t.Fatalf("failed to download export: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) != 9 {
		t.Errorf("expected header plus 8 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,project_id,engine,keyword") {
		t.Errorf("unexpected CSV header: %q", lines[0])
	}
}

func TestE2E_CLIWorkflow(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()
	env.Bootstrap()
	env.BuildBinaries()

	workDir, err := os.MkdirTemp("", "aeotrack-cli-*")
	if err != nil {
		t.Fatalf("failed to create work dir: %v", err)
	}
	defer os.RemoveAll(workDir)

	t.Run("init creates project and local config", func(t *testing.T) {
		out, err := env.RunAeotrack(workDir, "init",
			"--project", "cli-widgets",
			"--brand", "Acme Widgets",
			"--competitor", "WidgetCo",
			"--keyword", "best widgets",
		)
		if err != nil {
			t.Fatalf("init failed: %v\n%s", err, out)
		}

		if _, err := os.Stat(workDir + "/.aeotrack"); err != nil {
			t.Errorf("expected .aeotrack directory: %v", err)
		}
	})

	t.Run("project list shows the new project", func(t *testing.T) {
		out, err := env.RunAeotrack(workDir, "project", "list")
		if err != nil {
			t.Fatalf("project list failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "cli-widgets") {
			t.Errorf("expected project in listing, got:\n%s", out)
		}
	})

	t.Run("check run reports the matrix", func(t *testing.T) {
		out, err := env.RunAeotrack(workDir, "check", "run")
		if err != nil {
			t.Fatalf("check run failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "4 of 4 checks completed") {
			t.Errorf("expected full run summary, got:\n%s", out)
		}
	})

	t.Run("stats renders the dashboard", func(t *testing.T) {
		out, err := env.RunAeotrack(workDir, "stats", "--days", "7")
		if err != nil {
			t.Fatalf("stats failed: %v\n%s", err, out)
		}
		if !strings.Contains(out, "Acme Widgets") {
			t.Errorf("expected brand in stats output, got:\n%s", out)
		}
	})
}

// createTestProject makes one project with two widget keywords and returns its ID
func createTestProject(t *testing.T, env *E2ETestEnv) string {
	t.Helper()

	resp, err := env.Post("/projects", map[string]interface{}{
		"name":        "Acme Widgets Site",
		"domain":      "acmewidgets.com",
		"brand":       "Acme Widgets",
		"competitors": []string{"WidgetCo", "Widgetly"},
		"keywords":    []string{"best widgets", "widget pricing"},
	}, env.APIKeyToken)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	var project struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &project); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return project.ID
}
