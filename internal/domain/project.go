package domain

import (
	"fmt"
	"strings"
	"time"
)

// Project represents a tracked brand scoped to an organization. Its keywords
// are the queries checked against each configured engine, and its competitors
// are the names matched against answers for share-of-voice.
type Project struct {
	ID          string
	OrgID       string
	Name        string
	Domain      string
	Brand       string
	Competitors []string
	Keywords    []string
	CreatedAt   time.Time
}

// NewProject creates a new Project instance
func NewProject(id, orgID, name, domainName, brand string, competitors, keywords []string, createdAt time.Time) *Project {
	return &Project{
		ID:          id,
		OrgID:       orgID,
		Name:        name,
		Domain:      domainName,
		Brand:       brand,
		Competitors: competitors,
		Keywords:    keywords,
		CreatedAt:   createdAt,
	}
}

// ValidateProject validates a Project instance
func ValidateProject(p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}

	if p.ID == "" {
		return fmt.Errorf("project ID is required")
	}

	if p.OrgID == "" {
		return fmt.Errorf("project OrgID is required")
	}

	if p.Name == "" {
		return fmt.Errorf("project Name is required")
	}

	if strings.TrimSpace(p.Brand) == "" {
		return fmt.Errorf("project Brand is required")
	}

	if err := validateUniqueNonEmpty("competitor", p.Competitors); err != nil {
		return err
	}

	if err := validateUniqueNonEmpty("keyword", p.Keywords); err != nil {
		return err
	}

	return nil
}

func validateUniqueNonEmpty(kind string, values []string) error {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("project %s must not be empty", kind)
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("project %s %q is duplicated", kind, v)
		}
		seen[key] = struct{}{}
	}
	return nil
}
