package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	now := time.Now()
	project := NewProject("proj1", "org1", "Acme Widgets Site", "acmewidgets.com", "Acme Widgets",
		[]string{"WidgetCo"}, []string{"best widgets"}, now)

	assert.Equal(t, "proj1", project.ID)
	assert.Equal(t, "org1", project.OrgID)
	assert.Equal(t, "Acme Widgets Site", project.Name)
	assert.Equal(t, "acmewidgets.com", project.Domain)
	assert.Equal(t, "Acme Widgets", project.Brand)
	assert.Equal(t, []string{"WidgetCo"}, project.Competitors)
	assert.Equal(t, []string{"best widgets"}, project.Keywords)
	assert.Equal(t, now, project.CreatedAt)
}

func TestValidateProject(t *testing.T) {
	now := time.Now()

	valid := func() *Project {
		return &Project{
			ID:          "proj1",
			OrgID:       "org1",
			Name:        "Acme Widgets Site",
			Domain:      "acmewidgets.com",
			Brand:       "Acme Widgets",
			Competitors: []string{"WidgetCo", "Widgetly"},
			Keywords:    []string{"best widgets"},
			CreatedAt:   now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(p *Project)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid project",
			mutate: func(p *Project) {},
		},
		{
			name:   "empty lists are fine",
			mutate: func(p *Project) { p.Competitors = nil; p.Keywords = nil },
		},
		{
			name:    "missing ID",
			mutate:  func(p *Project) { p.ID = "" },
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name:    "missing OrgID",
			mutate:  func(p *Project) { p.OrgID = "" },
			wantErr: true,
			errMsg:  "OrgID",
		},
		{
			name:    "missing Name",
			mutate:  func(p *Project) { p.Name = "" },
			wantErr: true,
			errMsg:  "Name",
		},
		{
			name:    "blank Brand",
			mutate:  func(p *Project) { p.Brand = "   " },
			wantErr: true,
			errMsg:  "Brand",
		},
		{
			name:    "empty keyword",
			mutate:  func(p *Project) { p.Keywords = []string{"best widgets", " "} },
			wantErr: true,
			errMsg:  "keyword",
		},
		{
			name:    "duplicate keyword case-insensitive",
			mutate:  func(p *Project) { p.Keywords = []string{"Best Widgets", "best widgets"} },
			wantErr: true,
			errMsg:  "duplicated",
		},
		{
			name:    "empty competitor",
			mutate:  func(p *Project) { p.Competitors = []string{""} },
			wantErr: true,
			errMsg:  "competitor",
		},
		{
			name:    "duplicate competitor",
			mutate:  func(p *Project) { p.Competitors = []string{"WidgetCo", "widgetco"} },
			wantErr: true,
			errMsg:  "duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)

			err := ValidateProject(p)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateProject_Nil(t *testing.T) {
	err := ValidateProject(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil")
}
