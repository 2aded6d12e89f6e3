package config

import (
	"os"
	"path/filepath"
	"testing"

	"kyklos/internal/models"
)

func writeTemplateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}

func TestLoadWeekTemplate(t *testing.T) {
	path := writeTemplateFile(t, `
days:
  1:
    - title: Warm Up
    - title: Stretch
      description: 10 minutes
  3:
    - title: "  Run  "
`)

	template, err := LoadWeekTemplate(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	day1 := template.TasksFor(1)
	if len(day1) != 2 {
		t.Fatalf("expected 2 tasks for day 1, got %d", len(day1))
	}
	if day1[1].Title != "Stretch" || day1[1].Description != "10 minutes" {
		t.Fatalf("unexpected day 1 tasks: %+v", day1)
	}

	day3 := template.TasksFor(3)
	if len(day3) != 1 || day3[0].Title != "Run" {
		t.Fatalf("expected trimmed title, got %+v", day3)
	}

	if got := template.TasksFor(2); got != nil {
		t.Fatalf("expected no tasks for day 2, got %+v", got)
	}
}

func TestLoadWeekTemplateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "day out of range", content: "days:\n  8:\n    - title: Over\n"},
		{name: "zero day", content: "days:\n  0:\n    - title: Under\n"},
		{name: "empty title", content: "days:\n  1:\n    - title: \"  \"\n"},
		{name: "no days", content: "days: {}\n"},
		{name: "not yaml", content: "{{{{\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemplateFile(t, tt.content)
			if _, err := LoadWeekTemplate(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadWeekTemplateMissingFile(t *testing.T) {
	if _, err := LoadWeekTemplate(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigWeekTemplateFallsBackToDefault(t *testing.T) {
	cfg := Default()
	template, err := cfg.WeekTemplate()
	if err != nil {
		t.Fatalf("week template: %v", err)
	}
	for index := 1; index <= models.CycleDayCount; index++ {
		if len(template.TasksFor(index)) == 0 {
			t.Fatalf("default template missing day %d", index)
		}
	}
}
