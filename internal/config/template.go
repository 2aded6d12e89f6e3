package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"kyklos/internal/models"
)

// templateFile is the on-disk YAML shape for a custom week template.
//
//	days:
//	  1:
//	    - title: Warm Up
//	    - title: Stretch
//	      description: 10 minutes
type templateFile struct {
	Days map[int][]models.TemplateTask `yaml:"days"`
}

// LoadWeekTemplate parses a custom seed template from a YAML file.
// Entries outside day slots 1..7 are rejected rather than silently
// dropped.
func LoadWeekTemplate(path string) (models.WeekTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	if len(file.Days) == 0 {
		return nil, fmt.Errorf("template %s defines no days", path)
	}

	template := make(models.WeekTemplate, len(file.Days))
	for index, tasks := range file.Days {
		if !models.ValidDayIndex(index) {
			return nil, fmt.Errorf("template %s: day index %d out of range 1..%d", path, index, models.CycleDayCount)
		}
		cleaned := make([]models.TemplateTask, 0, len(tasks))
		for _, task := range tasks {
			title := strings.TrimSpace(task.Title)
			if title == "" {
				return nil, fmt.Errorf("template %s: day %d has a task with no title", path, index)
			}
			cleaned = append(cleaned, models.TemplateTask{
				Title:       title,
				Description: strings.TrimSpace(task.Description),
			})
		}
		template[index] = cleaned
	}

	return template, nil
}
