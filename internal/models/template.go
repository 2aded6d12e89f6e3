package models

// TemplateTask is one seed entry for a day slot.
type TemplateTask struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// WeekTemplate maps day_index (1..7) to the ordered tasks seeded into a
// day that has never had any. It is only consulted at first-ever
// seeding; cycle rollover clones the previous cycle's tasks instead.
type WeekTemplate map[int][]TemplateTask

// TasksFor returns the seed tasks for a day slot, or nil when the
// template has no entry for it.
func (t WeekTemplate) TasksFor(dayIndex int) []TemplateTask {
	if t == nil {
		return nil
	}
	return t[dayIndex]
}

// DefaultWeekTemplate returns the built-in seven-day training routine
// used when no custom template file is configured.
func DefaultWeekTemplate() WeekTemplate {
	titles := [CycleDayCount][]string{
		{
			"Warm Up",
			"None Enjoy",
			"Abs Excercise",
			"Boxing with dumbles + Air",
			"Boxing on Bag (100 punches)",
			"Kicks in Air",
			"100 PushUps",
			"Chest and triceps",
		},
		{
			"Warm Up",
			"None Enjoy",
			"Special Abs Excercise-1",
			"Boxing with dumbles + Air",
			"Slow Boxing, all 4",
			"Kicks on Boxing Bag",
			"100 PushUps",
			"Back and biceps",
		},
		{
			"Light Warm Up",
			"Running",
			"Abs Excercise",
			"Boxing with dumbles + Air",
			"None Enjoy",
			"None Enjoy",
			"Pull Ups",
			"Shoulders, forearms and abs",
		},
		{
			"Warm Up",
			"None Enjoy",
			"Special Abs Excercise-2",
			"Boxing with dumbles + Air",
			"Slow Boxing, all 4",
			"Kicks on Boxing Bag",
			"100 PushUps",
			"Chest and triceps",
		},
		{
			"Light Warm Up",
			"Running",
			"Abs Excercise",
			"Boxing with dumbles + Air",
			"None Enjoy",
			"None Enjoy",
			"Pull Ups",
			"Legs",
		},
		{
			"Warm Up",
			"None Enjoy",
			"Special Abs Excercise-2",
			"Boxing with dumbles + Air",
			"Boxing on Bag (100 punches)",
			"Kicks in Air",
			"100 PushUps",
			"Back and biceps",
		},
		{
			"Light Warm Up",
			"Sprint",
			"Abs Excercise",
			"Boxing with dumbles + Air",
			"Boxing on Bag (100 punches)",
			"None Enjoy",
			"100 PushUps",
			"Shoulders, forearms and triceps",
		},
	}

	template := make(WeekTemplate, CycleDayCount)
	for i, dayTitles := range titles {
		tasks := make([]TemplateTask, 0, len(dayTitles))
		for _, title := range dayTitles {
			tasks = append(tasks, TemplateTask{Title: title})
		}
		template[i+1] = tasks
	}
	return template
}
