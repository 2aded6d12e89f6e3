package server

import (
	"context"
	"errors"
	"time"

	"kyklos/internal/api"
	"kyklos/internal/models"
	"kyklos/internal/store"
)

// CycleService exposes the cycle-state operations to the HTTP layer.
// Every method takes the authenticated user id explicitly; there is no
// ambient identity below this point.
type CycleService struct {
	store    *store.Store
	template models.WeekTemplate
}

// NewCycleService constructs a CycleService seeding from template.
func NewCycleService(st *store.Store, template models.WeekTemplate) *CycleService {
	if template == nil {
		template = models.DefaultWeekTemplate()
	}
	return &CycleService{store: st, template: template}
}

// Dashboard bootstraps the user's active cycle and assembles the full
// projection: cycle, seven days with their tasks, and aggregate counts.
func (s *CycleService) Dashboard(ctx context.Context, userID string) (api.DashboardResponse, error) {
	var resp api.DashboardResponse

	cycleID, err := s.store.EnsureActiveCycle(ctx, userID, s.template, time.Now().UTC())
	if err != nil {
		return resp, mapCoreError(err, "Cycle not found", ErrCodeCycleNotFound)
	}

	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return resp, mapCoreError(err, "Cycle not found", ErrCodeCycleNotFound)
	}
	if cycle == nil {
		return resp, notFoundCode(errors.New("Cycle not found"), ErrCodeCycleNotFound)
	}

	days, err := s.store.DaysForCycle(ctx, cycleID)
	if err != nil {
		return resp, mapCoreError(err, "Cycle not found", ErrCodeCycleNotFound)
	}

	dayIDs := make([]string, 0, len(days))
	for _, day := range days {
		dayIDs = append(dayIDs, day.ID)
	}
	tasksByDay, err := s.store.TasksForDays(ctx, dayIDs)
	if err != nil {
		return resp, mapCoreError(err, "Cycle not found", ErrCodeCycleNotFound)
	}

	archived, err := s.store.CountArchivedCycles(ctx, userID)
	if err != nil {
		return resp, mapCoreError(err, "Cycle not found", ErrCodeCycleNotFound)
	}

	view := api.CycleView{
		ID:             cycle.ID,
		SequenceNumber: cycle.SequenceNumber,
		StartedAt:      cycle.StartedAt,
		CompletedAt:    cycle.CompletedAt,
		Days:           make([]api.DayView, 0, len(days)),
	}
	for _, day := range days {
		dayView := api.DayView{
			ID:        day.ID,
			DayNumber: day.DayIndex,
			Completed: day.Completed,
			Tasks:     make([]api.TaskView, 0, len(tasksByDay[day.ID])),
		}
		for _, task := range tasksByDay[day.ID] {
			dayView.Tasks = append(dayView.Tasks, api.TaskView{
				ID:          task.ID,
				Title:       task.Title,
				Description: task.Description,
				Completed:   task.Completed,
			})
		}
		if day.Completed {
			view.CompletedCount++
		}
		view.Days = append(view.Days, dayView)
	}

	resp.Cycle = view
	resp.PastCyclesCount = archived
	return resp, nil
}

// ToggleDay sets a day's completion and cascades it to every task under
// the day.
func (s *CycleService) ToggleDay(ctx context.Context, userID, dayID string, completed bool) error {
	err := s.store.SetDayCompletion(ctx, userID, dayID, completed)
	return mapCoreError(err, "Day not found", ErrCodeDayNotFound)
}

// ToggleTask sets a task's completion and recomputes the parent day.
func (s *CycleService) ToggleTask(ctx context.Context, userID, taskID string, completed bool) error {
	err := s.store.SetTaskCompletion(ctx, userID, taskID, completed)
	return mapCoreError(err, "Task not found", ErrCodeTaskNotFound)
}

// Advance archives the given cycle and starts its successor.
func (s *CycleService) Advance(ctx context.Context, userID, cycleID string) (string, error) {
	newCycleID, err := s.store.AdvanceCycle(ctx, userID, cycleID, time.Now().UTC())
	if err != nil {
		return "", mapCoreError(err, "Cycle not found", ErrCodeCycleNotFound)
	}
	return newCycleID, nil
}

// mapCoreError translates store sentinels into the HTTP error taxonomy.
// Messages match what the dashboard surfaces to the user.
func mapCoreError(err error, notFoundMessage string, notFoundErrCode int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound):
		return notFoundCode(errors.New(notFoundMessage), notFoundErrCode)
	case errors.Is(err, models.ErrAccessDenied):
		return forbidden(errors.New("Access denied"))
	case errors.Is(err, models.ErrCycleArchived):
		return conflictCode(errors.New("Cycle already archived"), ErrCodeCycleArchived)
	case errors.Is(err, models.ErrCycleNotReady):
		return conflictCode(errors.New("Complete all days before starting a new cycle"), ErrCodeCycleNotReady)
	case errors.Is(err, models.ErrSchemaMissing):
		return schemaMissing(models.ErrSchemaMissing)
	default:
		return storeFailure(err)
	}
}
