package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kyklos/internal/models"
)

// testStore creates a temporary migrated store for testing.
func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path, Options{AutoMigrate: true})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testTemplate() models.WeekTemplate {
	template := make(models.WeekTemplate, models.CycleDayCount)
	for index := 1; index <= models.CycleDayCount; index++ {
		template[index] = []models.TemplateTask{
			{Title: "Warm Up"},
			{Title: "Main Set", Description: "three rounds"},
		}
	}
	return template
}

// bootstrapCycle seeds a fresh cycle for the owner and returns its id
// with the days in index order.
func bootstrapCycle(t *testing.T, st *Store, ownerID string) (string, []models.Day) {
	t.Helper()
	ctx := context.Background()

	cycleID, err := st.EnsureActiveCycle(ctx, ownerID, testTemplate(), time.Now().UTC())
	if err != nil {
		t.Fatalf("ensure active cycle: %v", err)
	}
	days, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days for cycle: %v", err)
	}
	if len(days) != models.CycleDayCount {
		t.Fatalf("expected %d days, got %d", models.CycleDayCount, len(days))
	}
	return cycleID, days
}

func tasksForDay(t *testing.T, st *Store, dayID string) []models.Task {
	t.Helper()
	grouped, err := st.TasksForDays(context.Background(), []string{dayID})
	if err != nil {
		t.Fatalf("tasks for day: %v", err)
	}
	return grouped[dayID]
}

func completeAllDays(t *testing.T, st *Store, ownerID string, days []models.Day) {
	t.Helper()
	for _, day := range days {
		if err := st.SetDayCompletion(context.Background(), ownerID, day.ID, true); err != nil {
			t.Fatalf("complete day %d: %v", day.DayIndex, err)
		}
	}
}

func TestEnsureActiveCycleBootstrap(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")

	cycle, err := st.GetCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("get cycle: %v", err)
	}
	if cycle == nil {
		t.Fatal("expected cycle, got nil")
	}
	if cycle.SequenceNumber != 1 {
		t.Fatalf("expected sequence 1, got %d", cycle.SequenceNumber)
	}
	if cycle.Archived() {
		t.Fatal("fresh cycle must not be archived")
	}

	for _, day := range days {
		if day.Completed {
			t.Fatalf("day %d seeded as completed", day.DayIndex)
		}
		tasks := tasksForDay(t, st, day.ID)
		if len(tasks) != 2 {
			t.Fatalf("day %d: expected 2 seeded tasks, got %d", day.DayIndex, len(tasks))
		}
		if tasks[0].Title != "Warm Up" || tasks[1].Title != "Main Set" {
			t.Fatalf("day %d: unexpected task order %q, %q", day.DayIndex, tasks[0].Title, tasks[1].Title)
		}
		if tasks[1].Description != "three rounds" {
			t.Fatalf("expected description preserved, got %q", tasks[1].Description)
		}
	}
}

func TestEnsureActiveCycleSeedsDefaultRoutine(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, err := st.EnsureActiveCycle(ctx, "user-1", models.DefaultWeekTemplate(), time.Now().UTC())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	days, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}

	for _, day := range days {
		tasks := tasksForDay(t, st, day.ID)
		if len(tasks) != 8 {
			t.Fatalf("day %d: expected the 8 routine tasks, got %d", day.DayIndex, len(tasks))
		}
	}
	first := tasksForDay(t, st, days[0].ID)
	if first[0].Title != "Warm Up" {
		t.Fatalf("day 1 starts with %q, want Warm Up", first[0].Title)
	}

	count, err := st.CountArchivedCycles(ctx, "user-1")
	if err != nil {
		t.Fatalf("count archived: %v", err)
	}
	if count != 0 {
		t.Fatalf("fresh owner must have 0 archived cycles, got %d", count)
	}
}

func TestEnsureActiveCycleIdempotent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first, _ := bootstrapCycle(t, st, "user-1")
	second, err := st.EnsureActiveCycle(ctx, "user-1", testTemplate(), time.Now().UTC())
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if first != second {
		t.Fatalf("expected same cycle on re-ensure, got %s and %s", first, second)
	}

	days, err := st.DaysForCycle(ctx, first)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != models.CycleDayCount {
		t.Fatalf("expected %d days after re-ensure, got %d", models.CycleDayCount, len(days))
	}
	for _, day := range days {
		if got := len(tasksForDay(t, st, day.ID)); got != 2 {
			t.Fatalf("day %d: expected 2 tasks after re-ensure, got %d", day.DayIndex, got)
		}
	}
}

func TestEnsureActiveCycleSeedsOnlyTasklessDays(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	// First pass seeds only day 1; days 2..7 stay empty.
	partial := models.WeekTemplate{1: {{Title: "Original"}}}
	cycleID, err := st.EnsureActiveCycle(ctx, "user-1", partial, time.Now().UTC())
	if err != nil {
		t.Fatalf("ensure with partial template: %v", err)
	}

	if _, err := st.EnsureActiveCycle(ctx, "user-1", testTemplate(), time.Now().UTC()); err != nil {
		t.Fatalf("ensure with full template: %v", err)
	}

	days, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	for _, day := range days {
		tasks := tasksForDay(t, st, day.ID)
		if day.DayIndex == 1 {
			if len(tasks) != 1 || tasks[0].Title != "Original" {
				t.Fatalf("day 1 was reseeded: %+v", tasks)
			}
			continue
		}
		if len(tasks) != 2 {
			t.Fatalf("day %d: expected late seeding, got %d tasks", day.DayIndex, len(tasks))
		}
	}
}

func TestEnsureActiveCycleRepairsArchivedLatest(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first, _ := bootstrapCycle(t, st, "user-1")
	_, err := st.db.ExecContext(ctx, "UPDATE cycles SET completed_at = ? WHERE id = ?", formatTime(time.Now().UTC()), first)
	if err != nil {
		t.Fatalf("archive cycle directly: %v", err)
	}

	repaired, err := st.EnsureActiveCycle(ctx, "user-1", testTemplate(), time.Now().UTC())
	if err != nil {
		t.Fatalf("ensure after archive: %v", err)
	}
	if repaired == first {
		t.Fatal("expected a fresh cycle when the latest is archived")
	}

	cycle, err := st.GetCycle(ctx, repaired)
	if err != nil {
		t.Fatalf("get repaired cycle: %v", err)
	}
	if cycle.SequenceNumber != 2 {
		t.Fatalf("expected sequence 2, got %d", cycle.SequenceNumber)
	}
	if cycle.Archived() {
		t.Fatal("repaired cycle must be active")
	}
}

func TestEnsureActiveCycleConcurrent(t *testing.T) {
	st := testStore(t)

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			ids[slot], errs[slot] = st.EnsureActiveCycle(context.Background(), "user-1", testTemplate(), time.Now().UTC())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("workers disagree on active cycle: %s vs %s", ids[i], ids[0])
		}
	}

	days, err := st.DaysForCycle(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != models.CycleDayCount {
		t.Fatalf("expected exactly %d days, got %d", models.CycleDayCount, len(days))
	}
	for _, day := range days {
		if got := len(tasksForDay(t, st, day.ID)); got != 2 {
			t.Fatalf("day %d: expected 2 tasks, got %d", day.DayIndex, got)
		}
	}
}

func TestSetDayCompletionCascadesToTasks(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	day := days[0]

	if err := st.SetDayCompletion(ctx, "user-1", day.ID, true); err != nil {
		t.Fatalf("complete day: %v", err)
	}

	refreshed, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if !refreshed[0].Completed {
		t.Fatal("day not marked complete")
	}
	for _, task := range tasksForDay(t, st, day.ID) {
		if !task.Completed {
			t.Fatalf("task %q not cascaded to complete", task.Title)
		}
	}

	// Unchecking the day drags every task back down with it.
	if err := st.SetDayCompletion(ctx, "user-1", day.ID, false); err != nil {
		t.Fatalf("uncomplete day: %v", err)
	}
	refreshed, err = st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if refreshed[0].Completed {
		t.Fatal("day still complete after uncheck")
	}
	for _, task := range tasksForDay(t, st, day.ID) {
		if task.Completed {
			t.Fatalf("task %q still complete after day uncheck", task.Title)
		}
	}
}

func TestSetDayCompletionOnTasklessDay(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	partial := models.WeekTemplate{1: {{Title: "Only day one"}}}
	cycleID, err := st.EnsureActiveCycle(ctx, "user-1", partial, time.Now().UTC())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	days, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}

	// Day 2 has no tasks; the day-level override still applies.
	if err := st.SetDayCompletion(ctx, "user-1", days[1].ID, true); err != nil {
		t.Fatalf("complete taskless day: %v", err)
	}
	refreshed, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if !refreshed[1].Completed {
		t.Fatal("taskless day not marked complete")
	}
}

func TestSetTaskCompletionAggregatesDay(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	day := days[0]
	tasks := tasksForDay(t, st, day.ID)

	if err := st.SetTaskCompletion(ctx, "user-1", tasks[0].ID, true); err != nil {
		t.Fatalf("complete first task: %v", err)
	}
	refreshed, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if refreshed[0].Completed {
		t.Fatal("day completed before all tasks were")
	}

	if err := st.SetTaskCompletion(ctx, "user-1", tasks[1].ID, true); err != nil {
		t.Fatalf("complete second task: %v", err)
	}
	refreshed, err = st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if !refreshed[0].Completed {
		t.Fatal("day not completed after last task")
	}

	// Unchecking one task pulls the day back to incomplete.
	if err := st.SetTaskCompletion(ctx, "user-1", tasks[0].ID, false); err != nil {
		t.Fatalf("uncheck task: %v", err)
	}
	refreshed, err = st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if refreshed[0].Completed {
		t.Fatal("day still complete with an incomplete task")
	}
}

func TestSetTaskCompletionConcurrentSiblings(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	day := days[0]
	tasks := tasksForDay(t, st, day.ID)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	// Siblings toggled in parallel must never leave the day aggregate
	// computed from a stale view of the other task.
	const rounds = 20
	for round := 0; round < rounds; round++ {
		var wg sync.WaitGroup
		for i, task := range tasks {
			wg.Add(1)
			go func(taskID string, completed bool) {
				defer wg.Done()
				if err := st.SetTaskCompletion(ctx, "user-1", taskID, completed); err != nil {
					t.Errorf("round %d toggle task: %v", round, err)
				}
			}(task.ID, (round+i)%2 == 0)
		}
		wg.Wait()

		refreshed, err := st.DaysForCycle(ctx, cycleID)
		if err != nil {
			t.Fatalf("days: %v", err)
		}
		allDone := true
		for _, task := range tasksForDay(t, st, day.ID) {
			if !task.Completed {
				allDone = false
			}
		}
		if refreshed[0].Completed != allDone {
			t.Fatalf("round %d: day completed=%v but all tasks complete=%v",
				round, refreshed[0].Completed, allDone)
		}
	}
}

func TestTaskUncheckLeavesSiblingsAlone(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	day := days[0]

	// Day-level complete marks every task done.
	if err := st.SetDayCompletion(ctx, "user-1", day.ID, true); err != nil {
		t.Fatalf("complete day: %v", err)
	}

	tasks := tasksForDay(t, st, day.ID)
	if err := st.SetTaskCompletion(ctx, "user-1", tasks[0].ID, false); err != nil {
		t.Fatalf("uncheck task: %v", err)
	}

	refreshed, err := st.DaysForCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if refreshed[0].Completed {
		t.Fatal("day must drop to incomplete")
	}
	tasks = tasksForDay(t, st, day.ID)
	if tasks[0].Completed {
		t.Fatal("unchecked task still complete")
	}
	if !tasks[1].Completed {
		t.Fatal("sibling task must keep its completed state")
	}
}

func TestOwnershipGuard(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "owner")
	tasks := tasksForDay(t, st, days[0].ID)

	if err := st.SetDayCompletion(ctx, "intruder", days[0].ID, true); !errors.Is(err, models.ErrAccessDenied) {
		t.Fatalf("day toggle: expected ErrAccessDenied, got %v", err)
	}
	if err := st.SetTaskCompletion(ctx, "intruder", tasks[0].ID, true); !errors.Is(err, models.ErrAccessDenied) {
		t.Fatalf("task toggle: expected ErrAccessDenied, got %v", err)
	}
	if _, err := st.AdvanceCycle(ctx, "intruder", cycleID, time.Now().UTC()); !errors.Is(err, models.ErrAccessDenied) {
		t.Fatalf("advance: expected ErrAccessDenied, got %v", err)
	}
}

func TestToggleUnknownIDs(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	bootstrapCycle(t, st, "user-1")

	if err := st.SetDayCompletion(ctx, "user-1", "missing-day", true); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for day, got %v", err)
	}
	if err := st.SetTaskCompletion(ctx, "user-1", "missing-task", true); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for task, got %v", err)
	}
	if _, err := st.AdvanceCycle(ctx, "user-1", "missing-cycle", time.Now().UTC()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cycle, got %v", err)
	}
}

func TestArchivedCycleIsImmutable(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	tasks := tasksForDay(t, st, days[0].ID)
	completeAllDays(t, st, "user-1", days)

	if _, err := st.AdvanceCycle(ctx, "user-1", cycleID, time.Now().UTC()); err != nil {
		t.Fatalf("advance: %v", err)
	}

	if err := st.SetDayCompletion(ctx, "user-1", days[0].ID, false); !errors.Is(err, models.ErrCycleArchived) {
		t.Fatalf("day toggle on archived: expected ErrCycleArchived, got %v", err)
	}
	if err := st.SetTaskCompletion(ctx, "user-1", tasks[0].ID, false); !errors.Is(err, models.ErrCycleArchived) {
		t.Fatalf("task toggle on archived: expected ErrCycleArchived, got %v", err)
	}
	if _, err := st.AdvanceCycle(ctx, "user-1", cycleID, time.Now().UTC()); !errors.Is(err, models.ErrCycleArchived) {
		t.Fatalf("second advance: expected ErrCycleArchived, got %v", err)
	}
}

func TestAdvanceCycleRequiresAllDaysComplete(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	for _, day := range days[:models.CycleDayCount-1] {
		if err := st.SetDayCompletion(ctx, "user-1", day.ID, true); err != nil {
			t.Fatalf("complete day %d: %v", day.DayIndex, err)
		}
	}

	if _, err := st.AdvanceCycle(ctx, "user-1", cycleID, time.Now().UTC()); !errors.Is(err, models.ErrCycleNotReady) {
		t.Fatalf("expected ErrCycleNotReady, got %v", err)
	}

	// Refused advance must leave the cycle untouched.
	cycle, err := st.GetCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cycle.Archived() {
		t.Fatal("refused advance archived the cycle")
	}
	count, err := st.CountArchivedCycles(ctx, "user-1")
	if err != nil {
		t.Fatalf("count archived: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 archived cycles, got %d", count)
	}
}

func TestAdvanceCycleRollsOverTemplates(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	completeAllDays(t, st, "user-1", days)

	newCycleID, err := st.AdvanceCycle(ctx, "user-1", cycleID, now)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if newCycleID == "" || newCycleID == cycleID {
		t.Fatalf("unexpected successor id %q", newCycleID)
	}

	old, err := st.GetCycle(ctx, cycleID)
	if err != nil {
		t.Fatalf("get old: %v", err)
	}
	if !old.Archived() {
		t.Fatal("advanced cycle not archived")
	}

	next, err := st.GetCycle(ctx, newCycleID)
	if err != nil {
		t.Fatalf("get new: %v", err)
	}
	if next.SequenceNumber != old.SequenceNumber+1 {
		t.Fatalf("expected sequence %d, got %d", old.SequenceNumber+1, next.SequenceNumber)
	}
	if next.Archived() {
		t.Fatal("successor must start active")
	}

	newDays, err := st.DaysForCycle(ctx, newCycleID)
	if err != nil {
		t.Fatalf("new days: %v", err)
	}
	if len(newDays) != models.CycleDayCount {
		t.Fatalf("expected %d days, got %d", models.CycleDayCount, len(newDays))
	}
	for i, day := range newDays {
		if day.Completed {
			t.Fatalf("new day %d starts completed", day.DayIndex)
		}
		if day.DayIndex != i+1 {
			t.Fatalf("day index out of order: got %d at slot %d", day.DayIndex, i)
		}

		tasks := tasksForDay(t, st, day.ID)
		if len(tasks) != 2 {
			t.Fatalf("day %d: expected 2 cloned tasks, got %d", day.DayIndex, len(tasks))
		}
		if tasks[0].Title != "Warm Up" || tasks[1].Title != "Main Set" {
			t.Fatalf("day %d: clone lost order: %q, %q", day.DayIndex, tasks[0].Title, tasks[1].Title)
		}
		if tasks[1].Description != "three rounds" {
			t.Fatalf("clone lost description: %q", tasks[1].Description)
		}
		for _, task := range tasks {
			if task.Completed {
				t.Fatalf("cloned task %q must start incomplete", task.Title)
			}
		}
	}

	count, err := st.CountArchivedCycles(ctx, "user-1")
	if err != nil {
		t.Fatalf("count archived: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 archived cycle, got %d", count)
	}

	latest, err := st.LatestCycle(ctx, "user-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != newCycleID {
		t.Fatalf("latest cycle is %s, want %s", latest.ID, newCycleID)
	}
}

func TestAdvanceConcurrentSingleWinner(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	cycleID, days := bootstrapCycle(t, st, "user-1")
	completeAllDays(t, st, "user-1", days)

	const workers = 4
	results := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, results[slot] = st.AdvanceCycle(ctx, "user-1", cycleID, time.Now().UTC())
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, models.ErrCycleArchived):
		default:
			t.Fatalf("unexpected advance error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one successful advance, got %d", winners)
	}

	// Exactly one successor exists.
	latest, err := st.LatestCycle(ctx, "user-1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.SequenceNumber != 2 {
		t.Fatalf("expected sequence 2 after concurrent advance, got %d", latest.SequenceNumber)
	}
}

func TestCyclesArePerOwner(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	aliceCycle, _ := bootstrapCycle(t, st, "alice")
	bobCycle, _ := bootstrapCycle(t, st, "bob")
	if aliceCycle == bobCycle {
		t.Fatal("owners must not share a cycle")
	}

	latest, err := st.LatestCycle(ctx, "alice")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != aliceCycle {
		t.Fatalf("alice's latest is %s, want %s", latest.ID, aliceCycle)
	}
}
