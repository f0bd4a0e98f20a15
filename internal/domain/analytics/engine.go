// Package analytics computes per-user, per-department and per-project
// performance summaries from raw task records, caches the computed
// report and keeps it refreshed on an interval.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"taskboard/internal/domain/core"
	"taskboard/internal/platform/metrics"
)

// DataSource is the read surface the engine aggregates over. Each call
// may fail with a transport error; the engine treats that as "no data
// for this entity" and moves on.
type DataSource interface {
	TasksAssignedTo(ctx context.Context, userID string) ([]core.Task, error)
	TasksForUsers(ctx context.Context, userIDs []string) ([]core.Task, error)
	TasksForProject(ctx context.Context, projectID string) ([]core.Task, error)
	ProjectMembers(ctx context.Context, projectID string) ([]string, error)
	ProjectExpenses(ctx context.Context, projectID string) ([]core.Expense, error)
}

type Engine struct {
	src DataSource
	now func() time.Time
}

func NewEngine(src DataSource) *Engine {
	return &Engine{src: src, now: time.Now}
}

// UserSummaries computes one summary per user, in input order. Users
// whose task fetch fails are skipped.
func (e *Engine) UserSummaries(ctx context.Context, users []core.User, projects []core.Project) ([]UserSummary, error) {
	responsible := make(map[string]string, len(projects))
	for _, p := range projects {
		responsible[p.ID] = p.ResponsibleUserID
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks, err := e.src.TasksAssignedTo(ctx, u.ID)
		if err != nil {
			slog.Warn("user task fetch failed, skipping user", "userId", u.ID, "err", err)
			metrics.RecordEntitySkipped("user")
			continue
		}

		s := UserSummary{
			UserID:     u.ID,
			Name:       u.Name,
			Department: u.Department,
			TotalTasks: len(tasks),
		}
		s.NotStarted, s.InProgress, s.Completed = countByState(tasks)
		s.CompletionRate = completionRate(s.Completed, s.TotalTasks)
		s.AssignedProjects = distinctProjects(tasks)
		for _, t := range tasks {
			if responsible[t.ProjectID] != "" && responsible[t.ProjectID] == u.ID {
				s.ResponsibleProjects++
			}
		}
		s.AverageCompletionDays = averageCompletionDays(tasks)
		s.LastActivity = lastActivity(tasks)
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// DepartmentSummaries groups users by department and aggregates each
// department's pooled task set, fetched in one batched query per
// department. Users without a department are left out.
func (e *Engine) DepartmentSummaries(ctx context.Context, users []core.User, projects []core.Project) ([]DepartmentSummary, error) {
	status := make(map[string]string, len(projects))
	for _, p := range projects {
		status[p.ID] = p.Status
	}

	byDept := make(map[string][]core.User)
	for _, u := range users {
		if u.Department == "" {
			continue
		}
		byDept[u.Department] = append(byDept[u.Department], u)
	}

	names := make([]string, 0, len(byDept))
	for name := range byDept {
		names = append(names, name)
	}
	sort.Strings(names)

	summaries := make([]DepartmentSummary, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		members := byDept[name]
		memberIDs := make([]string, len(members))
		for i, m := range members {
			memberIDs[i] = m.ID
		}

		pool, err := e.src.TasksForUsers(ctx, memberIDs)
		if err != nil {
			slog.Warn("department task fetch failed, skipping department", "department", name, "err", err)
			metrics.RecordEntitySkipped("department")
			continue
		}

		// The batched fetch returns each task once even when several
		// members share it; member rates are attributed through the
		// assignee lists.
		var rateSum float64
		for _, m := range members {
			mine := tasksAssignedTo(pool, m.ID)
			_, _, completed := countByState(mine)
			rateSum += float64(completionRate(completed, len(mine)))
		}

		s := DepartmentSummary{
			Department:  name,
			MemberCount: len(members),
			TotalTasks:  len(pool),
		}
		s.NotStarted, s.InProgress, s.Completed = countByState(pool)
		s.CompletionRate = completionRate(s.Completed, s.TotalTasks)
		s.AverageCompletionRate = int(math.Round(rateSum / float64(len(members))))
		s.TotalProjects = distinctProjects(pool)
		for _, t := range pool {
			if status[t.ProjectID] == core.ProjectStatusActive {
				s.ActiveProjects++
			}
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// ProjectSummaries computes one summary per project, in input order.
// A project whose task fetch fails is skipped; failed member or
// expense lookups degrade to empty data for that project.
func (e *Engine) ProjectSummaries(ctx context.Context, projects []core.Project, users []core.User) ([]ProjectSummary, error) {
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks, err := e.src.TasksForProject(ctx, p.ID)
		if err != nil {
			slog.Warn("project task fetch failed, skipping project", "projectId", p.ID, "err", err)
			metrics.RecordEntitySkipped("project")
			continue
		}

		s := ProjectSummary{
			ProjectID:  p.ID,
			Name:       p.Name,
			Status:     p.Status,
			TotalTasks: len(tasks),
		}
		s.NotStarted, s.InProgress, s.Completed = countByState(tasks)
		s.CompletionRate = completionRate(s.Completed, s.TotalTasks)

		members, err := e.src.ProjectMembers(ctx, p.ID)
		if err != nil {
			slog.Warn("project member fetch failed", "projectId", p.ID, "err", err)
		}
		s.MemberCount = len(members)

		if p.ResponsibleUserID != "" {
			s.ResponsibleUserID = p.ResponsibleUserID
			s.ResponsibleUserName = userNames[p.ResponsibleUserID]
		}

		s.BudgetUtilization = e.budgetUtilization(ctx, p)
		s.DeadlineStatus = deadlineStatus(p.EndDate, e.now())
		s.LastActivity = lastActivity(tasks)
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// budgetUtilization is spent-to-date expenses as a percentage of the
// project's initial budget, 0 when no budget is set. The converted
// amount is preferred over the raw amount when present.
func (e *Engine) budgetUtilization(ctx context.Context, p core.Project) float64 {
	if p.InitialBudget == nil || *p.InitialBudget <= 0 {
		return 0
	}
	expenses, err := e.src.ProjectExpenses(ctx, p.ID)
	if err != nil {
		slog.Warn("project expense fetch failed", "projectId", p.ID, "err", err)
		return 0
	}
	var total float64
	for _, x := range expenses {
		if x.ConvertedAmount != nil {
			total += *x.ConvertedAmount
		} else {
			total += x.Amount
		}
	}
	return total / *p.InitialBudget * 100
}

func deadlineStatus(endDate *time.Time, now time.Time) string {
	if endDate == nil {
		return DeadlineOnTime
	}
	if endDate.Before(now) {
		return DeadlineOverdue
	}
	daysUntil := int(math.Ceil(endDate.Sub(now).Hours() / 24))
	if daysUntil <= 7 {
		return DeadlineAtRisk
	}
	return DeadlineOnTime
}

func countByState(tasks []core.Task) (notStarted, inProgress, completed int) {
	for _, t := range tasks {
		switch t.State {
		case core.TaskStateNotStarted:
			notStarted++
		case core.TaskStateInProgress:
			inProgress++
		case core.TaskStateClosed:
			completed++
		}
	}
	return notStarted, inProgress, completed
}

// completionRate rounds half-up to the nearest integer percent.
func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func distinctProjects(tasks []core.Task) int {
	seen := make(map[string]struct{})
	for _, t := range tasks {
		if t.ProjectID != "" {
			seen[t.ProjectID] = struct{}{}
		}
	}
	return len(seen)
}

// averageCompletionDays is the rounded mean of target-minus-creation
// in days over closed tasks that have a target date, 0 when none
// qualify.
func averageCompletionDays(tasks []core.Task) int {
	var total float64
	count := 0
	for _, t := range tasks {
		if t.State != core.TaskStateClosed || t.TargetDate == nil {
			continue
		}
		total += t.TargetDate.Sub(t.CreatedAt).Hours() / 24
		count++
	}
	if count == 0 {
		return 0
	}
	return int(math.Round(total / float64(count)))
}

func tasksAssignedTo(tasks []core.Task, userID string) []core.Task {
	var mine []core.Task
	for _, t := range tasks {
		for _, id := range t.AssigneeIDs {
			if id == userID {
				mine = append(mine, t)
				break
			}
		}
	}
	return mine
}

func lastActivity(tasks []core.Task) *time.Time {
	var latest *time.Time
	for _, t := range tasks {
		created := t.CreatedAt
		if latest == nil || created.After(*latest) {
			latest = &created
		}
	}
	return latest
}
