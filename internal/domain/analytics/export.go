package analytics

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteCSV renders the snapshot as one spreadsheet-friendly document:
// a titled section of flattened rows per summary type.
func WriteCSV(w io.Writer, snap Snapshot) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"User Performance"},
		{"user_id", "name", "department", "total_tasks", "not_started", "in_progress", "completed", "completion_rate", "assigned_projects", "responsible_projects", "avg_completion_days", "last_activity"},
	}
	for _, u := range snap.Users {
		rows = append(rows, []string{
			u.UserID, u.Name, u.Department,
			strconv.Itoa(u.TotalTasks), strconv.Itoa(u.NotStarted), strconv.Itoa(u.InProgress), strconv.Itoa(u.Completed),
			strconv.Itoa(u.CompletionRate), strconv.Itoa(u.AssignedProjects), strconv.Itoa(u.ResponsibleProjects),
			strconv.Itoa(u.AverageCompletionDays), formatTime(u.LastActivity),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"Department Performance"},
		[]string{"department", "members", "total_tasks", "not_started", "in_progress", "completed", "completion_rate", "avg_completion_rate", "total_projects", "active_projects"},
	)
	for _, d := range snap.Departments {
		rows = append(rows, []string{
			d.Department, strconv.Itoa(d.MemberCount),
			strconv.Itoa(d.TotalTasks), strconv.Itoa(d.NotStarted), strconv.Itoa(d.InProgress), strconv.Itoa(d.Completed),
			strconv.Itoa(d.CompletionRate), strconv.Itoa(d.AverageCompletionRate),
			strconv.Itoa(d.TotalProjects), strconv.Itoa(d.ActiveProjects),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"Project Performance"},
		[]string{"project_id", "name", "status", "total_tasks", "not_started", "in_progress", "completed", "completion_rate", "members", "responsible_user", "budget_utilization", "deadline_status", "last_activity"},
	)
	for _, p := range snap.Projects {
		rows = append(rows, []string{
			p.ProjectID, p.Name, p.Status,
			strconv.Itoa(p.TotalTasks), strconv.Itoa(p.NotStarted), strconv.Itoa(p.InProgress), strconv.Itoa(p.Completed),
			strconv.Itoa(p.CompletionRate), strconv.Itoa(p.MemberCount), p.ResponsibleUserName,
			strconv.FormatFloat(p.BudgetUtilization, 'f', 2, 64), p.DeadlineStatus, formatTime(p.LastActivity),
		})
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
