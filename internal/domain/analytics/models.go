package analytics

import "time"

const (
	DeadlineOnTime  = "on_time"
	DeadlineAtRisk  = "at_risk"
	DeadlineOverdue = "overdue"
)

type UserSummary struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Department string `json:"department"`

	TotalTasks     int `json:"totalTasks"`
	NotStarted     int `json:"notStarted"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completionRate"`

	AssignedProjects int `json:"assignedProjects"`
	// ResponsibleProjects counts tasks whose project lists this user as
	// responsible, not distinct projects.
	ResponsibleProjects   int        `json:"responsibleProjects"`
	AverageCompletionDays int        `json:"averageCompletionDays"`
	LastActivity          *time.Time `json:"lastActivity,omitempty"`
}

type DepartmentSummary struct {
	Department  string `json:"department"`
	MemberCount int    `json:"memberCount"`

	TotalTasks     int `json:"totalTasks"`
	NotStarted     int `json:"notStarted"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completionRate"`

	// AverageCompletionRate is the mean of each member's own rate, which
	// differs from CompletionRate over the pooled task set.
	AverageCompletionRate int `json:"averageCompletionRate"`
	TotalProjects         int `json:"totalProjects"`
	// ActiveProjects counts tasks belonging to active projects, not
	// distinct projects.
	ActiveProjects int `json:"activeProjects"`
}

type ProjectSummary struct {
	ProjectID string `json:"projectId"`
	Name      string `json:"name"`
	Status    string `json:"status"`

	TotalTasks     int `json:"totalTasks"`
	NotStarted     int `json:"notStarted"`
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completionRate"`

	MemberCount         int        `json:"memberCount"`
	ResponsibleUserID   string     `json:"responsibleUserId,omitempty"`
	ResponsibleUserName string     `json:"responsibleUserName,omitempty"`
	BudgetUtilization   float64    `json:"budgetUtilization"`
	DeadlineStatus      string     `json:"deadlineStatus"`
	LastActivity        *time.Time `json:"lastActivity,omitempty"`
}

// Snapshot is what the dashboard consumer reads: the last published
// summaries plus refresh status. Stale summaries keep being served
// alongside a non-empty Error.
type Snapshot struct {
	Users       []UserSummary       `json:"users"`
	Departments []DepartmentSummary `json:"departments"`
	Projects    []ProjectSummary    `json:"projects"`
	LastUpdated *time.Time          `json:"lastUpdated,omitempty"`
	Loading     bool                `json:"loading"`
	Error       string              `json:"error,omitempty"`
}
