package core

import "time"

const (
	TaskStateNotStarted = "not-started"
	TaskStateInProgress = "in-progress"
	TaskStateClosed     = "closed"

	ProjectStatusActive   = "active"
	ProjectStatusOnHold   = "on-hold"
	ProjectStatusFinished = "finished"
)

type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	TargetDate  *time.Time `json:"targetDate,omitempty"`
	ProjectID   string     `json:"projectId"`
	AssigneeIDs []string   `json:"assigneeIds"`
}

type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       string `json:"role,omitempty"`
}

type Project struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Status            string     `json:"status"`
	ResponsibleUserID string     `json:"responsibleUserId,omitempty"`
	InitialBudget     *float64   `json:"initialBudget,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

type Expense struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"projectId"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	ConvertedAmount *float64 `json:"convertedAmount,omitempty"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type ActivityEntry struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actorId,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
