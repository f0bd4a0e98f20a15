package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const taskColumns = `
    t.id::text, t.name, t.state, t.created_at, t.target_date,
    COALESCE(t.project_id::text, ''),
    COALESCE(array_agg(ta.user_id::text ORDER BY ta.user_id) FILTER (WHERE ta.user_id IS NOT NULL), '{}')
`

func scanTasks(rows pgx.Rows) ([]Task, error) {
	defer rows.Close()
	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Name, &t.State, &t.CreatedAt, &t.TargetDate, &t.ProjectID, &t.AssigneeIDs); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// TasksAssignedTo returns every task the user is assigned to, with the
// full assignee list on each task.
func (s *Store) TasksAssignedTo(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+taskColumns+`
    FROM tasks t
    LEFT JOIN task_assignees ta ON ta.task_id = t.id
    WHERE t.id IN (SELECT task_id FROM task_assignees WHERE user_id = $1)
    GROUP BY t.id
    ORDER BY t.created_at
  `, userID)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// TasksForUsers returns the pooled task set for a batch of user ids in
// a single query. A task assigned to several of the users appears once.
func (s *Store) TasksForUsers(ctx context.Context, userIDs []string) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+taskColumns+`
    FROM tasks t
    LEFT JOIN task_assignees ta ON ta.task_id = t.id
    WHERE t.id IN (SELECT task_id FROM task_assignees WHERE user_id = ANY($1))
    GROUP BY t.id
    ORDER BY t.created_at
  `, userIDs)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

func (s *Store) TasksForProject(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+taskColumns+`
    FROM tasks t
    LEFT JOIN task_assignees ta ON ta.task_id = t.id
    WHERE t.project_id = $1
    GROUP BY t.id
    ORDER BY t.created_at
  `, projectID)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

func (s *Store) ProjectMembers(ctx context.Context, projectID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT user_id::text
    FROM project_members
    WHERE project_id = $1
    ORDER BY user_id
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ProjectExpenses(ctx context.Context, projectID string) ([]Expense, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, project_id::text, amount, currency, converted_amount
    FROM expenses
    WHERE project_id = $1
    ORDER BY id
  `, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Amount, &e.Currency, &e.ConvertedAmount); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, name, COALESCE(department, ''), COALESCE(role, '')
    FROM users
    ORDER BY name, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Department, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, name, status,
           COALESCE(responsible_user_id::text, ''),
           initial_budget, start_date, end_date, created_at
    FROM projects
    ORDER BY name, id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.ResponsibleUserID, &p.InitialBudget, &p.StartDate, &p.EndDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
