package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `SELECT id::text, name, created_at FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, name string) (*Department, error) {
	d := Department{ID: uuid.NewString(), Name: name}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (id, name)
    VALUES ($1, $2)
    RETURNING created_at
  `, d.ID, d.Name).Scan(&d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Store) CreateUser(ctx context.Context, name, department, role string) (*User, error) {
	u := User{ID: uuid.NewString(), Name: name, Department: department, Role: role}
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO users (id, name, department, role)
    VALUES ($1, $2, $3, $4)
  `, u.ID, u.Name, u.Department, u.Role); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateProject(ctx context.Context, p Project) (*Project, error) {
	p.ID = uuid.NewString()
	if p.Status == "" {
		p.Status = ProjectStatusActive
	}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO projects (id, name, status, responsible_user_id, initial_budget, start_date, end_date)
    VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7)
    RETURNING created_at
  `, p.ID, p.Name, p.Status, p.ResponsibleUserID, p.InitialBudget, p.StartDate, p.EndDate).Scan(&p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) AddProjectMember(ctx context.Context, projectID, userID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO project_members (project_id, user_id)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, projectID, userID)
	return err
}

func (s *Store) AddExpense(ctx context.Context, e Expense) (*Expense, error) {
	e.ID = uuid.NewString()
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO expenses (id, project_id, amount, currency, converted_amount)
    VALUES ($1, $2, $3, $4, $5)
  `, e.ID, e.ProjectID, e.Amount, e.Currency, e.ConvertedAmount); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) GetTask(ctx context.Context, taskID string) (*Task, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+taskColumns+`
    FROM tasks t
    LEFT JOIN task_assignees ta ON ta.task_id = t.id
    WHERE t.id = $1
    GROUP BY t.id
  `, taskID)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrNotFound
	}
	return &tasks[0], nil
}

func (s *Store) CreateTask(ctx context.Context, t Task) (*Task, error) {
	t.ID = uuid.NewString()
	if t.State == "" {
		t.State = TaskStateNotStarted
	}
	if !validTaskState(t.State) {
		return nil, fmt.Errorf("invalid task state %q", t.State)
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
    INSERT INTO tasks (id, name, state, project_id, target_date)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING created_at
  `, t.ID, t.Name, t.State, t.ProjectID, t.TargetDate).Scan(&t.CreatedAt); err != nil {
		return nil, err
	}

	for _, userID := range t.AssigneeIDs {
		if _, err := tx.Exec(ctx, `
      INSERT INTO task_assignees (task_id, user_id)
      VALUES ($1, $2)
      ON CONFLICT DO NOTHING
    `, t.ID, userID); err != nil {
			return nil, err
		}
	}

	if err := appendActivity(ctx, tx, "task", t.ID, "created", "", t.Name); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTaskState transitions a task and records the change in the
// activity log.
func (s *Store) UpdateTaskState(ctx context.Context, taskID, state, actorID string) error {
	if !validTaskState(state) {
		return fmt.Errorf("invalid task state %q", state)
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE tasks SET state = $1 WHERE id = $2`, state, taskID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := appendActivity(ctx, tx, "task", taskID, "state_changed", actorID, state); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) AssignTask(ctx context.Context, taskID, userID string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO task_assignees (task_id, user_id)
    VALUES ($1, $2)
    ON CONFLICT DO NOTHING
  `, taskID, userID)
	return err
}

func (s *Store) UnassignTask(ctx context.Context, taskID, userID string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM task_assignees WHERE task_id = $1 AND user_id = $2
  `, taskID, userID)
	return err
}

func (s *Store) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, task_id::text, author_id::text, body, created_at
    FROM comments
    WHERE task_id = $1
    ORDER BY created_at
  `, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) AddComment(ctx context.Context, taskID, authorID, body string) (*Comment, error) {
	c := Comment{ID: uuid.NewString(), TaskID: taskID, AuthorID: authorID, Body: body}
	err := s.DB.QueryRow(ctx, `
    INSERT INTO comments (id, task_id, author_id, body)
    VALUES ($1, $2, $3, $4)
    RETURNING created_at
  `, c.ID, c.TaskID, c.AuthorID, c.Body).Scan(&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListActivity(ctx context.Context, entityType, entityID string, limit int) ([]ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, entity_type, entity_id::text, action,
           COALESCE(actor_id::text, ''), COALESCE(detail, ''), created_at
    FROM activity_log
    WHERE entity_type = $1 AND entity_id = $2
    ORDER BY created_at DESC
    LIMIT $3
  `, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.ActorID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func appendActivity(ctx context.Context, tx pgx.Tx, entityType, entityID, action, actorID, detail string) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO activity_log (id, entity_type, entity_id, action, actor_id, detail)
    VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6)
  `, uuid.NewString(), entityType, entityID, action, actorID, detail)
	return err
}

func validTaskState(state string) bool {
	switch state {
	case TaskStateNotStarted, TaskStateInProgress, TaskStateClosed:
		return true
	}
	return false
}
