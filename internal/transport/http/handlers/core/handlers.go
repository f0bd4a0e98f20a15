package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/domain/core"
	"taskboard/internal/transport/http/api"
	"taskboard/internal/transport/http/middleware"
)

type Handler struct {
	Store *core.Store
}

func NewHandler(store *core.Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/departments", h.handleListDepartments)
	r.Post("/departments", h.handleCreateDepartment)

	r.Get("/users", h.handleListUsers)
	r.Post("/users", h.handleCreateUser)

	r.Get("/projects", h.handleListProjects)
	r.Post("/projects", h.handleCreateProject)
	r.Post("/projects/{projectID}/members", h.handleAddProjectMember)
	r.Post("/projects/{projectID}/expenses", h.handleAddExpense)
	r.Get("/projects/{projectID}/tasks", h.handleListProjectTasks)

	r.Post("/tasks", h.handleCreateTask)
	r.Get("/tasks/{taskID}", h.handleGetTask)
	r.Put("/tasks/{taskID}/state", h.handleUpdateTaskState)
	r.Post("/tasks/{taskID}/assignees", h.handleAssignTask)
	r.Delete("/tasks/{taskID}/assignees/{userID}", h.handleUnassignTask)
	r.Get("/tasks/{taskID}/comments", h.handleListComments)
	r.Post("/tasks/{taskID}/comments", h.handleAddComment)
	r.Get("/tasks/{taskID}/activity", h.handleListTaskActivity)
}

func (h *Handler) handleListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.Store.ListDepartments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_list_failed", "failed to list departments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, departments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateDepartment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "department name required", middleware.GetRequestID(r.Context()))
		return
	}
	department, err := h.Store.CreateDepartment(r.Context(), payload.Name)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "department_create_failed", "failed to create department", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, department, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name       string `json:"name"`
		Department string `json:"department"`
		Role       string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "user name required", middleware.GetRequestID(r.Context()))
		return
	}
	user, err := h.Store.CreateUser(r.Context(), payload.Name, payload.Department, payload.Role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, user, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_list_failed", "failed to list projects", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, projects, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name              string   `json:"name"`
		Status            string   `json:"status"`
		ResponsibleUserID string   `json:"responsibleUserId"`
		InitialBudget     *float64 `json:"initialBudget"`
		StartDate         string   `json:"startDate"`
		EndDate           string   `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "project name required", middleware.GetRequestID(r.Context()))
		return
	}

	project := core.Project{
		Name:              payload.Name,
		Status:            payload.Status,
		ResponsibleUserID: payload.ResponsibleUserID,
		InitialBudget:     payload.InitialBudget,
	}
	var ok bool
	if project.StartDate, ok = parseOptionalDate(payload.StartDate); !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid start date", middleware.GetRequestID(r.Context()))
		return
	}
	if project.EndDate, ok = parseOptionalDate(payload.EndDate); !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid end date", middleware.GetRequestID(r.Context()))
		return
	}

	created, err := h.Store.CreateProject(r.Context(), project)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "project_create_failed", "failed to create project", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddProjectMember(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "user id required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.AddProjectMember(r.Context(), chi.URLParam(r, "projectID"), payload.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "member_add_failed", "failed to add project member", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"added": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount          float64  `json:"amount"`
		Currency        string   `json:"currency"`
		ConvertedAmount *float64 `json:"convertedAmount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Amount <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "positive amount required", middleware.GetRequestID(r.Context()))
		return
	}
	expense, err := h.Store.AddExpense(r.Context(), core.Expense{
		ProjectID:       chi.URLParam(r, "projectID"),
		Amount:          payload.Amount,
		Currency:        payload.Currency,
		ConvertedAmount: payload.ConvertedAmount,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "expense_add_failed", "failed to add expense", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, expense, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListProjectTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Store.TasksForProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_list_failed", "failed to list tasks", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, tasks, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string   `json:"name"`
		State       string   `json:"state"`
		ProjectID   string   `json:"projectId"`
		TargetDate  string   `json:"targetDate"`
		AssigneeIDs []string `json:"assigneeIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Name == "" || payload.ProjectID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "task name and project id required", middleware.GetRequestID(r.Context()))
		return
	}

	task := core.Task{
		Name:        payload.Name,
		State:       payload.State,
		ProjectID:   payload.ProjectID,
		AssigneeIDs: payload.AssigneeIDs,
	}
	var ok bool
	if task.TargetDate, ok = parseOptionalDate(payload.TargetDate); !ok {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid target date", middleware.GetRequestID(r.Context()))
		return
	}

	created, err := h.Store.CreateTask(r.Context(), task)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_create_failed", "failed to create task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Store.GetTask(r.Context(), chi.URLParam(r, "taskID"))
	if errors.Is(err, core.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "task_not_found", "task not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "task_get_failed", "failed to load task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, task, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateTaskState(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		State   string `json:"state"`
		ActorID string `json:"actorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.State == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "state required", middleware.GetRequestID(r.Context()))
		return
	}
	err := h.Store.UpdateTaskState(r.Context(), chi.URLParam(r, "taskID"), payload.State, payload.ActorID)
	if errors.Is(err, core.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "task_not_found", "task not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "state_update_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"state": payload.State}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "user id required", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.AssignTask(r.Context(), chi.URLParam(r, "taskID"), payload.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "assign_failed", "failed to assign task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"assigned": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUnassignTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.UnassignTask(r.Context(), chi.URLParam(r, "taskID"), chi.URLParam(r, "userID")); err != nil {
		api.Fail(w, http.StatusInternalServerError, "unassign_failed", "failed to unassign task", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]bool{"removed": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.Store.ListComments(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "comment_list_failed", "failed to list comments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, comments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AuthorID string `json:"authorId"`
		Body     string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Body == "" || payload.AuthorID == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "author id and body required", middleware.GetRequestID(r.Context()))
		return
	}
	comment, err := h.Store.AddComment(r.Context(), chi.URLParam(r, "taskID"), payload.AuthorID, payload.Body)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "comment_add_failed", "failed to add comment", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, comment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListTaskActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListActivity(r.Context(), "task", chi.URLParam(r, "taskID"), 50)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "activity_list_failed", "failed to list activity", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, entries, middleware.GetRequestID(r.Context()))
}

func parseOptionalDate(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, value); err != nil {
			return nil, false
		}
	}
	return &parsed, true
}
