// Package work records the project-side data reports are built from:
// projects, tasks, engineers and logged labor.
package work

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/ident"
	"github.com/zulandar/rdtrack/internal/models"
	"github.com/zulandar/rdtrack/internal/store"
	"gorm.io/gorm"
)

// TaskStatuses lists the statuses a task may be set to.
var TaskStatuses = []string{"todo", "in_progress", "blocked", "completed", "done", "cancelled"}

// ProjectOpts holds parameters for creating a project.
type ProjectOpts struct {
	Name      string
	SalesName string
	Status    string // defaults to active
}

// TaskOpts holds parameters for creating a task.
type TaskOpts struct {
	Title       string
	ProjectID   string
	AssignedTo  []string
	StartDate   string
	EndDate     string
	Stakeholder string
	Status      string // defaults to todo
}

// LaborOpts holds parameters for logging engineer hours.
type LaborOpts struct {
	EngineerID  string
	Hours       float64
	WorkDate    string
	TaskID      string
	ProjectID   string
	AssetID     string
	Description string
}

// TaskFilters holds optional filters for listing tasks.
type TaskFilters struct {
	ProjectID string
	Status    string
	Assignee  string
}

// LaborFilters holds optional filters for listing labor.
type LaborFilters struct {
	EngineerID string
	TaskID     string
	ProjectID  string
	Range      dates.Range
}

// CreateProject creates a project with an auto-generated ID.
func CreateProject(db *gorm.DB, opts ProjectOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("work: project name is required")
	}
	if opts.Status == "" {
		opts.Status = "active"
	}
	id, err := ident.Unique(db, &models.Project{}, "proj")
	if err != nil {
		return nil, fmt.Errorf("work: %w", err)
	}
	p := models.Project{ID: id, Name: opts.Name, SalesName: opts.SalesName, Status: opts.Status}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("work: create project: %w", err)
	}
	return &p, nil
}

// ListProjects returns projects, optionally limited to one sales contact.
func ListProjects(db *gorm.DB, salesName string) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if salesName != "" {
		q = q.Where("sales_name = ?", salesName)
	}
	var projects []models.Project
	if err := q.Order("created_at ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("work: list projects: %w", err)
	}
	return projects, nil
}

// CreateTask creates a task. Dates are optional but must parse when given,
// and every assignee must be a known engineer.
func CreateTask(db *gorm.DB, opts TaskOpts) (*models.Task, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("work: task title is required")
	}
	if opts.Status == "" {
		opts.Status = "todo"
	}
	if !validStatus(opts.Status) {
		return nil, fmt.Errorf("work: invalid task status %q; valid: %v", opts.Status, TaskStatuses)
	}
	for _, d := range []string{opts.StartDate, opts.EndDate} {
		if d == "" {
			continue
		}
		if _, ok := dates.Parse(d); !ok {
			return nil, fmt.Errorf("work: task date %q: %w", d, dates.ErrMalformed)
		}
	}
	if opts.ProjectID != "" {
		if err := exists(db, &models.Project{}, "project", opts.ProjectID); err != nil {
			return nil, err
		}
	}
	for _, eng := range opts.AssignedTo {
		if err := exists(db, &models.Engineer{}, "engineer", eng); err != nil {
			return nil, err
		}
	}

	id, err := ident.Unique(db, &models.Task{}, "task")
	if err != nil {
		return nil, fmt.Errorf("work: %w", err)
	}
	t := models.Task{
		ID:          id,
		Title:       opts.Title,
		AssignedTo:  models.EncodeIDs(opts.AssignedTo),
		StartDate:   opts.StartDate,
		EndDate:     opts.EndDate,
		Stakeholder: opts.Stakeholder,
		Status:      opts.Status,
	}
	if opts.ProjectID != "" {
		t.ProjectID = &opts.ProjectID
	}
	if err := db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("work: create task: %w", err)
	}
	return &t, nil
}

// UpdateTaskStatus sets a task's status.
func UpdateTaskStatus(db *gorm.DB, id, status string) error {
	if !validStatus(status) {
		return fmt.Errorf("work: invalid task status %q; valid: %v", status, TaskStatuses)
	}
	res := db.Model(&models.Task{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("work: update task %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("work: task %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// ListTasks returns tasks matching filters ordered by creation time.
func ListTasks(db *gorm.DB, filters TaskFilters) ([]models.Task, error) {
	q := db.Model(&models.Task{})
	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	var tasks []models.Task
	if err := q.Order("created_at ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("work: list tasks: %w", err)
	}
	if filters.Assignee == "" {
		return tasks, nil
	}
	// AssignedTo is a JSON array, matched in Go to stay portable across drivers.
	out := tasks[:0]
	for _, t := range tasks {
		if t.IsAssigned(filters.Assignee) {
			out = append(out, t)
		}
	}
	return out, nil
}

// LogLabor records hours worked by an engineer. A task's project is copied
// onto the record when no project is given.
func LogLabor(db *gorm.DB, opts LaborOpts) (*models.LaborCost, error) {
	if opts.EngineerID == "" {
		return nil, fmt.Errorf("work: engineer is required")
	}
	if opts.Hours <= 0 {
		return nil, fmt.Errorf("work: hours must be positive, got %v", opts.Hours)
	}
	if opts.WorkDate == "" {
		return nil, fmt.Errorf("work: work date is required")
	}
	if _, ok := dates.Parse(opts.WorkDate); !ok {
		return nil, fmt.Errorf("work: work date %q: %w", opts.WorkDate, dates.ErrMalformed)
	}
	if err := exists(db, &models.Engineer{}, "engineer", opts.EngineerID); err != nil {
		return nil, err
	}

	row := models.LaborCost{
		EngineerID:  opts.EngineerID,
		Hours:       opts.Hours,
		WorkDate:    opts.WorkDate,
		Description: opts.Description,
	}
	if opts.TaskID != "" {
		var t models.Task
		if err := db.Where("id = ?", opts.TaskID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("work: task %s: %w", opts.TaskID, store.ErrNotFound)
			}
			return nil, fmt.Errorf("work: get task %s: %w", opts.TaskID, err)
		}
		row.TaskID = &opts.TaskID
		if opts.ProjectID == "" && t.ProjectID != nil {
			opts.ProjectID = *t.ProjectID
		}
	}
	if opts.ProjectID != "" {
		if err := exists(db, &models.Project{}, "project", opts.ProjectID); err != nil {
			return nil, err
		}
		row.ProjectID = &opts.ProjectID
	}
	if opts.AssetID != "" {
		if err := exists(db, &models.Asset{}, "asset", opts.AssetID); err != nil {
			return nil, err
		}
		row.AssetID = &opts.AssetID
	}

	if err := db.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("work: log labor: %w", err)
	}
	return &row, nil
}

// ListLabor returns labor records matching filters ordered by ID. Records
// whose work date falls outside a bounded range are dropped.
func ListLabor(db *gorm.DB, filters LaborFilters) ([]models.LaborCost, error) {
	q := db.Model(&models.LaborCost{})
	if filters.EngineerID != "" {
		q = q.Where("engineer_id = ?", filters.EngineerID)
	}
	if filters.TaskID != "" {
		q = q.Where("task_id = ?", filters.TaskID)
	}
	if filters.ProjectID != "" {
		q = q.Where("project_id = ?", filters.ProjectID)
	}
	var rows []models.LaborCost
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("work: list labor: %w", err)
	}
	if filters.Range.IsZero() {
		return rows, nil
	}
	out := rows[:0]
	for _, r := range rows {
		if filters.Range.ContainsString(r.WorkDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CreateEngineer creates an engineer with an auto-generated ID.
func CreateEngineer(db *gorm.DB, name, email string) (*models.Engineer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("work: engineer name is required")
	}
	id, err := ident.Unique(db, &models.Engineer{}, "eng")
	if err != nil {
		return nil, fmt.Errorf("work: %w", err)
	}
	e := models.Engineer{ID: id, Name: name, Email: email}
	if err := db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("work: create engineer: %w", err)
	}
	return &e, nil
}

// ListEngineers returns all engineers ordered by name.
func ListEngineers(db *gorm.DB) ([]models.Engineer, error) {
	var engineers []models.Engineer
	if err := db.Order("name ASC, id ASC").Find(&engineers).Error; err != nil {
		return nil, fmt.Errorf("work: list engineers: %w", err)
	}
	return engineers, nil
}

func exists(db *gorm.DB, model interface{}, kind, id string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("work: check %s %s: %w", kind, id, err)
	}
	if count == 0 {
		return fmt.Errorf("work: %s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func validStatus(s string) bool {
	for _, v := range TaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}
