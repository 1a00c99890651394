// Package report builds person and engineer work reports from tasks,
// projects, labor records and asset ownership.
package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/models"
	"github.com/zulandar/rdtrack/internal/store"
)

// ErrInvalid marks a report request that is missing required input.
var ErrInvalid = errors.New("invalid report request")

// Repository is the data access the report builder needs.
type Repository interface {
	ListTasks(ctx context.Context, filter store.TaskFilter) ([]models.Task, error)
	ListProjects(ctx context.Context, filter store.ProjectFilter) ([]models.Project, error)
	ListLaborCosts(ctx context.Context, filter store.LaborFilter) ([]models.LaborCost, error)
	GetEngineer(ctx context.Context, id string) (*models.Engineer, error)
	ListEngineers(ctx context.Context) ([]models.Engineer, error)
	ListAssetsByOwner(ctx context.Context, ownerID, ownerName string) ([]models.Asset, error)
}

// Builder assembles reports. It holds no state between calls.
type Builder struct {
	repo Repository
}

// NewBuilder returns a Builder backed by repo.
func NewBuilder(repo Repository) *Builder {
	return &Builder{repo: repo}
}

// TaskSummary is one task as it appears in a report.
type TaskSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ProjectID   string   `json:"project_id,omitempty"`
	AssignedTo  []string `json:"assigned_to"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Stakeholder string   `json:"stakeholder"`
	Status      string   `json:"status"`
	Hours       float64  `json:"hours"`
}

// ProjectSummary is one project as it appears in a person report.
type ProjectSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SalesName string `json:"sales_name"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// EngineerHours is the per-engineer line of a person report.
type EngineerHours struct {
	EngineerID   string  `json:"engineer_id"`
	EngineerName string  `json:"engineer_name"`
	TotalHours   float64 `json:"total_hours"`
	TaskCount    int     `json:"task_count"`
	ProjectCount int     `json:"project_count"`
}

// PersonReport gathers the work a named person is involved in.
type PersonReport struct {
	Person          string           `json:"person"`
	StartDate       string           `json:"start_date,omitempty"`
	EndDate         string           `json:"end_date,omitempty"`
	RelatedTasks    []TaskSummary    `json:"related_tasks"`
	RelatedProjects []ProjectSummary `json:"related_projects"`
	EngineerHours   []EngineerHours  `json:"engineer_hours"`
	Stakeholders    []string         `json:"stakeholders"`
	TotalTasks      int              `json:"total_tasks"`
	TotalProjects   int              `json:"total_projects"`
	TotalHours      float64          `json:"total_hours"`
}

// EngineerTotals are the headline numbers of an engineer report.
type EngineerTotals struct {
	TotalTasks     int     `json:"total_tasks"`
	CompletedTasks int     `json:"completed_tasks"`
	TotalProjects  int     `json:"total_projects"`
	TotalHours     float64 `json:"total_hours"`
	TotalAssets    int     `json:"total_assets"`
}

// ProjectBreakdown is one project's share of an engineer's work.
type ProjectBreakdown struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	SalesName          string  `json:"sales_name"`
	TaskCount          int     `json:"task_count"`
	CompletedTaskCount int     `json:"completed_task_count"`
	TotalHours         float64 `json:"total_hours"`
}

// AssetSummary is an owned asset as it appears in an engineer report.
type AssetSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Maturity   string `json:"maturity"`
	ReuseCount int    `json:"reuse_count"`
	CreatedAt  string `json:"created_at"`
}

// LaborRow is a raw labor record in an engineer report.
type LaborRow struct {
	ID          uint    `json:"id"`
	TaskID      string  `json:"task_id,omitempty"`
	ProjectID   string  `json:"project_id,omitempty"`
	AssetID     string  `json:"asset_id,omitempty"`
	Hours       float64 `json:"hours"`
	WorkDate    string  `json:"work_date"`
	Description string  `json:"description"`
}

// EngineerReport gathers one engineer's tasks, projects, hours and assets.
type EngineerReport struct {
	EngineerID   string             `json:"engineer_id"`
	EngineerName string             `json:"engineer_name"`
	Email        string             `json:"email"`
	StartDate    string             `json:"start_date,omitempty"`
	EndDate      string             `json:"end_date,omitempty"`
	Totals       EngineerTotals     `json:"totals"`
	Tasks        []TaskSummary      `json:"tasks"`
	Assets       []AssetSummary     `json:"assets"`
	Projects     []ProjectBreakdown `json:"projects"`
	Labor        []LaborRow         `json:"labor"`
	Stakeholders []string           `json:"stakeholders"`
}

// Person builds a report for a free-text name. The name matches, case
// insensitively, a task's stakeholder, the name or ID of an assignee, or a
// project's sales name.
func (b *Builder) Person(ctx context.Context, name string, r dates.Range) (*PersonReport, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("report: person name is required: %w", ErrInvalid)
	}

	engineers, err := b.repo.ListEngineers(ctx)
	if err != nil {
		return nil, fmt.Errorf("report: person %q: %w", name, err)
	}
	engineerName := make(map[string]string, len(engineers))
	for _, e := range engineers {
		engineerName[e.ID] = e.Name
	}
	matchesAssignee := func(id string) bool {
		return strings.ToLower(id) == needle || strings.Contains(strings.ToLower(engineerName[id]), needle)
	}

	tasks, err := b.repo.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("report: person %q: %w", name, err)
	}
	var matched []*models.Task
	for i := range tasks {
		t := &tasks[i]
		hit := strings.Contains(strings.ToLower(t.Stakeholder), needle)
		for _, id := range t.Assignees() {
			if hit {
				break
			}
			hit = matchesAssignee(id)
		}
		if hit && taskInRange(t, r) {
			matched = append(matched, t)
		}
	}

	allProjects, err := b.repo.ListProjects(ctx, store.ProjectFilter{})
	if err != nil {
		return nil, fmt.Errorf("report: person %q: %w", name, err)
	}
	projectIDs := map[string]bool{}
	for _, t := range matched {
		if t.ProjectID != nil {
			projectIDs[*t.ProjectID] = true
		}
	}
	for _, p := range allProjects {
		if strings.Contains(strings.ToLower(p.SalesName), needle) && r.Contains(p.CreatedAt) {
			projectIDs[p.ID] = true
		}
	}

	rep := &PersonReport{
		Person:          name,
		RelatedTasks:    make([]TaskSummary, 0, len(matched)),
		RelatedProjects: []ProjectSummary{},
		EngineerHours:   []EngineerHours{},
	}
	rep.StartDate, rep.EndDate = bounds(r)

	stakeholders := map[string]bool{}
	for _, p := range allProjects {
		if !projectIDs[p.ID] {
			continue
		}
		rep.RelatedProjects = append(rep.RelatedProjects, ProjectSummary{
			ID:        p.ID,
			Name:      p.Name,
			SalesName: p.SalesName,
			Status:    p.Status,
			CreatedAt: dates.Format(p.CreatedAt),
		})
		stakeholders[p.SalesName] = true
	}

	// Group matched tasks by assignee, in first-seen order.
	var order []string
	byEngineer := map[string][]*models.Task{}
	for _, t := range matched {
		stakeholders[t.Stakeholder] = true
		for _, id := range t.Assignees() {
			if _, ok := byEngineer[id]; !ok {
				order = append(order, id)
			}
			byEngineer[id] = append(byEngineer[id], t)
		}
	}

	taskHours := map[string]float64{}
	for _, id := range order {
		rows, err := b.repo.ListLaborCosts(ctx, store.LaborFilter{EngineerID: id})
		if err != nil {
			return nil, fmt.Errorf("report: person %q: %w", name, err)
		}
		rows = laborInRange(rows, r)
		engTasks := byEngineer[id]

		projects := map[string]bool{}
		for _, t := range engTasks {
			if t.ProjectID != nil {
				projects[*t.ProjectID] = true
			}
			if len(rows) == 0 {
				taskHours[t.ID] += derivedHours(t)
			}
		}
		for _, row := range rows {
			if row.TaskID != nil {
				taskHours[*row.TaskID] += row.Hours
			}
		}

		hours := round2(preferLabor(rows, engTasks))
		rep.EngineerHours = append(rep.EngineerHours, EngineerHours{
			EngineerID:   id,
			EngineerName: engineerName[id],
			TotalHours:   hours,
			TaskCount:    len(engTasks),
			ProjectCount: len(projects),
		})
		rep.TotalHours += hours
	}
	sort.SliceStable(rep.EngineerHours, func(i, j int) bool {
		x, y := rep.EngineerHours[i], rep.EngineerHours[j]
		if x.TotalHours != y.TotalHours {
			return x.TotalHours > y.TotalHours
		}
		return x.TaskCount > y.TaskCount
	})

	for _, t := range matched {
		rep.RelatedTasks = append(rep.RelatedTasks, summarizeTask(t, round2(taskHours[t.ID])))
	}
	rep.Stakeholders = sortedKeys(stakeholders)
	rep.TotalTasks = len(rep.RelatedTasks)
	rep.TotalProjects = len(rep.RelatedProjects)
	rep.TotalHours = round2(rep.TotalHours)
	return rep, nil
}

// Engineer builds a report for one engineer ID, matched exactly against task
// assignees. Hours prefer logged labor over task-date estimates at each of
// the total, per-project and per-task levels.
func (b *Builder) Engineer(ctx context.Context, engineerID string, r dates.Range) (*EngineerReport, error) {
	eng, err := b.repo.GetEngineer(ctx, engineerID)
	if err != nil {
		return nil, fmt.Errorf("report: engineer %s: %w", engineerID, err)
	}

	tasks, err := b.repo.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("report: engineer %s: %w", engineerID, err)
	}
	var matched []*models.Task
	projectIDs := []string{}
	seenProject := map[string]bool{}
	for i := range tasks {
		t := &tasks[i]
		if !t.IsAssigned(engineerID) || !taskInRange(t, r) {
			continue
		}
		matched = append(matched, t)
		if t.ProjectID != nil && !seenProject[*t.ProjectID] {
			seenProject[*t.ProjectID] = true
			projectIDs = append(projectIDs, *t.ProjectID)
		}
	}

	projects, err := b.repo.ListProjects(ctx, store.ProjectFilter{IDs: projectIDs})
	if err != nil {
		return nil, fmt.Errorf("report: engineer %s: %w", engineerID, err)
	}

	labor, err := b.repo.ListLaborCosts(ctx, store.LaborFilter{EngineerID: engineerID})
	if err != nil {
		return nil, fmt.Errorf("report: engineer %s: %w", engineerID, err)
	}
	labor = laborInRange(labor, r)

	assets, err := b.repo.ListAssetsByOwner(ctx, eng.ID, eng.Name)
	if err != nil {
		return nil, fmt.Errorf("report: engineer %s: %w", engineerID, err)
	}

	rep := &EngineerReport{
		EngineerID:   eng.ID,
		EngineerName: eng.Name,
		Email:        eng.Email,
		Tasks:        make([]TaskSummary, 0, len(matched)),
		Assets:       []AssetSummary{},
		Projects:     make([]ProjectBreakdown, 0, len(projects)),
		Labor:        make([]LaborRow, 0, len(labor)),
	}
	rep.StartDate, rep.EndDate = bounds(r)

	stakeholders := map[string]bool{}
	for _, t := range matched {
		stakeholders[t.Stakeholder] = true
		rows := laborWhere(labor, func(l models.LaborCost) bool { return deref(l.TaskID) == t.ID })
		rep.Tasks = append(rep.Tasks, summarizeTask(t, round2(preferLabor(rows, []*models.Task{t}))))
		if isCompleted(t) {
			rep.Totals.CompletedTasks++
		}
	}

	for _, p := range projects {
		stakeholders[p.SalesName] = true
		var projTasks []*models.Task
		inProject := map[string]bool{}
		completed := 0
		for _, t := range matched {
			if deref(t.ProjectID) == p.ID {
				projTasks = append(projTasks, t)
				inProject[t.ID] = true
				if isCompleted(t) {
					completed++
				}
			}
		}
		rows := laborWhere(labor, func(l models.LaborCost) bool {
			return deref(l.ProjectID) == p.ID || inProject[deref(l.TaskID)]
		})
		rep.Projects = append(rep.Projects, ProjectBreakdown{
			ID:                 p.ID,
			Name:               p.Name,
			SalesName:          p.SalesName,
			TaskCount:          len(projTasks),
			CompletedTaskCount: completed,
			TotalHours:         round2(preferLabor(rows, projTasks)),
		})
	}

	for _, a := range assets {
		if !r.Contains(a.CreatedAt) {
			continue
		}
		rep.Assets = append(rep.Assets, AssetSummary{
			ID:         a.ID,
			Name:       a.Name,
			Type:       a.Type,
			Maturity:   a.Maturity,
			ReuseCount: a.ReuseCount,
			CreatedAt:  dates.Format(a.CreatedAt),
		})
	}

	for _, l := range labor {
		rep.Labor = append(rep.Labor, LaborRow{
			ID:          l.ID,
			TaskID:      deref(l.TaskID),
			ProjectID:   deref(l.ProjectID),
			AssetID:     deref(l.AssetID),
			Hours:       l.Hours,
			WorkDate:    l.WorkDate,
			Description: l.Description,
		})
	}

	rep.Totals.TotalTasks = len(rep.Tasks)
	rep.Totals.TotalProjects = len(rep.Projects)
	rep.Totals.TotalAssets = len(rep.Assets)
	rep.Totals.TotalHours = round2(preferLabor(labor, matched))
	rep.Stakeholders = sortedKeys(stakeholders)
	return rep, nil
}

// laborWhere returns rows satisfying keep. Each row appears at most once.
func laborWhere(rows []models.LaborCost, keep func(models.LaborCost) bool) []models.LaborCost {
	var out []models.LaborCost
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func summarizeTask(t *models.Task, hours float64) TaskSummary {
	assignees := t.Assignees()
	if assignees == nil {
		assignees = []string{}
	}
	return TaskSummary{
		ID:          t.ID,
		Title:       t.Title,
		ProjectID:   deref(t.ProjectID),
		AssignedTo:  assignees,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Stakeholder: t.Stakeholder,
		Status:      t.Status,
		Hours:       hours,
	}
}

// sortedKeys returns the non-empty keys of set in ascending order.
func sortedKeys(set map[string]bool) []string {
	out := []string{}
	for k := range set {
		if strings.TrimSpace(k) != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func bounds(r dates.Range) (start, end string) {
	if r.Start != nil {
		start = dates.FormatDate(*r.Start)
	}
	if r.End != nil {
		end = dates.FormatDate(*r.End)
	}
	return start, end
}
