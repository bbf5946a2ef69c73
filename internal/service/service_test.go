package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/goalraiders/goalraiders/internal/apperror"
	"github.com/goalraiders/goalraiders/internal/config"
	"github.com/goalraiders/goalraiders/internal/model"
	"github.com/goalraiders/goalraiders/internal/repository"
)

// Hand-written in-memory mocks. The services only see the repository
// interfaces, so these swap in for SQLite without the services noticing.
// The write counters let tests assert "no-op means no writes".

type mockUserRepo struct {
	users       map[string]*model.User // keyed by internal ID
	nextID      int
	updateCalls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Subject == user.Subject {
			return fmt.Errorf("mock: duplicate subject %s", user.Subject)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Level < 1 {
		user.Level = 1
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetBySubject(_ context.Context, subject string) (*model.User, error) {
	for _, u := range m.users {
		if u.Subject == subject {
			result := *u
			return &result, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found"}
	}
	m.updateCalls++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

type mockGoalRepo struct {
	goals       map[int64]*model.Goal
	nextID      int64
	updateCalls int
}

func newMockGoalRepo() *mockGoalRepo {
	return &mockGoalRepo{goals: make(map[int64]*model.Goal)}
}

func (m *mockGoalRepo) Create(_ context.Context, goal *model.Goal) error {
	m.nextID++
	goal.ID = m.nextID
	stored := *goal
	m.goals[goal.ID] = &stored
	return nil
}

func (m *mockGoalRepo) GetByID(_ context.Context, id int64) (*model.Goal, error) {
	g, ok := m.goals[id]
	if !ok {
		return nil, apperror.NotFound("goal", id)
	}
	result := *g
	return &result, nil
}

func (m *mockGoalRepo) ListByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Goal, error) {
	result := []model.Goal{}
	for _, g := range m.goals {
		if g.OwnerID == ownerID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginate(result, opts), nil
}

func (m *mockGoalRepo) ListChildren(_ context.Context, parentID int64) ([]model.Goal, error) {
	result := []model.Goal{}
	for _, g := range m.goals {
		if g.ParentID != nil && *g.ParentID == parentID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockGoalRepo) Update(_ context.Context, goal *model.Goal) error {
	if _, ok := m.goals[goal.ID]; !ok {
		return apperror.NotFound("goal", goal.ID)
	}
	m.updateCalls++
	stored := *goal
	m.goals[goal.ID] = &stored
	return nil
}

func (m *mockGoalRepo) DeleteByIDs(_ context.Context, ids []int64) error {
	for _, id := range ids {
		delete(m.goals, id)
	}
	return nil
}

type mockTaskRepo struct {
	tasks       map[int64]*model.Task
	nextID      int64
	updateCalls int
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[int64]*model.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	m.nextID++
	task.ID = m.nextID
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id int64) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperror.NotFound("task", id)
	}
	result := *t
	return &result, nil
}

func (m *mockTaskRepo) ListByOwner(_ context.Context, ownerID string, opts repository.ListOptions) ([]model.Task, error) {
	result := []model.Task{}
	for _, t := range m.tasks {
		if t.OwnerID == ownerID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return paginateTasks(result, opts), nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return apperror.NotFound("task", task.ID)
	}
	m.updateCalls++
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return apperror.NotFound("task", id)
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepo) DeleteByGoalIDs(_ context.Context, goalIDs []int64) error {
	for id, t := range m.tasks {
		if t.GoalID == nil {
			continue
		}
		for _, gid := range goalIDs {
			if *t.GoalID == gid {
				delete(m.tasks, id)
				break
			}
		}
	}
	return nil
}

func paginate(goals []model.Goal, opts repository.ListOptions) []model.Goal {
	if opts.Offset >= len(goals) {
		return []model.Goal{}
	}
	goals = goals[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(goals) {
		goals = goals[:opts.Limit]
	}
	return goals
}

func paginateTasks(tasks []model.Task, opts repository.ListOptions) []model.Task {
	if opts.Offset >= len(tasks) {
		return []model.Task{}
	}
	tasks = tasks[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(tasks) {
		tasks = tasks[:opts.Limit]
	}
	return tasks
}

// engine bundles the wired services and the mocks behind them.
type engine struct {
	users    *UserService
	goals    *GoalService
	tasks    *TaskService
	userRepo *mockUserRepo
	goalRepo *mockGoalRepo
	taskRepo *mockTaskRepo
}

// testGame mirrors the shape of the production tables with small, easy to
// reason about numbers.
func testGame() config.GameConfig {
	return config.GameConfig{
		DamageByDifficulty: map[string]int{
			"Easy": 5, "Medium": 20, "Hard": 30, "Epic": 50,
		},
		MaxHPByStatus: map[string]int{
			"Easy": 50, "Medium": 100, "Hard": 200, "Epic": 400,
		},
		XPRewardByStatus: map[string]int{
			"Easy": 20, "Medium": 50, "Hard": 100, "Epic": 200,
		},
	}
}

func newTestEngine(t *testing.T) *engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	userRepo := newMockUserRepo()
	goalRepo := newMockGoalRepo()
	taskRepo := newMockTaskRepo()

	users := NewUserService(userRepo, logger)
	goals := NewGoalService(goalRepo, taskRepo, users, testGame(), logger)
	tasks := NewTaskService(taskRepo, goals, users, logger)

	return &engine{
		users:    users,
		goals:    goals,
		tasks:    tasks,
		userRepo: userRepo,
		goalRepo: goalRepo,
		taskRepo: taskRepo,
	}
}

// fixDate pins the task engine's calendar for recurrence tests.
func (e *engine) fixDate(year int, month time.Month, day int) {
	e.tasks.now = func() time.Time {
		return time.Date(year, month, day, 13, 45, 0, 0, time.UTC)
	}
}
