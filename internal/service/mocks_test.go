package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore used to exercise the service
// without a database. WithTx returns the same instance; transactional
// behavior is covered by the store package's own tests.
type fakeTaskStore struct {
	tasks  map[int64]*domain.Task
	nextID int64

	// Injectable failures for failure-path tests.
	createErr error
	updateErr error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[int64]*domain.Task)}
}

var _ store.TaskStore = (*fakeTaskStore)(nil)

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	if t.DeletedAt != nil {
		deleted := *t.DeletedAt
		c.DeletedAt = &deleted
	}
	return &c
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return f }

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	task.ID = f.nextID
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id int64, includeDeleted bool) (*domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok || (!includeDeleted && t.IsDeleted()) {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (f *fakeTaskStore) GetOwned(ctx context.Context, id int64, actor domain.ActorRef) (*domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.IsDeleted() || !t.IsOwnedBy(actor) {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.tasks[task.ID]
	if !ok || existing.IsDeleted() {
		return store.ErrTaskNotFound
	}
	f.tasks[task.ID] = copyTask(task)
	return nil
}

func (f *fakeTaskStore) SoftDelete(ctx context.Context, id int64, actor domain.ActorRef) error {
	t, ok := f.tasks[id]
	if !ok || t.IsDeleted() || !t.Creator.Equals(actor) {
		return store.ErrTaskNotFound
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	return nil
}

func (f *fakeTaskStore) Restore(ctx context.Context, id int64) error {
	t, ok := f.tasks[id]
	if !ok || !t.IsDeleted() {
		return store.ErrTaskNotFound
	}
	t.DeletedAt = nil
	return nil
}

func (f *fakeTaskStore) ForceDelete(ctx context.Context, id int64) error {
	t, ok := f.tasks[id]
	if !ok || !t.IsDeleted() {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) List(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.tasks {
		switch {
		case filter.OnlyDeleted:
			if !t.IsDeleted() {
				continue
			}
		case filter.IncludeDeleted:
			// keep all
		default:
			if t.IsDeleted() {
				continue
			}
		}
		if filter.Creator != nil && !t.Creator.Equals(*filter.Creator) {
			continue
		}
		if filter.Assignable != nil && !t.Assignable.Equals(*filter.Assignable) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, copyTask(t))
	}
	return out, nil
}

func (f *fakeTaskStore) FindDueWithin(
	ctx context.Context,
	now time.Time,
	window time.Duration,
	limit int,
) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.IsDeleted() || !t.Status.NotifyEligible() {
			continue
		}
		if !t.DueDate.After(now) || t.DueDate.After(now.Add(window)) {
			continue
		}
		out = append(out, copyTask(t))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTaskStore) MarkOverdue(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	for _, t := range f.tasks {
		if t.IsDeleted() || !t.Status.NotifyEligible() || !t.DueDate.Before(now) {
			continue
		}
		t.Status = domain.TaskStatusOverdue
		t.UpdatedAt = now
		ids = append(ids, t.ID)
	}
	return ids, nil
}
