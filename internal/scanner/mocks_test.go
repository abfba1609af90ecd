package scanner

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// fakeTaskStore is an in-memory store.TaskStore implementing the selection
// queries the batch entry points depend on.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[int64]*domain.Task

	findErr error
	markErr error
	listErr error
}

func newFakeTaskStore(tasks ...*domain.Task) *fakeTaskStore {
	s := &fakeTaskStore{tasks: make(map[int64]*domain.Task)}
	for _, t := range tasks {
		copied := *t
		s.tasks[t.ID] = &copied
	}
	return s
}

func (s *fakeTaskStore) get(id int64) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id]
}

func (s *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) GetByID(_ context.Context, id int64, includeDeleted bool) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || (task.IsDeleted() && !includeDeleted) {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *fakeTaskStore) GetOwned(ctx context.Context, id int64, actor domain.ActorRef) (*domain.Task, error) {
	task, err := s.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(actor) {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

func (s *fakeTaskStore) SoftDelete(_ context.Context, id int64, _ domain.ActorRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	now := time.Now()
	task.DeletedAt = &now
	return nil
}

func (s *fakeTaskStore) Restore(_ context.Context, id int64) error { return nil }

func (s *fakeTaskStore) ForceDelete(_ context.Context, id int64) error { return nil }

func (s *fakeTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

func (s *fakeTaskStore) List(_ context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Task
	for _, task := range s.tasks {
		if task.IsDeleted() && !filter.IncludeDeleted && !filter.OnlyDeleted {
			continue
		}
		if filter.Assignable != nil && !task.Assignable.Equals(*filter.Assignable) {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *fakeTaskStore) FindDueWithin(_ context.Context, now time.Time, window time.Duration, limit int) ([]*domain.Task, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.Task
	for _, task := range s.tasks {
		if task.IsDeleted() || !task.Status.NotifyEligible() {
			continue
		}
		if !task.DueDate.After(now) || task.DueDate.After(now.Add(window)) {
			continue
		}
		copied := *task
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeTaskStore) MarkOverdue(_ context.Context, now time.Time) ([]int64, error) {
	if s.markErr != nil {
		return nil, s.markErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, task := range s.tasks {
		if task.IsDeleted() || !task.Status.NotifyEligible() {
			continue
		}
		if task.DueDate.Before(now) {
			task.Status = domain.TaskStatusOverdue
			ids = append(ids, task.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakeUserStore struct {
	users map[int64]*domain.User
}

func (s *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *fakeUserStore) WithTx(*sql.Tx) store.UserStore { return s }

type fakeAdminStore struct {
	admins map[int64]*domain.Admin
}

func (s *fakeAdminStore) Create(_ context.Context, admin *domain.Admin) error {
	s.admins[admin.ID] = admin
	return nil
}

func (s *fakeAdminStore) GetByID(_ context.Context, id int64) (*domain.Admin, error) {
	admin, ok := s.admins[id]
	if !ok {
		return nil, store.ErrAdminNotFound
	}
	return admin, nil
}

func (s *fakeAdminStore) WithTx(*sql.Tx) store.AdminStore { return s }

type fakeNotificationLog struct {
	mu      sync.Mutex
	entries map[string]*store.NotificationLogEntry
	wasErr  error
}

func newFakeNotificationLog() *fakeNotificationLog {
	return &fakeNotificationLog{entries: make(map[string]*store.NotificationLogEntry)}
}

func logKey(taskID int64, kind string, windowStart time.Time) string {
	return fmt.Sprintf("%d/%s/%d", taskID, kind, windowStart.Unix())
}

func (s *fakeNotificationLog) Record(_ context.Context, entry *store.NotificationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey(entry.TaskID, entry.Kind, entry.WindowStart)
	if _, ok := s.entries[key]; ok {
		return store.ErrNotificationAlreadySent
	}
	s.entries[key] = entry
	return nil
}

func (s *fakeNotificationLog) WasSent(_ context.Context, taskID int64, kind string, windowStart time.Time) (bool, error) {
	if s.wasErr != nil {
		return false, s.wasErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[logKey(taskID, kind, windowStart)]
	return ok, nil
}

func (s *fakeNotificationLog) WithTx(*sql.Tx) store.NotificationLogStore { return s }

type sentMail struct {
	To      string
	Subject string
}

// recordingSender captures every delivered mail.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (s *recordingSender) Send(_ context.Context, to, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject})
	return nil
}

func (s *recordingSender) sentMails() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}
