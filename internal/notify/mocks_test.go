package notify

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// memTaskStore is an in-memory store.TaskStore carrying just enough
// behavior for dispatch tests; selection queries live with the scanner.
type memTaskStore struct {
	mu    sync.Mutex
	tasks map[int64]*domain.Task
}

func newMemTaskStore(tasks ...*domain.Task) *memTaskStore {
	s := &memTaskStore{tasks: make(map[int64]*domain.Task)}
	for _, t := range tasks {
		copied := *t
		s.tasks[t.ID] = &copied
	}
	return s
}

func (s *memTaskStore) put(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.tasks[t.ID] = &copied
}

func (s *memTaskStore) remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

func (s *memTaskStore) Create(_ context.Context, task *domain.Task) error {
	s.put(task)
	return nil
}

func (s *memTaskStore) GetByID(_ context.Context, id int64, includeDeleted bool) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || (task.IsDeleted() && !includeDeleted) {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (s *memTaskStore) GetOwned(ctx context.Context, id int64, actor domain.ActorRef) (*domain.Task, error) {
	task, err := s.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(actor) {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (s *memTaskStore) Update(_ context.Context, task *domain.Task) error {
	s.put(task)
	return nil
}

func (s *memTaskStore) SoftDelete(_ context.Context, id int64, _ domain.ActorRef) error {
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

func (s *memTaskStore) Restore(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.DeletedAt = nil
	return nil
}

func (s *memTaskStore) ForceDelete(_ context.Context, id int64) error {
	s.remove(id)
	return nil
}

func (s *memTaskStore) List(context.Context, store.TaskFilter) ([]*domain.Task, error) {
	return nil, nil
}

func (s *memTaskStore) FindDueWithin(context.Context, time.Time, time.Duration, int) ([]*domain.Task, error) {
	return nil, nil
}

func (s *memTaskStore) MarkOverdue(context.Context, time.Time) ([]int64, error) {
	return nil, nil
}

func (s *memTaskStore) WithTx(*sql.Tx) store.TaskStore { return s }

type memUserStore struct {
	users map[int64]*domain.User
}

func newMemUserStore(users ...*domain.User) *memUserStore {
	s := &memUserStore{users: make(map[int64]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(_ context.Context, user *domain.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (s *memUserStore) WithTx(*sql.Tx) store.UserStore { return s }

type memAdminStore struct {
	admins map[int64]*domain.Admin
}

func newMemAdminStore(admins ...*domain.Admin) *memAdminStore {
	s := &memAdminStore{admins: make(map[int64]*domain.Admin)}
	for _, a := range admins {
		s.admins[a.ID] = a
	}
	return s
}

func (s *memAdminStore) Create(_ context.Context, admin *domain.Admin) error {
	s.admins[admin.ID] = admin
	return nil
}

func (s *memAdminStore) GetByID(_ context.Context, id int64) (*domain.Admin, error) {
	admin, ok := s.admins[id]
	if !ok {
		return nil, store.ErrAdminNotFound
	}
	return admin, nil
}

func (s *memAdminStore) WithTx(*sql.Tx) store.AdminStore { return s }

// memNotificationLog is an in-memory store.NotificationLogStore keyed the
// same way as the real table's uniqueness constraint.
type memNotificationLog struct {
	mu      sync.Mutex
	entries map[string]*store.NotificationLogEntry
}

func newMemNotificationLog() *memNotificationLog {
	return &memNotificationLog{entries: make(map[string]*store.NotificationLogEntry)}
}

func logKey(taskID int64, kind string, windowStart time.Time) string {
	return fmt.Sprintf("%d/%s/%d", taskID, kind, windowStart.Unix())
}

func (s *memNotificationLog) Record(_ context.Context, entry *store.NotificationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := logKey(entry.TaskID, entry.Kind, entry.WindowStart)
	if _, ok := s.entries[key]; ok {
		return store.ErrNotificationAlreadySent
	}
	s.entries[key] = entry
	return nil
}

func (s *memNotificationLog) WasSent(_ context.Context, taskID int64, kind string, windowStart time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[logKey(taskID, kind, windowStart)]
	return ok, nil
}

func (s *memNotificationLog) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *memNotificationLog) WithTx(*sql.Tx) store.NotificationLogStore { return s }

// sentMail captures one Send call.
type sentMail struct {
	To      string
	Subject string
	Body    string
}

// captureSender is an EmailSender recording every send; the first failTimes
// calls fail, which drives the retry-path tests.
type captureSender struct {
	mu        sync.Mutex
	sent      []sentMail
	failTimes int
	calls     int
}

func (s *captureSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failTimes {
		return fmt.Errorf("smtp refused (call %d)", s.calls)
	}
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *captureSender) sentMails() []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMail(nil), s.sent...)
}
