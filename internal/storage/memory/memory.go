// Package memory is an in-process storage.Store used by tests and the
// STORAGE_DRIVER=memory mode. Transactions snapshot the whole dataset and
// swap it in on success.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "habitsAPI/internal/errors"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/types/completion"
	"habitsAPI/internal/types/friendship"
	"habitsAPI/internal/types/habit"
	"habitsAPI/internal/types/notification"
	"habitsAPI/internal/types/user"
)

type completionRow struct {
	completion.Completion
	seq int64
}

type dataset struct {
	users         map[uuid.UUID]*user.User
	habits        map[uuid.UUID]*habit.Habit
	completions   map[uuid.UUID]*completionRow
	friendships   map[uuid.UUID]*friendship.Friendship
	notifications map[uuid.UUID]*notification.Notification
	devices       map[string]*notification.DeviceToken
	seq           int64
}

func newDataset() *dataset {
	return &dataset{
		users:         make(map[uuid.UUID]*user.User),
		habits:        make(map[uuid.UUID]*habit.Habit),
		completions:   make(map[uuid.UUID]*completionRow),
		friendships:   make(map[uuid.UUID]*friendship.Friendship),
		notifications: make(map[uuid.UUID]*notification.Notification),
		devices:       make(map[string]*notification.DeviceToken),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	c.seq = d.seq
	for k, v := range d.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range d.habits {
		h := *v
		c.habits[k] = &h
	}
	for k, v := range d.completions {
		r := *v
		c.completions[k] = &r
	}
	for k, v := range d.friendships {
		f := *v
		c.friendships[k] = &f
	}
	for k, v := range d.notifications {
		n := *v
		c.notifications[k] = &n
	}
	for k, v := range d.devices {
		t := *v
		c.devices[k] = &t
	}
	return c
}

// Store keeps everything in maps guarded by a single mutex.
type Store struct {
	root *Store
	mu   *sync.Mutex
	data *dataset
	inTx bool
	now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	s := &Store{
		mu:   &sync.Mutex{},
		data: newDataset(),
		now:  time.Now,
	}
	s.root = s
	return s
}

// SetNow overrides the timestamp source for created_at/updated_at columns.
func (s *Store) SetNow(now func() time.Time) {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	s.root.now = now
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) timestamp() time.Time {
	return s.root.now().UTC()
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Store{root: s.root, mu: s.mu, data: s.data.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

func notFound(what string) error {
	return apperrors.NotFoundf("%s not found", what)
}
