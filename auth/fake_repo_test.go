package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/user/accounts-go/store"
)

// fakeRepo is an in-memory store.Repository. The *Err fields force failures,
// and raceOnCreate makes ExistsByUsername lie so a concurrent insert can be simulated.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]*store.User

	existsErr    error
	createErr    error
	getErr       error
	raceOnCreate bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*store.User)}
}

func (f *fakeRepo) Create(_ context.Context, user *store.User) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.users[user.Username]; ok {
		return nil, store.ErrDuplicateUsername
	}
	f.nextID++
	u := *user
	u.ID = f.nextID
	f.users[u.Username] = &u
	return &u, nil
}

func (f *fakeRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.raceOnCreate {
		return false, nil
	}
	_, ok := f.users[username]
	return ok, nil
}

func (f *fakeRepo) GetByUsername(_ context.Context, username string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) Ping(context.Context) error { return nil }

var errDBDown = errors.New("connection refused")
