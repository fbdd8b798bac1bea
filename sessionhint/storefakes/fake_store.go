package storefakes

import (
	"context"
	"sync"

	"github.com/odrpress/go-session-server/sessionhint"
)

var _ sessionhint.Store = (*FakeStore)(nil)

type FakeStore struct {
	hints map[string]sessionhint.Hint
	lock  sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{hints: make(map[string]sessionhint.Hint)}
}

func (fs *FakeStore) Put(_ context.Context, tokenRef string, hint sessionhint.Hint) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.hints[tokenRef] = hint
	return nil
}

func (fs *FakeStore) Get(_ context.Context, tokenRef string) (*sessionhint.Hint, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	hint, ok := fs.hints[tokenRef]
	if !ok {
		return nil, nil
	}
	copied := hint
	return &copied, nil
}

func (fs *FakeStore) Clear(_ context.Context, tokenRef string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	delete(fs.hints, tokenRef)
	return nil
}

// Len reports the number of cached hints, for tests.
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.hints)
}
