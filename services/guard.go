package services

import "sync"

// ImportGuard serializes imports per kind. A second import of the same kind
// is refused rather than queued.
type ImportGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewImportGuard() *ImportGuard {
	return &ImportGuard{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks kind and returns its release func, or ErrImportInProgress
// when another import of that kind holds it.
func (g *ImportGuard) Acquire(kind string) (func(), error) {
	g.mu.Lock()
	l, ok := g.locks[kind]
	if !ok {
		l = &sync.Mutex{}
		g.locks[kind] = l
	}
	g.mu.Unlock()

	if !l.TryLock() {
		return nil, ErrImportInProgress
	}
	var once sync.Once
	return func() { once.Do(l.Unlock) }, nil
}
