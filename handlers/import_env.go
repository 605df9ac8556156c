package handlers

import (
	"net/http"
	"sync"

	"github.com/pocketbase/pocketbase"

	"fleetrecords/config"
	"fleetrecords/services"
)

// recentSessions is how many finished sessions are kept for the unmatched
// report and sync polling.
const recentSessions = 32

// ImportEnv is what the import handlers share: the app, its configuration,
// the per-kind import guard and the remote syncer (nil when sync is off).
type ImportEnv struct {
	App    *pocketbase.PocketBase
	Config *config.Config
	Guard  *services.ImportGuard
	Syncer services.Syncer

	sessions *sessionCache
}

// NewImportEnv wires the import handlers to app. An HTTPSyncer is set up
// only when cfg names a fleet API.
func NewImportEnv(app *pocketbase.PocketBase, cfg *config.Config) *ImportEnv {
	if cfg == nil {
		cfg = config.Default()
	}
	env := &ImportEnv{
		App:      app,
		Config:   cfg,
		Guard:    services.NewImportGuard(),
		sessions: newSessionCache(recentSessions),
	}
	if cfg.SyncEnabled() {
		env.Syncer = &services.HTTPSyncer{
			BaseURL:     cfg.APIURL,
			Token:       cfg.APIToken,
			Concurrency: cfg.SyncConcurrency,
			Client:      &http.Client{Timeout: cfg.SyncTimeout},
		}
	}
	return env
}

// sessionDeps builds the collaborators of one import session.
func (env *ImportEnv) sessionDeps() services.SessionDeps {
	return services.SessionDeps{
		Roster:      services.PocketBaseRoster{App: env.App},
		Store:       services.NewPocketBaseStoreRepository(env.App),
		Syncer:      env.Syncer,
		Guard:       env.Guard,
		SyncTimeout: env.Config.SyncTimeout,
	}
}

// sessionCache keeps the most recent session results, oldest evicted first.
type sessionCache struct {
	mu    sync.Mutex
	limit int
	order []string
	byID  map[string]*services.SessionResult
}

func newSessionCache(limit int) *sessionCache {
	return &sessionCache{limit: limit, byID: make(map[string]*services.SessionResult)}
}

func (c *sessionCache) put(res *services.SessionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[res.SessionID]; !ok {
		c.order = append(c.order, res.SessionID)
	}
	c.byID[res.SessionID] = res
	for len(c.order) > c.limit {
		delete(c.byID, c.order[0])
		c.order = c.order[1:]
	}
}

func (c *sessionCache) get(id string) (*services.SessionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.byID[id]
	return res, ok
}
