package core

import (
	"sync"

	"shelfadmin/external/github"
	"shelfadmin/internal/config"
	"shelfadmin/internal/database"

	"github.com/bits-and-blooms/bloom/v3"
)

type AdminServer struct {
	Cfg   *config.Config
	DB    database.Database
	Store github.ContentStore

	// slugs seen by this process, gates the remote existence probe.
	// The filter is not safe for concurrent use and every upload
	// request runs on its own goroutine, so mu guards it.
	mu    sync.Mutex
	slugs *bloom.BloomFilter
}

func (s *AdminServer) slugSeen(slug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slugs.TestString(slug)
}

func (s *AdminServer) rememberSlug(slug string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slugs.AddString(slug)
}

func NewAdminServer(cfg *config.Config, db database.Database, store github.ContentStore) *AdminServer {
	return &AdminServer{
		Cfg:   cfg,
		DB:    db,
		Store: store,
		slugs: bloom.NewWithEstimates(10_000, 0.01),
	}
}
