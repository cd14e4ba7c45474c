package ordering

import (
	"strings"
	"sync"

	"git.home.luguber.info/inful/prev/internal/config"
	"git.home.luguber.info/inful/prev/internal/docs"
)

// Store persists order records.
type Store interface {
	Load() (Record, error)
	Save(branch string, ids []string) error
}

// ConfigStore keeps orders in the project's configuration file.
type ConfigStore struct {
	rootDir string
}

func NewConfigStore(rootDir string) *ConfigStore {
	return &ConfigStore{rootDir: rootDir}
}

// Load reads the saved orders, normalizing legacy identifiers.
func (s *ConfigStore) Load() (Record, error) {
	cfg, err := config.Load(s.rootDir)
	if err != nil {
		return Record{}, err
	}
	return Normalize(cfg.Order), nil
}

// Save replaces the order of one branch. Concurrent writers are not
// coordinated; the last save wins.
func (s *ConfigStore) Save(branch string, ids []string) error {
	return config.UpdateOrder(s.rootDir, branchKey(branch), NormalizeIDs(ids))
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	record Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{record: Record{}}
}

func (s *MemoryStore) Load() (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(Record, len(s.record))
	for k, v := range s.record {
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

func (s *MemoryStore) Save(branch string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record[branchKey(branch)] = NormalizeIDs(ids)
	return nil
}

// Normalize returns a copy of r with legacy identifiers rewritten.
func Normalize(r map[string][]string) Record {
	out := make(Record, len(r))
	for k, ids := range r {
		out[branchKey(k)] = NormalizeIDs(ids)
	}
	return out
}

// NormalizeIDs rewrites legacy identifiers: "name/" becomes "folder:name"
// and a page file path ("guide/intro.md") becomes its route.
func NormalizeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, normalizeID(id))
	}
	return out
}

func normalizeID(id string) string {
	switch {
	case strings.HasPrefix(id, "folder:"), strings.HasPrefix(id, "/"):
		return id
	case strings.HasSuffix(id, "/"):
		name := strings.TrimSuffix(id, "/")
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return "folder:" + name
	case strings.HasSuffix(id, ".md"), strings.HasSuffix(id, ".mdx"):
		return docs.RouteFor(id)
	default:
		return id
	}
}

// branchKey maps the empty and "/" branch names to RootBranch.
func branchKey(branch string) string {
	branch = strings.Trim(branch, "/")
	if branch == "" {
		return RootBranch
	}
	return branch
}
