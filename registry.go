package pakfs

import (
	"fmt"
	"sync"

	"github.com/meigma/pakfs/internal/location"
)

// Registry hands out one shared Archive per canonical container path.
//
// Paths are canonicalized before lookup: a pak: or file: prefix and any
// !entry suffix are removed, the path is made absolute and cleaned, and on
// the OS filesystem symlinks are resolved. Archives stay registered until
// Remove or Close. A Registry is safe for concurrent use.
type Registry struct {
	cfg config

	mu       sync.Mutex
	archives map[string]*Archive
	closed   bool
}

// NewRegistry returns an empty registry. The options are applied to every
// archive it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		cfg:      newConfig(opts),
		archives: make(map[string]*Archive),
	}
}

// Canonical returns the key the registry uses for containerPath.
func (r *Registry) Canonical(containerPath string) (string, error) {
	return location.Canonical(containerPath, r.cfg.onOS())
}

// OpenOrGet returns the archive registered for containerPath, creating and
// registering one if none exists. Two calls naming the same container return
// the same *Archive. The container must exist; its table is parsed lazily.
func (r *Registry) OpenOrGet(containerPath string) (*Archive, error) {
	key, err := r.Canonical(containerPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if a, ok := r.archives[key]; ok {
		r.cfg.log().Debug("registry hit", "path", key)
		return a, nil
	}

	info, err := r.cfg.fs.Stat(key)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open container %s: %w", key, ErrNotDir)
	}

	a := newArchive(key, r.cfg)
	r.archives[key] = a
	r.cfg.log().Debug("registry create", "path", key, "size", info.Size())
	return a, nil
}

// Resolve parses a [pak:]container[!entry] location and returns the archive
// along with the entry name, which is empty when the location names the
// archive itself. The entry is not checked for existence.
func (r *Registry) Resolve(loc string) (*Archive, string, error) {
	l, err := location.Parse(loc)
	if err != nil {
		return nil, "", err
	}
	a, err := r.OpenOrGet(l.Container)
	if err != nil {
		return nil, "", err
	}
	return a, l.Entry, nil
}

// Get returns the archive registered for containerPath, if any.
func (r *Registry) Get(containerPath string) (*Archive, bool) {
	key, err := r.Canonical(containerPath)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.archives[key]
	return a, ok
}

// Len returns the number of registered archives.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.archives)
}

// Remove unregisters the archive for containerPath and reports whether one
// was registered. Readers already opened from it keep working.
func (r *Registry) Remove(containerPath string) bool {
	key, err := r.Canonical(containerPath)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.archives[key]; !ok {
		return false
	}
	delete(r.archives, key)
	r.cfg.log().Debug("registry remove", "path", key)
	return true
}

// Close unregisters every archive. Later calls to OpenOrGet and Resolve fail
// with ErrRegistryClosed; a second Close is a no-op.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archives = make(map[string]*Archive)
	r.closed = true
	return nil
}

// ParseLocation splits a [pak:]container[!entry] string.
func ParseLocation(s string) (Location, error) {
	return location.Parse(s)
}
