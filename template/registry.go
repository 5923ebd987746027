package template

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a template file:
//
//	dao: UserDao
//	methods:
//	  findActive: |
//	    select * from user where status = ${status}
type File struct {
	DAO     string            `yaml:"dao"`
	Methods map[string]string `yaml:"methods"`
}

// Registry holds parsed templates keyed by "Dao.method".
type Registry struct {
	logger  *slog.Logger
	workers int

	mu        sync.RWMutex
	templates map[string]*Template
	files     map[string][]string // file path -> keys it defines
	dirs      []string
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for reload messages.
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWorkers bounds the number of files parsed concurrently.
func WithWorkers(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:    slog.Default(),
		workers:   runtime.GOMAXPROCS(0),
		templates: make(map[string]*Template),
		files:     make(map[string][]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the registry key of a DAO method.
func Key(dao, method string) string {
	return dao + "." + method
}

// Lookup returns the template of dao.method.
func (r *Registry) Lookup(dao, method string) (*Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[Key(dao, method)]
	return t, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.templates))
	for k := range r.templates {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of registered templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Add parses text and registers it as dao.method, replacing any previous
// template.
func (r *Registry) Add(dao, method, text string) error {
	t, err := Parse(Key(dao, method), text)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.templates[t.Name()] = t
	r.mu.Unlock()
	return nil
}

// Load parses every *.yaml and *.yml file of dirs in parallel. Nothing is
// registered unless all files parse.
func (r *Registry) Load(ctx context.Context, dirs ...string) error {
	var paths []string
	for _, dir := range dirs {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return fmt.Errorf("template: glob %s: %w", dir, err)
			}
			paths = append(paths, matches...)
		}
	}
	slices.Sort(paths)

	parsed := make([]map[string]*Template, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for i, path := range paths {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			ts, err := LoadFile(path)
			if err != nil {
				return err
			}
			parsed[i] = ts
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, path := range paths {
		r.install(path, parsed[i])
	}
	for _, dir := range dirs {
		if !slices.Contains(r.dirs, dir) {
			r.dirs = append(r.dirs, dir)
		}
	}
	return nil
}

// install replaces the templates defined by path. Callers hold r.mu.
func (r *Registry) install(path string, ts map[string]*Template) {
	for _, k := range r.files[path] {
		delete(r.templates, k)
	}
	keys := make([]string, 0, len(ts))
	for k, t := range ts {
		r.templates[k] = t
		keys = append(keys, k)
	}
	slices.Sort(keys)
	r.files[path] = keys
}

// LoadFile parses one YAML template file.
func LoadFile(path string) (map[string]*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("template: decode %s: %w", path, err)
	}
	if f.DAO == "" {
		return nil, fmt.Errorf("template: %s: missing dao", path)
	}
	out := make(map[string]*Template, len(f.Methods))
	for method, text := range f.Methods {
		t, err := Parse(Key(f.DAO, method), text)
		if err != nil {
			return nil, fmt.Errorf("template: %s: %w", path, err)
		}
		out[t.Name()] = t
	}
	return out, nil
}

// Watch reloads changed template files of the loaded directories until ctx
// is done. A file that fails to parse keeps its previous templates. Watch
// returns nil when ctx is canceled.
func (r *Registry) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("template: watch: %w", err)
	}
	defer w.Close()

	r.mu.RLock()
	dirs := slices.Clone(r.dirs)
	r.mu.RUnlock()
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("template: watch %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			r.handle(ctx, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.ErrorContext(ctx, "template watch error", "error", err)
		}
	}
}

func (r *Registry) handle(ctx context.Context, ev fsnotify.Event) {
	ext := strings.ToLower(filepath.Ext(ev.Name))
	if ext != ".yaml" && ext != ".yml" {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		r.mu.Lock()
		r.install(ev.Name, nil)
		delete(r.files, ev.Name)
		r.mu.Unlock()
		r.logger.InfoContext(ctx, "templates removed", "file", ev.Name)
	case ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create):
		r.Reload(ctx, ev.Name)
	}
}

// Reload reparses one file. On failure the previous templates stay
// registered and the error is logged and returned.
func (r *Registry) Reload(ctx context.Context, path string) error {
	ts, err := LoadFile(path)
	if err != nil {
		r.logger.ErrorContext(ctx, "template reload failed", "file", path, "error", err)
		return err
	}
	r.mu.Lock()
	r.install(path, ts)
	r.mu.Unlock()
	r.logger.InfoContext(ctx, "templates reloaded", "file", path, "count", len(ts))
	return nil
}
