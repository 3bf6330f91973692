// Package prompt manages the system prompt templates agents send to
// the LLM. Defaults are compiled into the binary; a prompts directory
// can override them or add new ones.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

//go:embed templates
var defaultTemplates embed.FS

// ErrTemplateNotFound is returned when no template has the given name.
var ErrTemplateNotFound = errors.New("template not found")

// Registry serves named prompt templates. Reload rebuilds the set from
// the embedded defaults plus the override directory, so deleting an
// override falls back to the default.
type Registry struct {
	mu     sync.RWMutex
	dir    string
	tmpl   map[string]string
	logger *zap.Logger
}

// NewRegistry loads the embedded templates and, if dir is non-empty,
// overrides from *.txt files in it. The directory may not exist yet.
func NewRegistry(dir string, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		dir:    dir,
		tmpl:   make(map[string]string),
		logger: logger.Named("prompt"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the override directory, empty if none was configured.
func (r *Registry) Dir() string {
	return r.dir
}

// Reload rebuilds the template set: embedded defaults first, then the
// override directory on top.
func (r *Registry) Reload() error {
	tmpl := make(map[string]string)

	entries, err := defaultTemplates.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read embedded templates: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := defaultTemplates.ReadFile(path.Join("templates", e.Name()))
		if err != nil {
			return fmt.Errorf("failed to read embedded template %s: %w", e.Name(), err)
		}
		tmpl[strings.TrimSuffix(e.Name(), ".txt")] = string(data)
	}

	if r.dir != "" {
		overrides, err := loadDir(r.dir)
		if err != nil {
			return err
		}
		for name, content := range overrides {
			tmpl[name] = content
		}
	}

	r.mu.Lock()
	r.tmpl = tmpl
	r.mu.Unlock()

	r.logger.Debug("templates loaded", zap.Int("count", len(tmpl)))
	return nil
}

func loadDir(dir string) (map[string]string, error) {
	out := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("failed to read prompts directory: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ".txt")] = string(data)
	}
	return out, nil
}

// Get returns the raw template body.
func (r *Registry) Get(name string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tmpl[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}

// Render substitutes {{key}} placeholders from vars. Placeholders
// without a matching var are left untouched.
func (r *Registry) Render(name string, vars map[string]string) (string, error) {
	content, err := r.Get(name)
	if err != nil {
		return "", err
	}
	if !strings.Contains(content, "{{") {
		return content, nil
	}

	for key, val := range vars {
		placeholder := "{{" + key + "}}"
		if strings.Contains(content, placeholder) {
			content = strings.ReplaceAll(content, placeholder, val)
		}
	}
	return content, nil
}

// Names lists the available templates, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tmpl))
	for name := range r.tmpl {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
