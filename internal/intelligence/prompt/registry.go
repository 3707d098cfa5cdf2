// Package prompt loads the LLM prompt templates. Defaults are embedded in the
// binary; an optional YAML file overrides individual templates by name and is
// reloaded when it changes on disk.
package prompt

import (
	"bytes"
	"context"
	_ "embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Template names.
const (
	SMILESExtraction    = "smiles_extraction"
	BindingExtraction   = "binding_extraction"
	ChatSystem          = "chat_system"
	ADMETExplanation    = "admet_explanation"
	AffinityExplanation = "affinity_explanation"
	ChatSummary         = "chat_summary"
)

//go:embed templates.yaml
var defaultTemplates []byte

type templateFile struct {
	Prompts map[string]string `yaml:"prompts"`
}

// Registry holds the parsed templates. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template

	overridePath string
	logger       logging.Logger
}

// NewRegistry parses the embedded defaults and, when overridePath is not
// empty, the override file on top of them.
func NewRegistry(overridePath string, logger logging.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	r := &Registry{
		overridePath: overridePath,
		logger:       logger.Named("prompt"),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the override file. The previous templates stay in place
// when parsing fails.
func (r *Registry) Reload() error {
	sources, err := parseTemplateFile(defaultTemplates)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodePromptRenderFailed, "parse embedded prompts")
	}

	if r.overridePath != "" {
		data, err := os.ReadFile(r.overridePath)
		switch {
		case err == nil:
			overrides, perr := parseTemplateFile(data)
			if perr != nil {
				return errors.Wrap(perr, errors.ErrCodePromptRenderFailed, "parse prompt overrides").
					WithDetail(r.overridePath)
			}
			for name, body := range overrides {
				sources[name] = body
			}
		case os.IsNotExist(err):
			r.logger.Warn("prompt override file not found, using defaults", logging.String("path", r.overridePath))
		default:
			return errors.Wrap(err, errors.ErrCodePromptNotFound, "read prompt overrides").WithDetail(r.overridePath)
		}
	}

	parsed := make(map[string]*template.Template, len(sources))
	for name, body := range sources {
		t, err := template.New(name).Option("missingkey=error").Parse(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodePromptRenderFailed, "parse prompt template").WithDetail(name)
		}
		parsed[name] = t
	}

	r.mu.Lock()
	r.templates = parsed
	r.mu.Unlock()
	r.logger.Debug("prompts loaded", logging.Int("count", len(parsed)))
	return nil
}

func parseTemplateFile(data []byte) (map[string]string, error) {
	var f templateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Prompts == nil {
		f.Prompts = make(map[string]string)
	}
	return f.Prompts, nil
}

// Render executes the named template with data.
func (r *Registry) Render(name string, data interface{}) (string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return "", errors.New(errors.ErrCodePromptNotFound, "prompt template not found").WithDetail(name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, errors.ErrCodePromptRenderFailed, "render prompt").WithDetail(name)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Names lists the loaded template names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Watch reloads the override file whenever it is written or recreated, until
// ctx is done. It is a no-op without an override file.
func (r *Registry) Watch(ctx context.Context) error {
	if r.overridePath == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create prompt watcher")
	}
	// Editors replace files on save, so watch the directory rather than the file.
	dir := filepath.Dir(r.overridePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Wrap(err, errors.CodeInternal, "watch prompt directory").WithDetail(dir)
	}

	target := filepath.Clean(r.overridePath)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
					continue
				}
				if err := r.Reload(); err != nil {
					r.logger.Error("prompt reload failed", logging.Err(err))
					continue
				}
				r.logger.Info("prompts reloaded", logging.String("path", r.overridePath))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Warn("prompt watcher error", logging.Err(err))
			}
		}
	}()
	return nil
}

//Personal.AI order the ending
