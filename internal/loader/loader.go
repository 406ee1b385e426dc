package loader

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/nthflow/internal/model"
	"github.com/sourceplane/nthflow/internal/schema"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Loader discovers definition files and parses them into raw definitions
type Loader struct {
	pattern   string
	workers   int
	validator *schema.Validator
	logger    *slog.Logger
}

// Option configures a Loader
type Option func(*Loader)

// WithWorkers bounds how many files are parsed concurrently
func WithWorkers(n int) Option {
	return func(l *Loader) {
		l.workers = n
	}
}

// WithValidator checks every file against a schema before it is split into definitions
func WithValidator(v *schema.Validator) Option {
	return func(l *Loader) {
		l.validator = v
	}
}

// WithLogger sets the logger used for discovery and parsing messages
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a loader for a definition path.
// Supported forms:
//   - "flows/etl.yml"    a single file
//   - "flows"            every .yml/.yaml file directly inside the directory
//   - "flows/*.yml"      a glob, evaluated with filepath.Glob
//   - "flows/**/*.yml"   recursive: every file under flows whose name matches *.yml
func NewLoader(pattern string, opts ...Option) *Loader {
	l := &Loader{
		pattern: pattern,
		workers: 1,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.workers < 1 {
		l.workers = 1
	}
	return l
}

// Load discovers and parses every definition file.
// Files are processed in lexical order and workflows keep their order within a file.
func (l *Loader) Load(ctx context.Context) ([]model.Definition, error) {
	files, err := l.Discover()
	if err != nil {
		return nil, err
	}
	l.logger.Info("found definition files", "count", len(files), "pattern", l.pattern)

	parsed := make([][]model.Definition, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defs, err := l.ReadFile(path)
			if err != nil {
				return err
			}
			parsed[i] = defs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var defs []model.Definition
	for _, fileDefs := range parsed {
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

// Discover resolves the pattern into a sorted list of definition files
func (l *Loader) Discover() ([]string, error) {
	var files []string

	switch {
	case strings.Contains(l.pattern, "**"):
		matches, err := walkRecursive(l.pattern)
		if err != nil {
			return nil, err
		}
		files = matches

	case strings.ContainsAny(l.pattern, "*?["):
		matches, err := filepath.Glob(l.pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate glob pattern %s: %w", l.pattern, err)
		}
		for _, match := range matches {
			expanded, err := expand(match)
			if err != nil {
				return nil, err
			}
			files = append(files, expanded...)
		}

	default:
		expanded, err := expand(l.pattern)
		if err != nil {
			return nil, err
		}
		files = expanded
	}

	files = dedupe(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("pattern %s matched no definition files", l.pattern)
	}
	return files, nil
}

// ReadFile parses one definition file
func (l *Loader) ReadFile(path string) ([]model.Definition, error) {
	l.logger.Debug("reading definition file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file %s: %w", path, err)
	}

	defs, err := l.parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

func (l *Loader) parse(path string, data []byte) ([]model.Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse definition YAML: %w", err)
	}

	// An empty file defines no workflows
	if doc.Kind == 0 || len(doc.Content) == 0 {
		l.logger.Warn("definition file is empty", "path", path)
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must map workflow names to definitions")
	}

	if l.validator != nil {
		var generic interface{}
		if err := root.Decode(&generic); err != nil {
			return nil, fmt.Errorf("failed to decode definitions: %w", err)
		}
		if err := l.validator.Validate(stringKeys(generic)); err != nil {
			return nil, fmt.Errorf("schema validation failed: %w", err)
		}
	}

	// Walk the mapping node pairwise to keep declaration order
	defs := make([]model.Definition, 0, len(root.Content)/2)
	seen := make(map[string]bool, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		name := key.Value
		if seen[name] {
			return nil, fmt.Errorf("line %d: workflow %q defined twice", key.Line, name)
		}
		seen[name] = true

		var decoded interface{}
		if err := value.Decode(&decoded); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", name, err)
		}
		var raw map[string]interface{}
		switch v := stringKeys(decoded).(type) {
		case nil:
		case map[string]interface{}:
			raw = v
		default:
			return nil, fmt.Errorf("line %d: workflow %q must be a mapping, got %T", value.Line, name, v)
		}

		defs = append(defs, model.Definition{
			Name:   name,
			Source: path,
			Raw:    raw,
		})
	}

	return defs, nil
}

// stringKeys rewrites every nested map[interface{}]interface{} that yaml.v3
// produces for non-string keys (e.g. {1: one}) into map[string]interface{},
// so parameters stay JSON-encodable.
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case map[string]interface{}:
		for k, item := range t {
			t[k] = stringKeys(item)
		}
		return t
	case []interface{}:
		for i, item := range t {
			t[i] = stringKeys(item)
		}
		return t
	default:
		return v
	}
}

// expand turns a directory into its YAML files and leaves files untouched
func expand(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access definition path %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	return files, nil
}

// walkRecursive handles "root/**/name-pattern"
func walkRecursive(pattern string) ([]string, error) {
	idx := strings.Index(pattern, "**")
	root := filepath.Clean(pattern[:idx])
	if pattern[:idx] == "" {
		root = "."
	}
	namePattern := strings.TrimLeft(pattern[idx+2:], `/\`)
	if namePattern == "" {
		namePattern = "*"
	}
	if _, err := filepath.Match(namePattern, ""); err != nil {
		return nil, fmt.Errorf("failed to evaluate glob pattern %s: %w", pattern, err)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// plain "**" selects YAML files only
		if namePattern == "*" && !isYAML(d.Name()) {
			return nil
		}
		if ok, _ := filepath.Match(namePattern, d.Name()); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", root, err)
	}
	return files, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yml" || ext == ".yaml"
}

func dedupe(files []string) []string {
	sort.Strings(files)
	out := files[:0]
	for i, f := range files {
		if i > 0 && f == files[i-1] {
			continue
		}
		out = append(out, f)
	}
	return out
}
