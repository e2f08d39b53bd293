package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	Name   string // for defaults
	File   string
	Line   int
	Column int
}

func (s Source) position() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "spanwm", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the defaults.
//
// Relative paths in wallpaper, logging.file and touch.device_dir are resolved
// against the directory of the file that set them, and "~" against $HOME.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{
		seen:    make(map[string]struct{}),
		sources: make(map[string]Source),
	}

	raw := RawConfig{}
	if _, err := os.Stat(path); err == nil {
		if raw, err = l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := BuildEffectiveConfig(raw)
	if err := cfg.Validate(); err != nil {
		return nil, l.withSource(err)
	}
	if err := l.checkDeviceDir(cfg); err != nil {
		return nil, l.withSource(err)
	}

	return &LoadResult{
		Config:  cfg,
		Sources: l.sources,
		Files:   l.files,
	}, nil
}

// loader walks a config file and its includes depth first. Includes are
// merged in listed order and the including file is applied last, so the
// later writer of a key wins both the value and its recorded source.
type loader struct {
	seen    map[string]struct{}
	stack   []string
	sources map[string]Source
	files   []string
}

func (l *loader) load(path string) (RawConfig, error) {
	file, err := canonicalPath(path)
	if err != nil {
		return RawConfig{}, err
	}
	if slices.Contains(l.stack, file) {
		return RawConfig{}, fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.stack, " -> "), file)
	}
	if _, ok := l.seen[file]; ok {
		return RawConfig{}, nil
	}
	l.seen[file] = struct{}{}

	data, err := os.ReadFile(file)
	if err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var raw RawConfig
	if err := decodeStrictYAML(data, &raw); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", file, err)
	}
	if err := raw.resolvePaths(filepath.Dir(file)); err != nil {
		return RawConfig{}, fmt.Errorf("%s: %w", file, err)
	}

	l.stack = append(l.stack, file)
	defer func() { l.stack = l.stack[:len(l.stack)-1] }()

	merged := RawConfig{}
	positions := includePositions(root(&doc), file)
	for i, inc := range raw.Include {
		paths, err := expandInclude(filepath.Dir(file), inc)
		if err != nil {
			pos := Source{File: file}
			if i < len(positions) {
				pos = positions[i]
			}
			return RawConfig{}, fmt.Errorf("%s: include %q: %w", pos.position(), inc, err)
		}
		for _, p := range paths {
			incRaw, err := l.load(p)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(incRaw)
		}
	}

	trackSources(root(&doc), file, "", l.sources)
	l.files = append(l.files, file)
	return merged.merge(raw), nil
}

// checkDeviceDir rejects a touch.device_dir set in a file that is not an
// existing directory. The default is not checked so that headless hosts
// still load.
func (l *loader) checkDeviceDir(cfg *Config) error {
	if !cfg.Touch.Enabled {
		return nil
	}
	if _, ok := l.sources["touch.device_dir"]; !ok {
		return nil
	}
	info, err := os.Stat(cfg.Touch.DeviceDir)
	if err != nil {
		return &ValidationError{Path: "touch.device_dir", Err: err}
	}
	if !info.IsDir() {
		return &ValidationError{Path: "touch.device_dir", Err: fmt.Errorf("%s is not a directory", cfg.Touch.DeviceDir)}
	}
	return nil
}

func (l *loader) withSource(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := l.sources[verr.Path]; ok {
		verr.Source = src
	}
	return verr
}

// resolvePaths rewrites the file-system paths this file sets so they no
// longer depend on which file set them.
func (c *RawConfig) resolvePaths(dir string) error {
	for _, p := range []*string{c.Wallpaper, loggingFile(c.Logging), touchDir(c.Touch)} {
		if p == nil || *p == "" {
			continue
		}
		resolved, err := resolveAgainst(dir, *p)
		if err != nil {
			return err
		}
		*p = resolved
	}
	return nil
}

func loggingFile(c *RawLoggingConfig) *string {
	if c == nil {
		return nil
	}
	return c.File
}

func touchDir(c *RawTouchConfig) *string {
	if c == nil {
		return nil
	}
	return c.DeviceDir
}

func resolveAgainst(dir, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is empty")
	}
	path = expandHome(path)
	if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("%s: cannot expand home directory", path)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Join(dir, path), nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// expandInclude turns one include entry into the files it names. An entry is
// a file, a directory (its *.yaml and *.yml files) or a glob pattern; the
// last two are returned in lexical order.
func expandInclude(dir, include string) ([]string, error) {
	path, err := resolveAgainst(dir, include)
	if err != nil {
		return nil, err
	}

	if strings.ContainsAny(path, "*?[") {
		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, err
		}
		files := yamlFiles(matches)
		if len(files) == 0 {
			return nil, fmt.Errorf("no yaml files match %s", path)
		}
		return files, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ent := range entries {
		if !ent.IsDir() {
			names = append(names, filepath.Join(path, ent.Name()))
		}
	}
	return yamlFiles(names), nil
}

func yamlFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out
}

func root(doc *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0]
	}
	return doc
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// trackSources records, for every key path in node, where its value starts.
// Sequences are recorded as a whole.
func trackSources(node *yaml.Node, file, prefix string, out map[string]Source) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		out[key] = nodeSource(file, val)
		trackSources(val, file, key, out)
	}
}

// includePositions returns the position of each include entry, in order.
func includePositions(node *yaml.Node, file string) []Source {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "include" {
			continue
		}
		val := node.Content[i+1]
		if val.Kind != yaml.SequenceNode {
			return []Source{nodeSource(file, val)}
		}
		out := make([]Source, 0, len(val.Content))
		for _, item := range val.Content {
			out = append(out, nodeSource(file, item))
		}
		return out
	}
	return nil
}
