package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// MissingConfigError is returned when a section cannot be fully resolved
type MissingConfigError struct {
	Section string
	Keys    []string
	Sources []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing configuration for %q: %s (tried %s)",
		e.Section, strings.Join(e.Keys, ", "), strings.Join(e.Sources, " -> "))
}

// Source yields the raw key/value pairs it knows for a section
type Source interface {
	Name() string
	Section(name string) (map[string]interface{}, error)
}

// Provider resolves typed configuration sections from an ordered list of
// sources. Earlier sources win.
type Provider struct {
	sources []Source
}

// NewProvider creates a provider over the given sources
func NewProvider(sources ...Source) *Provider {
	return &Provider{sources: sources}
}

// Section binds the named section into out. Every field of out that no source
// supplies and that is not listed in optional is reported in a
// *MissingConfigError. Fields left optional keep whatever value out held.
func (p *Provider) Section(name string, out interface{}, optional ...string) error {
	values := map[string]interface{}{}
	for i := len(p.sources) - 1; i >= 0; i-- {
		src := p.sources[i]
		kv, err := src.Section(name)
		if err != nil {
			return fmt.Errorf("read %s from %s: %w", name, src.Name(), err)
		}
		for k, v := range kv {
			values[k] = v
		}
	}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("decode section %s: %w", name, err)
	}

	skip := make(map[string]bool, len(optional))
	for _, o := range optional {
		skip[o] = true
	}
	var missing []string
	for _, key := range md.Unset {
		if !skip[key] {
			missing = append(missing, name+"."+key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &MissingConfigError{Section: name, Keys: missing, Sources: p.sourceNames()}
	}
	return nil
}

func (p *Provider) sourceNames() []string {
	names := make([]string, 0, len(p.sources))
	for _, src := range p.sources {
		names = append(names, src.Name())
	}
	return names
}

// envAliases maps unprefixed deployment variables onto section keys. The
// SECTION_KEY form wins when both are set.
var envAliases = map[string]map[string]string{
	"server": {
		"port":     "PORT",
		"gin_mode": "GIN_MODE",
	},
}

// EnvSource reads SECTION_KEY environment variables, plus the bare PORT and
// GIN_MODE for the server section
type EnvSource struct{}

func (EnvSource) Name() string { return "env" }

func (EnvSource) Section(name string) (map[string]interface{}, error) {
	prefix := strings.ToUpper(name) + "_"
	out := map[string]interface{}{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || v == "" || !strings.HasPrefix(k, prefix) {
			continue
		}
		out[strings.ToLower(strings.TrimPrefix(k, prefix))] = v
	}
	for key, env := range envAliases[name] {
		if _, ok := out[key]; ok {
			continue
		}
		if v := os.Getenv(env); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

// SecretsDirSource reads one file per key, named <section>_<key>, from a
// directory such as /run/secrets. A missing directory yields nothing.
type SecretsDirSource struct {
	Dir string
}

func (s SecretsDirSource) Name() string { return "secrets:" + s.Dir }

func (s SecretsDirSource) Section(name string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if s.Dir == "" {
		return out, nil
	}
	prefix := strings.ToLower(name) + "_"
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range entries {
		fname := strings.ToLower(e.Name())
		if e.IsDir() || !strings.HasPrefix(fname, prefix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[strings.TrimPrefix(fname, prefix)] = v
		}
	}
	return out, nil
}

// FileSource reads a YAML document keyed by section name
type FileSource struct {
	Path     string
	sections map[string]map[string]interface{}
}

// NewFileSource parses path eagerly. A missing file yields an empty source.
func NewFileSource(path string) (*FileSource, error) {
	fs := &FileSource{Path: path, sections: map[string]map[string]interface{}{}}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &fs.sections); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fs, nil
}

func (f *FileSource) Name() string { return "file:" + f.Path }

func (f *FileSource) Section(name string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for k, v := range f.sections[name] {
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[strings.ToLower(k)] = v
	}
	return out, nil
}
