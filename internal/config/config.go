package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/izzyreal/reportviewer/internal/protocol"
)

type File struct {
	Version int `yaml:"version" json:"version"`
	// Source is the report root: an http(s) base URL or a local directory.
	Source  string `yaml:"source" json:"source"`
	CacheDB string `yaml:"cache_db,omitempty" json:"cache_db,omitempty"`
	// Counterparts maps a backend to the backend its timings are compared with.
	Counterparts map[string]string `yaml:"counterparts,omitempty" json:"counterparts,omitempty"`
	// Include and Exclude are doublestar patterns over "component/testType/version".
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

func Default() File {
	return File{Version: 1}
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	return Parse(data, path)
}

func Parse(data []byte, source string) (File, error) {
	var cfg File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate leaves source optional; it may still come from the environment.
// ValidateSource checks it once all layers are applied.
func (cfg File) Validate() []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if strings.TrimSpace(cfg.Source) != "" {
		errs = append(errs, cfg.ValidateSource()...)
	}

	backends := make([]string, 0, len(cfg.Counterparts))
	for b := range cfg.Counterparts {
		backends = append(backends, b)
	}
	sort.Strings(backends)
	for _, b := range backends {
		cp := cfg.Counterparts[b]
		switch {
		case strings.TrimSpace(b) == "":
			errs = append(errs, "counterparts contains empty backend name")
		case strings.TrimSpace(cp) == "":
			errs = append(errs, fmt.Sprintf("counterparts[%q] must not be empty", b))
		case cp == b:
			errs = append(errs, fmt.Sprintf("counterparts[%q] must name a different backend", b))
		}
	}

	for i, p := range cfg.Include {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Sprintf("include[%d] invalid pattern %q", i, p))
		}
	}
	for i, p := range cfg.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Sprintf("exclude[%d] invalid pattern %q", i, p))
		}
	}
	return errs
}

func (cfg File) ValidateSource() []string {
	src := strings.TrimSpace(cfg.Source)
	if src == "" {
		return []string{"source is required"}
	}
	if strings.Contains(src, "://") {
		u, err := url.Parse(src)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return []string{fmt.Sprintf("source %q must be an http(s) URL or a directory", src)}
		}
	}
	return nil
}

// Filter limits which versions of the report tree are visible.
type Filter struct {
	include []string
	exclude []string
}

func (cfg File) Filter() Filter {
	return Filter{include: cfg.Include, exclude: cfg.Exclude}
}

// Allows reports whether component/testType/version passes the filter. An
// empty include list admits everything; exclude always wins.
func (f Filter) Allows(component, testType, version string) bool {
	key := component + "/" + testType + "/" + version
	if len(f.include) > 0 && !matchAny(f.include, key) {
		return false
	}
	return !matchAny(f.exclude, key)
}

// Apply returns a copy of m without filtered versions. Test types and
// components left empty are dropped as well.
func (f Filter) Apply(m protocol.Manifest) protocol.Manifest {
	if len(f.include) == 0 && len(f.exclude) == 0 {
		return m
	}
	out := protocol.Manifest{}
	for c, types := range m {
		for t, versions := range types {
			for v, entry := range versions {
				if !f.Allows(c, t, v) {
					continue
				}
				if out[c] == nil {
					out[c] = map[string]map[string]protocol.VersionEntry{}
				}
				if out[c][t] == nil {
					out[c][t] = map[string]protocol.VersionEntry{}
				}
				out[c][t][v] = entry
			}
		}
	}
	return out
}

func matchAny(patterns []string, key string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, key); err == nil && ok {
			return true
		}
	}
	return false
}
