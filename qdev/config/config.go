// Package config provides the configuration-loading idiom used by
// qdevcore's ambient stack: a small YAML-plus-environment-override loader
// for the global property-default overrides (see the property package),
// adapted from the teacher SDK's search-path based config.Loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lalithsuresh/qdevcore/internal/corelog"
	"gopkg.in/yaml.v2"
)

// Policy determines whether a given piece of configuration is required or
// merely optional; missing-but-optional configuration is not an error.
type Policy string

const (
	// Required means the configuration must be found, or Load fails.
	Required Policy = "required"

	// Optional means the configuration may be absent without error.
	Optional Policy = "optional"
)

// Policies groups the policies governing qdevcore's optional startup
// configuration.
type Policies struct {
	// GlobalDefaults governs whether the global property-defaults file
	// must exist.
	GlobalDefaults Policy
}

// NewDefaultPolicies returns the default policy set: everything optional.
func NewDefaultPolicies() *Policies {
	return &Policies{
		GlobalDefaults: Optional,
	}
}

// GlobalDefaultsEnvOverride is the environment variable that, if set,
// overrides the search path for the global property-defaults file.
const GlobalDefaultsEnvOverride = "QDEVCORE_GLOBAL_DEFAULTS"

// Loader loads a single YAML configuration file from a set of search
// paths, with an optional environment-variable override. It is a
// deliberately narrow tool: qdevcore only has one configuration document
// (global property defaults), so there is no need for the teacher SDK's
// full multi-file merge machinery.
type Loader struct {
	// Name is used only for logging.
	Name string

	// SearchPaths are tried, in order, until a file is found.
	SearchPaths []string

	// EnvOverride, if set and present in the environment, is used
	// in place of the search paths.
	EnvOverride string
}

// AddSearchPaths appends search paths to the loader.
func (l *Loader) AddSearchPaths(paths ...string) {
	l.SearchPaths = append(l.SearchPaths, paths...)
}

// Load finds and parses the configuration file into out (a pointer to a
// zero-value struct/map), honoring the given policy. If no file is found
// and pol is Optional, Load returns nil without touching out.
func (l *Loader) Load(pol Policy, out interface{}) error {
	path := l.resolvePath()

	logEntry := corelog.WithFields(corelog.Fields{
		"loader": l.Name,
		"path":   path,
		"policy": pol,
	})

	if path == "" {
		if pol == Optional {
			logEntry.Debug("[config] no configuration found, skipping (optional)")
			return nil
		}
		logEntry.Error("[config] no configuration found")
		return fmt.Errorf("config %q: no configuration file found in %v", l.Name, l.SearchPaths)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config %q: failed to read %s: %w", l.Name, path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config %q: failed to parse %s: %w", l.Name, path, err)
	}

	logEntry.Info("[config] loaded configuration")
	return nil
}

// resolvePath applies the environment override (if set) then falls back
// to the first search path entry that exists on disk.
func (l *Loader) resolvePath() string {
	if l.EnvOverride != "" {
		if v := os.Getenv(l.EnvOverride); v != "" {
			return v
		}
	}
	for _, p := range l.SearchPaths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// GlobalDefaults is the parsed shape of the global property-defaults file:
// a mapping from "kindName.propertyName" to an override value.
type GlobalDefaults map[string]interface{}

// Split decomposes a "kindName.propertyName" key into its parts.
func (g GlobalDefaults) Split(key string) (kind, property string, ok bool) {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}

// ByKind reshapes the flat GlobalDefaults mapping into a nested
// kind-name -> property-name -> value structure for easy lookup during
// device creation.
func (g GlobalDefaults) ByKind() map[string]map[string]interface{} {
	out := map[string]map[string]interface{}{}
	for key, val := range g {
		kind, prop, ok := g.Split(key)
		if !ok {
			continue
		}
		if out[kind] == nil {
			out[kind] = map[string]interface{}{}
		}
		out[kind][prop] = val
	}
	return out
}

// DefaultSearchPaths returns the conventional locations qdevcore looks for
// its global-defaults file, local directory first.
func DefaultSearchPaths(name string) []string {
	return []string{
		filepath.Join(".", "config", name+".yaml"),
		filepath.Join("/etc", "qdevcore", name+".yaml"),
	}
}
