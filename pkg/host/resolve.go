package host

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PathMapping is one `pattern -> replacements` entry from the
// resolution config, mirroring tsconfig's `paths` field.
type PathMapping struct {
	Pattern      string
	Replacements []string
}

// ResolutionConfig controls the host's custom module resolver.
type ResolutionConfig struct {
	BaseURL       string
	PathsBasePath string
	PathMappings  []PathMapping
}

// NativeResolveFunc is the TGT service's own resolver, tried before the
// host's custom logic. A false second return value means "no opinion".
type NativeResolveFunc func(name, containingFile string) (Resolution, bool)

// resolveModuleName resolves a single import specifier against the
// registered transpilers and the resolution config, per spec §4.E:
// native resolver first, then extension matching, then path-mapping or
// relative resolution, then directory index scanning.
func resolveModuleName(
	name, containingFile string,
	transpilers []Transpiler,
	cfg ResolutionConfig,
	native NativeResolveFunc,
) (*Resolution, bool) {
	if native != nil {
		if res, ok := native(name, containingFile); ok {
			return &res, true
		}
	}

	ext := filepath.Ext(name)
	var matched *Transpiler
	directoryRequest := ext == ""
	if !directoryRequest {
		for i := range transpilers {
			if transpilers[i].SourceExt == ext {
				matched = &transpilers[i]
				break
			}
		}
		if matched == nil {
			return nil, false
		}
	}

	existsFn := directoryExists
	if matched != nil {
		existsFn = fileExists
	}

	var candidate string
	if isRelativeSpecifier(name) {
		candidate = filepath.Join(filepath.Dir(containingFile), name)
	} else {
		candidate = resolveAbsoluteSpecifier(name, cfg)
		if candidate == "" {
			return nil, false
		}
	}

	if !existsFn(candidate) {
		return nil, false
	}

	if directoryExists(candidate) && directoryRequest {
		for _, t := range transpilers {
			idx := filepath.Join(candidate, "index"+t.SourceExt)
			if fileExists(idx) {
				return &Resolution{
					ResolvedFileName: idx + t.TargetExt,
					Extension:        t.TargetExt,
				}, true
			}
		}
		return nil, false
	}

	return &Resolution{
		ResolvedFileName: candidate + matched.TargetExt,
		Extension:        matched.TargetExt,
	}, true
}

func isRelativeSpecifier(name string) bool {
	return strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") || name == "." || name == ".."
}

// resolveAbsoluteSpecifier applies path-mapping first (tie-broken by
// longest matched pattern), then falls back to baseUrl.
func resolveAbsoluteSpecifier(name string, cfg ResolutionConfig) string {
	base := cfg.BaseURL
	if base == "" {
		base = cfg.PathsBasePath
	}
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}

	type candidateMatch struct {
		patternLen int
		path       string
	}
	var matches []candidateMatch

	for _, pm := range cfg.PathMappings {
		if strings.HasSuffix(pm.Pattern, "*") {
			prefix := strings.TrimSuffix(pm.Pattern, "*")
			if strings.HasPrefix(name, prefix) {
				tail := name[len(prefix):]
				for _, repl := range pm.Replacements {
					resolved := strings.Replace(repl, "*", tail, 1)
					matches = append(matches, candidateMatch{len(prefix), filepath.Join(base, resolved)})
				}
			}
		} else if pm.Pattern == name {
			for _, repl := range pm.Replacements {
				matches = append(matches, candidateMatch{len(pm.Pattern), filepath.Join(base, repl)})
			}
		}
	}

	if len(matches) > 0 {
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].patternLen > matches[j].patternLen })
		return matches[0].path
	}

	if cfg.BaseURL != "" {
		return filepath.Join(cfg.BaseURL, name)
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func directoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
