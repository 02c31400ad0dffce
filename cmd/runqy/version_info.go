package main

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	runqy "github.com/Publikey/runqy-go"
	"github.com/Publikey/runqy-go/internal/config"
)

var (
	versionOnce   sync.Once
	cachedVersion string
)

// appVersion returns the best-effort semantic version for the runqy binary.
// The lookup order is:
//  1. Explicit RUNQY_VERSION environment variable (useful for custom builds)
//  2. Go build information when available (e.g. go install ...@vX)
//  3. The library version
func appVersion() string {
	versionOnce.Do(func() {
		cachedVersion = detectVersion()
	})
	return cachedVersion
}

func detectVersion() string {
	if v, ok := config.DefaultEnvLookup("RUNQY_VERSION"); ok {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}

		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				return fmt.Sprintf("dev-%s", setting.Value)
			}
		}
	}

	return runqy.Version
}
