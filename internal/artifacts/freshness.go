// Package artifacts maintains the agent log files the dashboard exposes.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const headerPrefix = "Last run: "

// Updater stamps a "Last run" header onto a fixed set of log artifacts after
// each completed cycle. Updates are best-effort: failures are logged at warn
// level and never propagated.
type Updater struct {
	dir   string
	files []string
}

// NewUpdater creates an updater for the named artifacts under dir.
func NewUpdater(dir string, files []string) *Updater {
	return &Updater{dir: dir, files: files}
}

// Files returns the managed artifact names.
func (u *Updater) Files() []string {
	return u.files
}

// Read returns the content of one managed artifact. Unknown names are
// rejected so callers cannot reach outside the log directory.
func (u *Updater) Read(name string) (string, error) {
	if !u.manages(name) {
		return "", fmt.Errorf("unknown log artifact: %s", name)
	}

	b, err := os.ReadFile(filepath.Join(u.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "Log file not found - run a cycle first", nil
		}
		return "", fmt.Errorf("failed to read log %s: %w", name, err)
	}
	return string(b), nil
}

// Touch prepends or replaces the "Last run" header on every managed artifact.
func (u *Updater) Touch(now time.Time) {
	header := headerPrefix + now.Format("2006-01-02 15:04:05") + "\n"

	for _, name := range u.files {
		path := filepath.Join(u.dir, name)

		content := ""
		if b, err := os.ReadFile(path); err == nil {
			content = string(b)
		} else if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", name).Msg("Failed to read log artifact")
			continue
		}

		if strings.HasPrefix(content, headerPrefix) {
			if _, rest, found := strings.Cut(content, "\n"); found {
				content = header + rest
			} else {
				content = header
			}
		} else {
			content = header + content
		}

		if err := os.MkdirAll(u.dir, 0o755); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to create log directory")
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Failed to update log timestamp")
		}
	}
}

func (u *Updater) manages(name string) bool {
	for _, f := range u.files {
		if f == name {
			return true
		}
	}
	return false
}
