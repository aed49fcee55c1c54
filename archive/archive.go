// Package archive enumerates and groups .ichat files by conversation
// participant.
package archive

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

// Archive files are named "<display-name> on YYYY-MM-DD at HH.MM.ichat";
// the display name is the conversation participant.
var filenamePattern = regexp.MustCompile(`^(.*?) on \d{4}-\d{2}-\d{2} at \d{2}\.\d{2}\.ichat$`)

var unsafeFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// Group is the set of archive files belonging to one participant.
type Group struct {
	Participant string
	Files       []string
}

// Participant derives the participant name from an archive filename.
// ok is false when the name does not follow the archive convention.
func Participant(filename string) (string, bool) {
	m := filenamePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SanitizeFilename replaces characters that are illegal in filenames
// with underscores.
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// Scan enumerates sourceDir and buckets matching archive files by
// participant. Groups are ordered by first appearance in the directory
// listing so repeated runs process participants in the same order.
// Files that do not follow the naming convention are logged and skipped.
func Scan(sourceDir string, logger *slog.Logger) ([]Group, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var groups []Group
	index := make(map[string]int)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		participant, ok := Participant(name)
		if !ok {
			if logger != nil {
				logger.Warn("skipping file with unexpected name format", "file", name)
			}
			continue
		}

		path := filepath.Join(sourceDir, name)
		if i, seen := index[participant]; seen {
			groups[i].Files = append(groups[i].Files, path)
			continue
		}
		index[participant] = len(groups)
		groups = append(groups, Group{Participant: participant, Files: []string{path}})
	}

	return groups, nil
}
