// Package archive keeps the raw uploaded PDFs, one directory per team.
// The archive is retention only; retrieval never reads from it.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

type File struct {
	Name    string
	Content []byte
}

func (s *Store) teamDir(teamID int64) string {
	return filepath.Join(s.root, fmt.Sprintf("team_%d", teamID))
}

func (s *Store) Save(teamID int64, filename string, data []byte) error {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return fmt.Errorf("invalid filename %q", filename)
	}

	dir := s.teamDir(teamID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create team dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// List returns the team's archived PDFs with their contents. A team that has
// never uploaded anything gets an empty list, not an error.
func (s *Store) List(teamID int64) ([]File, error) {
	dir := s.teamDir(teamID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read team dir: %w", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		files = append(files, File{Name: e.Name(), Content: data})
	}
	return files, nil
}
