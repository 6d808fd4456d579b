package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
)

const upTemplate = `-- {{.Name}}
-- {{.Description}}

BEGIN;

COMMIT;
`

const downTemplate = `-- {{.Name}} (rollback)

BEGIN;

COMMIT;
`

// MigrationFile is a generated up/down pair
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	UpPath      string
	DownPath    string
}

// CreateMigration writes a timestamped up/down pair into dir
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	return createMigrationAt(dir, name, description, time.Now().UTC())
}

func createMigrationAt(dir, name, description string, now time.Time) (*MigrationFile, error) {
	base := sanitizeName(name)
	if base == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	version := now.Format("20060102150405")
	stem := filepath.Join(dir, version+"_"+base)
	mf := &MigrationFile{
		Version:     version,
		Name:        base,
		Description: description,
		UpPath:      stem + ".up.sql",
		DownPath:    stem + ".down.sql",
	}

	if err := renderFile(mf.UpPath, upTemplate, mf); err != nil {
		return nil, fmt.Errorf("failed to create up migration: %w", err)
	}
	if err := renderFile(mf.DownPath, downTemplate, mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("failed to create down migration: %w", err)
	}
	return mf, nil
}

func renderFile(path, content string, data *MigrationFile) error {
	tmpl, err := template.New("migration").Parse(content)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	return tmpl.Execute(f, data)
}

// sanitizeName lowercases and collapses separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(name) {
		switch {
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the sorted base names of all up migrations in dir
func ListMigrations(dir string) ([]string, error) {
	ups, _, err := scan(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ups))
	for base := range ups {
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}

// Verify checks that every migration has both halves
func Verify(dir string) error {
	ups, downs, err := scan(dir)
	if err != nil {
		return err
	}
	var problems []string
	for base := range ups {
		if !downs[base] {
			problems = append(problems, base+": missing .down.sql")
		}
	}
	for base := range downs {
		if !ups[base] {
			problems = append(problems, base+": missing .up.sql")
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("incomplete migrations: %s", strings.Join(problems, "; "))
	}
	return nil
}

func scan(dir string) (ups, downs map[string]bool, err error) {
	ups, downs = map[string]bool{}, map[string]bool{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return ups, downs, nil
		}
		return nil, nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	return ups, downs, nil
}
