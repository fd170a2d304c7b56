package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tordrt/schemadiff/internal/sqlgen"
)

// MultiFileFormatter writes a report to a directory: _overview.md, the
// whole script as _script.sql, and one numbered file per changed object
// holding its statements.
type MultiFileFormatter struct {
	OutputDir string
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string) *MultiFileFormatter {
	return &MultiFileFormatter{OutputDir: outputDir}
}

// Format writes the report to multiple files
func (f *MultiFileFormatter) Format(r *Report) error {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	groups := groupByTarget(r.Script)

	if err := f.writeOverview(r, groups); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}
	if err := WriteScriptFile(filepath.Join(f.OutputDir, "_script.sql"), r.Script, ""); err != nil {
		return err
	}

	for i, g := range groups {
		if err := f.writeTargetFile(i, g); err != nil {
			return fmt.Errorf("failed to write file for %s: %w", g.target, err)
		}
	}

	return nil
}

// targetGroup holds the statements of one object in script order
type targetGroup struct {
	target string
	list   sqlgen.List
}

// groupByTarget splits the script by target, ordered by first appearance
func groupByTarget(list sqlgen.List) []targetGroup {
	index := make(map[string]int)
	var groups []targetGroup
	for _, s := range list {
		key := strings.ToLower(s.Target)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, targetGroup{target: s.Target})
		}
		groups[i].list = append(groups[i].list, s)
	}
	return groups
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (f *MultiFileFormatter) fileName(i int, target string) string {
	name := unsafeFileChars.ReplaceAllString(target, "_")
	if name == "" {
		name = "database"
	}
	return fmt.Sprintf("%03d_%s.sql", i+1, name)
}

// writeOverview writes the overview file
func (f *MultiFileFormatter) writeOverview(r *Report, groups []targetGroup) error {
	filename := filepath.Join(f.OutputDir, "_overview.md")

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if err := NewMarkdownFormatter(file).Format(r); err != nil {
		return err
	}

	if len(groups) > 0 {
		_, _ = fmt.Fprintf(file, "## Files\n\n")
		_, _ = fmt.Fprintf(file, "Run `_script.sql`, or the numbered files in order.\n\n")
		for i, g := range groups {
			_, _ = fmt.Fprintf(file, "- `%s` (%s, %d statements)\n", f.fileName(i, g.target), g.target, len(g.list))
		}
	}

	return file.Close()
}

// writeTargetFile writes the statements of one object to its own file
func (f *MultiFileFormatter) writeTargetFile(i int, g targetGroup) error {
	filename := filepath.Join(f.OutputDir, f.fileName(i, g.target))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if err := NewTextFormatter(file, g.target).Format(g.list); err != nil {
		return err
	}
	return file.Close()
}
