// Package formatter writes diff scripts and change reports.
package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/tordrt/schemadiff/internal/sqlgen"
)

// TextFormatter writes a script as plain SQL text
type TextFormatter struct {
	writer io.Writer
	header string
}

// NewTextFormatter creates a new text formatter. A non-empty header is
// written as a comment block before the first statement.
func NewTextFormatter(w io.Writer, header string) *TextFormatter {
	return &TextFormatter{writer: w, header: header}
}

// Format writes every statement of the script in order
func (f *TextFormatter) Format(list sqlgen.List) error {
	if f.header != "" {
		for _, line := range strings.Split(strings.TrimRight(f.header, "\n"), "\n") {
			if _, err := fmt.Fprintf(f.writer, "-- %s\n", line); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f.writer); err != nil {
			return err
		}
	}
	for _, s := range list {
		if _, err := io.WriteString(f.writer, s.SQL); err != nil {
			return err
		}
	}
	return nil
}

// WriteScriptFile writes the script to path, xz-compressed when the path
// ends in .xz.
func WriteScriptFile(path string, list sqlgen.List, header string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if !strings.HasSuffix(path, ".xz") {
		if err := NewTextFormatter(file, header).Format(list); err != nil {
			return fmt.Errorf("failed to write script: %w", err)
		}
		return file.Close()
	}

	zw, err := xz.NewWriter(file)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if err := NewTextFormatter(zw, header).Format(list); err != nil {
		return fmt.Errorf("failed to write script: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return file.Close()
}

// ReadScriptFile returns the script text stored at path, decompressing
// .xz files.
func ReadScriptFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	var r io.Reader = file
	if strings.HasSuffix(path, ".xz") {
		if r, err = xz.NewReader(file); err != nil {
			return "", fmt.Errorf("failed to open xz stream: %w", err)
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
