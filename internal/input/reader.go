package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrNotReadable = errors.New("file is not readable")
)

const maxLineSize = 1024 * 1024

// Check verifies that path names a readable regular file.
func Check(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("%s: %w: %v", path, ErrNotReadable, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w: not a regular file", path, ErrNotReadable)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrNotReadable, err)
	}
	return f.Close()
}

// ReadLines returns the non-empty trimmed lines of the file at path, in order.
func ReadLines(path string) ([]string, error) {
	if err := Check(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNotReadable, err)
	}
	defer file.Close()

	lines, err := Lines(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNotReadable, err)
	}
	return lines, nil
}

// Lines reads line-delimited entries from r, dropping blank lines.
func Lines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\uFEFF")
			first = false
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines, scanner.Err()
}
