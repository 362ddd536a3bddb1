package batch

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"
)

var (
	ErrNoInputs = errors.New("no urls to clean")
)

// LoadInputs reads one URL per line. Blank lines, lines starting with '#'
// and repeated URLs are skipped.
func LoadInputs(r io.Reader) ([]string, error) {
	seen := make(map[string]struct{})
	var inputs []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			slog.Debug("duplicate input, skipping", slog.String("url", line))
			continue
		}
		seen[line] = struct{}{}
		inputs = append(inputs, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	slog.Debug("loaded inputs", "count", len(inputs))
	return inputs, nil
}
