package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadTokens reads the moderator bearer tokens from path, one per line.
// Surrounding whitespace is trimmed and blank lines are skipped. The file is
// read once; edits take effect on restart.
func LoadTokens(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tokens file: %w", err)
	}
	defer f.Close()

	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			tokens = append(tokens, t)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}
	return tokens, nil
}
