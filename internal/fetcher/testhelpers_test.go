package fetcher

import (
	"bufio"
	"os"
	"strings"
)

// writeTestFile is a helper that writes data to a file path.
func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// sniffLine runs delimiter detection over an in-memory string.
func sniffLine(s string) rune {
	return sniffDelimiter(bufio.NewReader(strings.NewReader(s)))
}
