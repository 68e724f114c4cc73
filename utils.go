package vocconv

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ReadImageIDs reads the whitespace-separated image IDs from the image set file at path.
func ReadImageIDs(path string) ([]string, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read the image set %q", path)
	}

	return strings.Fields(string(data)), nil
}

// fileExists reports whether path exists. Paths that cannot be stat'ed for other reasons count as
// existing so that the subsequent read reports the actual error.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// readLines returns a slice of lines read from the file at path.
func readLines(path string) (lines []string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %q as lines", path)
	}

	return lines, nil
}

// readFile uses io.ReadAll to read the file at path.
func readFile(path string) (data []byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer closeWithErrCheck(f, &err)

	return io.ReadAll(f)
}

// closeWithErrCheck calls c.Close() and appends its error, if any, to *e.
func closeWithErrCheck(c io.Closer, e *error) {
	multierr.AppendInto(e, c.Close())
}
