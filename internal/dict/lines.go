package dict

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// readLines feeds r to fn one line at a time with line endings and a leading
// byte order mark stripped. Line numbers start at 1.
func readLines(r io.Reader, fn func(lineNo int, line string) error) error {
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("dict: read line %d: %w", lineNo, err)
		}
		if line == "" && err != nil {
			return nil
		}
		line = strings.TrimRight(line, "\r\n")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if !utf8.ValidString(line) {
			return fmt.Errorf("%w: line %d is not valid UTF-8", ErrInvalidFormat, lineNo)
		}
		if ferr := fn(lineNo, line); ferr != nil {
			return ferr
		}
		if err != nil {
			return nil
		}
	}
}
