package dict

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// connector is the dense connection-cost matrix from matrix.def, indexed by
// the right id of the preceding word and the left id of the following word.
type connector struct {
	numRight int
	numLeft  int
	costs    []int16
}

func newConnector(numRight, numLeft int) *connector {
	return &connector{
		numRight: numRight,
		numLeft:  numLeft,
		costs:    make([]int16, numRight*numLeft),
	}
}

func (c *connector) cost(right, left uint16) int16 {
	return c.costs[int(right)*c.numLeft+int(left)]
}

func (c *connector) check(p WordParam) error {
	if int(p.LeftID) >= c.numLeft {
		return fmt.Errorf("left id %d out of range (matrix has %d)", p.LeftID, c.numLeft)
	}
	if int(p.RightID) >= c.numRight {
		return fmt.Errorf("right id %d out of range (matrix has %d)", p.RightID, c.numRight)
	}
	return nil
}

func parseMatrix(r io.Reader) (*connector, error) {
	var conn *connector
	err := readLines(r, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}
		if conn == nil {
			if len(fields) != 2 {
				return fmt.Errorf("%w: matrix.def line %d: header needs 2 fields, got %d", ErrInvalidFormat, lineNo, len(fields))
			}
			numRight, err := parseID(fields[0])
			if err != nil {
				return fmt.Errorf("%w: matrix.def line %d: %v", ErrInvalidFormat, lineNo, err)
			}
			numLeft, err := parseID(fields[1])
			if err != nil {
				return fmt.Errorf("%w: matrix.def line %d: %v", ErrInvalidFormat, lineNo, err)
			}
			if numRight == 0 || numLeft == 0 {
				return fmt.Errorf("%w: matrix.def line %d: empty matrix %dx%d", ErrInvalidFormat, lineNo, numRight, numLeft)
			}
			conn = newConnector(numRight, numLeft)
			return nil
		}
		if len(fields) != 3 {
			return fmt.Errorf("%w: matrix.def line %d: want 3 fields, got %d", ErrInvalidFormat, lineNo, len(fields))
		}
		right, err := parseID(fields[0])
		if err != nil {
			return fmt.Errorf("%w: matrix.def line %d: %v", ErrInvalidFormat, lineNo, err)
		}
		left, err := parseID(fields[1])
		if err != nil {
			return fmt.Errorf("%w: matrix.def line %d: %v", ErrInvalidFormat, lineNo, err)
		}
		cost, err := strconv.ParseInt(fields[2], 10, 16)
		if err != nil {
			return fmt.Errorf("%w: matrix.def line %d: cost %q: %v", ErrInvalidFormat, lineNo, fields[2], err)
		}
		if right >= conn.numRight || left >= conn.numLeft {
			return fmt.Errorf("%w: matrix.def line %d: (%d, %d) outside %dx%d", ErrInvalidFormat, lineNo, right, left, conn.numRight, conn.numLeft)
		}
		conn.costs[right*conn.numLeft+left] = int16(cost)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: matrix.def is empty", ErrInvalidFormat)
	}
	return conn, nil
}

func parseID(s string) (int, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", s, err)
	}
	return int(v), nil
}
