// Package trace reads, writes, generates and replays allocation traces.
//
// A trace is a text file with one operation per line:
//
//	# comment
//	REQUEST 0 40
//	REQUEST 1 8000
//	FREE 0
//	FREE 1
//
// Ids are non-negative integers. An id may be reused once it has been freed.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Kind is the operation type of a trace line.
type Kind uint8

const (
	Request Kind = iota // allocate a block for an id
	Free                // release the block of an id
)

func (k Kind) String() string {
	switch k {
	case Request:
		return KeywordRequest
	case Free:
		return KeywordFree
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Op is one trace operation. Size is zero for Free.
type Op struct {
	Kind Kind
	ID   int
	Size int
	Line int // source line, 0 for generated ops
}

func (op Op) String() string {
	if op.Kind == Request {
		return fmt.Sprintf("%s %d %d", KeywordRequest, op.ID, op.Size)
	}
	return fmt.Sprintf("%s %d", KeywordFree, op.ID)
}

// Parse reads a trace and checks that every FREE names a live id and no REQUEST
// reuses a live one. Sizes are only checked to be positive; the allocator decides
// what it can serve.
func Parse(r io.Reader) ([]Op, error) {
	// Traces edited on Windows may carry a UTF-8 BOM.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, ScannerInitialBufferSize), ScannerMaxLineSize)

	var ops []Op
	live := make(map[int]int) // id -> line of its REQUEST
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		op, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		op.Line = lineNo

		switch op.Kind {
		case Request:
			if prev, ok := live[op.ID]; ok {
				return nil, fmt.Errorf("line %d: %w: %d (requested on line %d)", lineNo, ErrDuplicateID, op.ID, prev)
			}
			live[op.ID] = lineNo
		case Free:
			if _, ok := live[op.ID]; !ok {
				return nil, fmt.Errorf("line %d: %w: %d", lineNo, ErrUnknownID, op.ID)
			}
			delete(live, op.ID)
		}
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}
	return ops, nil
}

func parseLine(line string) (Op, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case KeywordRequest:
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("%w: %s takes an id and a size: %q", ErrSyntax, KeywordRequest, line)
		}
		id, err := parseID(fields[1])
		if err != nil {
			return Op{}, err
		}
		size, err := strconv.Atoi(fields[2])
		if err != nil || size < 1 {
			return Op{}, fmt.Errorf("%w: bad size %q", ErrSyntax, fields[2])
		}
		return Op{Kind: Request, ID: id, Size: size}, nil

	case KeywordFree:
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("%w: %s takes an id: %q", ErrSyntax, KeywordFree, line)
		}
		id, err := parseID(fields[1])
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Free, ID: id}, nil
	}
	return Op{}, fmt.Errorf("%w: unknown operation %q", ErrSyntax, fields[0])
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: bad id %q", ErrSyntax, s)
	}
	return id, nil
}

// Write writes ops in trace format.
func Write(w io.Writer, ops []Op) error {
	bw := bufio.NewWriter(w)
	for _, op := range ops {
		if _, err := bw.WriteString(op.String()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
