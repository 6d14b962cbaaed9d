package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	src := `# two blocks
REQUEST 0 40

  REQUEST 1 8000
FREE 0
REQUEST 0 12
FREE 1
FREE 0
`
	ops, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, []Op{
		{Kind: Request, ID: 0, Size: 40, Line: 2},
		{Kind: Request, ID: 1, Size: 8000, Line: 4},
		{Kind: Free, ID: 0, Line: 5},
		{Kind: Request, ID: 0, Size: 12, Line: 6},
		{Kind: Free, ID: 1, Line: 7},
		{Kind: Free, ID: 0, Line: 8},
	}, ops)
}

func TestParse_ByteOrderMark(t *testing.T) {
	ops, err := Parse(strings.NewReader("\ufeffREQUEST 3 10\r\nFREE 3\r\n"))
	require.NoError(t, err)
	require.Len(t, ops, 2)
	require.Equal(t, Request, ops[0].Kind)
	require.Equal(t, 3, ops[0].ID)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
		line string
	}{
		{"unknown keyword", "ALLOC 1 2\n", ErrSyntax, "line 1"},
		{"missing size", "REQUEST 1\n", ErrSyntax, "line 1"},
		{"zero size", "REQUEST 1 0\n", ErrSyntax, "line 1"},
		{"negative id", "REQUEST -1 5\n", ErrSyntax, "line 1"},
		{"free with size", "REQUEST 1 5\nFREE 1 5\n", ErrSyntax, "line 2"},
		{"free unknown", "# c\nFREE 9\n", ErrUnknownID, "line 2"},
		{"double free", "REQUEST 1 5\nFREE 1\nFREE 1\n", ErrUnknownID, "line 3"},
		{"duplicate live id", "REQUEST 1 5\n\nREQUEST 1 6\n", ErrDuplicateID, "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.ErrorIs(t, err, tt.want)
			require.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestWrite_ParseBack(t *testing.T) {
	ops := Generate(GenOptions{Seed: 3, Requests: 50})

	var out bytes.Buffer
	require.NoError(t, Write(&out, ops))
	require.True(t, strings.HasPrefix(out.String(), "REQUEST 0 "))

	parsed, err := Parse(&out)
	require.NoError(t, err)
	require.Len(t, parsed, len(ops))
	for i := range ops {
		require.Equal(t, ops[i].Kind, parsed[i].Kind)
		require.Equal(t, ops[i].ID, parsed[i].ID)
		require.Equal(t, ops[i].Size, parsed[i].Size)
	}
}

func TestGenerate(t *testing.T) {
	opts := GenOptions{Seed: 99, Requests: 300, MaxSize: 4096, FreeRatio: 0.3}
	ops := Generate(opts)
	require.Len(t, ops, 600, "every request is freed")
	require.Equal(t, ops, Generate(opts), "same seed, same trace")
	require.NotEqual(t, ops, Generate(GenOptions{Seed: 100, Requests: 300, MaxSize: 4096, FreeRatio: 0.3}))

	live := make(map[int]bool)
	for _, op := range ops {
		switch op.Kind {
		case Request:
			require.False(t, live[op.ID])
			require.GreaterOrEqual(t, op.Size, 1)
			require.LessOrEqual(t, op.Size, 4096)
			live[op.ID] = true
		case Free:
			require.True(t, live[op.ID])
			delete(live, op.ID)
		}
	}
	require.Empty(t, live)
}

func TestGenerate_Defaults(t *testing.T) {
	ops := Generate(GenOptions{})
	require.Len(t, ops, 2*DefaultRequests)
	for _, op := range ops {
		require.LessOrEqual(t, op.Size, DefaultMaxSize)
	}
}

func TestKindString(t *testing.T) {
	require.Equal(t, "REQUEST", Request.String())
	require.Equal(t, "FREE", Free.String())
	require.Equal(t, "Kind(7)", Kind(7).String())
	require.Equal(t, "FREE 4", Op{Kind: Free, ID: 4}.String())
}
