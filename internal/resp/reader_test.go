package resp

import (
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readOne(t *testing.T, input string) ([][]byte, error) {
	t.Helper()
	return NewReader(strings.NewReader(input)).ReadCommand()
}

func TestReader_Arrays(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single argument",
			input: "*1\r\n$4\r\nPING\r\n",
			want:  []string{"PING"},
		},
		{
			name:  "three arguments",
			input: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$5\r\nhello\r\n",
			want:  []string{"SET", "k", "hello"},
		},
		{
			name:  "empty bulk argument",
			input: "*2\r\n$4\r\nPING\r\n$0\r\n\r\n",
			want:  []string{"PING", ""},
		},
		{
			name:  "binary safe payload",
			input: "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$4\r\na\r\nb\r\n",
			want:  []string{"SET", "k", "a\r\nb"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readOne(t, tc.input)
			require.NoError(t, err)

			require.Len(t, got, len(tc.want))
			for i, w := range tc.want {
				assert.Equal(t, []byte(w), got[i])
			}
		})
	}
}

func TestReader_Inline(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"crlf terminated", "PING\r\n", []string{"PING"}},
		{"lf terminated", "GET k\n", []string{"GET", "k"}},
		{"extra whitespace", "  SET   k   v  \r\n", []string{"SET", "k", "v"}},
		{"blank line", "\r\n", nil},
		{"whitespace only", "   \n", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := readOne(t, tc.input)
			require.NoError(t, err)

			require.Len(t, got, len(tc.want))
			for i, w := range tc.want {
				assert.Equal(t, []byte(w), got[i])
			}
		})
	}
}

func TestReader_SequentialCommands(t *testing.T) {
	r := NewReader(strings.NewReader("*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\nPING\r\n"))

	first, err := r.ReadCommand()
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, []byte("PING"), first[0])

	second, err := r.ReadCommand()
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, []byte("GET"), second[0])

	third, err := r.ReadCommand()
	require.NoError(t, err)
	require.Len(t, third, 1)

	_, err = r.ReadCommand()
	assert.Equal(t, io.EOF, err)
}

func TestReader_EmptyAndNullArrays(t *testing.T) {
	r := NewReader(strings.NewReader("*0\r\n*-1\r\n*1\r\n$4\r\nPING\r\n"))

	for i := 0; i < 2; i++ {
		got, err := r.ReadCommand()
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	// The stream stays aligned afterwards.
	got, err := r.ReadCommand()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []byte("PING"), got[0])
}

func TestReader_ProtocolErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"array length not a number", "*abc\r\n"},
		{"array length below -1", "*-2\r\n"},
		{"element is not a bulk string", "*1\r\n+PING\r\n"},
		{"negative bulk length", "*1\r\n$-1\r\n"},
		{"bulk length not a number", "*1\r\n$x\r\n"},
		{"bulk body missing terminator", "*1\r\n$3\r\nfooXX"},
		{"length line missing CR", "*1\n$4\r\nPING\r\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readOne(t, tc.input)
			require.Error(t, err)

			var pe ProtocolError
			assert.True(t, errors.As(err, &pe), "expected a protocol error, got %v", err)
		})
	}
}

func TestReader_OversizedInlineRequest(t *testing.T) {
	_, err := readOne(t, strings.Repeat("a", readerBuffer+1)+"\n")

	var pe ProtocolError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Error(), "too big inline request")
}

func TestReader_TruncatedFrames(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"array header only", "*2\r\n"},
		{"bulk header only", "*1\r\n$4\r\n"},
		{"bulk body cut short", "*1\r\n$4\r\nPI"},
		{"inline without newline", "PING"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := readOne(t, tc.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
		})
	}
}

func TestReader_CleanEOF(t *testing.T) {
	_, err := readOne(t, "")
	assert.Equal(t, io.EOF, err)
}

func TestReader_ArgumentsDoNotAliasBuffer(t *testing.T) {
	r := NewReader(strings.NewReader("GET first\r\nGET second\r\n"))

	first, err := r.ReadCommand()
	require.NoError(t, err)

	_, err = r.ReadCommand()
	require.NoError(t, err)

	// The first command's arguments survive the next read untouched.
	assert.Equal(t, []byte("first"), first[1])
}
