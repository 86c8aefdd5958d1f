package resp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// Frame size limits. A client exceeding them gets a protocol error and a
// disconnect instead of driving unbounded allocation on the server.
const (
	maxArrayLen  = 1024 * 1024
	maxBulkLen   = 32 << 20
	readerBuffer = 64 * 1024
)

// ProtocolError reports malformed framing from a client. Its text is sent
// verbatim in an error reply, after which the connection must be dropped:
// once framing is off the stream can no longer be trusted to be aligned
// on request boundaries.
type ProtocolError string

func (e ProtocolError) Error() string { return string(e) }

func protocolErrorf(format string, args ...any) error {
	return ProtocolError(fmt.Sprintf(format, args...))
}

// Reader decodes client requests from a stream.
type Reader struct {
	br *bufio.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, readerBuffer)}
}

// ReadCommand returns the next request as its raw argument vector.
//
// Requests are arrays of bulk strings. Anything not starting with '*' is
// treated as an inline command and split on whitespace, which is what
// makes the server usable from netcat. Blank inline lines and empty
// arrays yield a zero-length vector the caller should skip.
//
// Every returned argument is freshly allocated; holding on to one across
// calls is safe.
func (r *Reader) ReadCommand() ([][]byte, error) {
	first, err := r.br.ReadByte()
	if err != nil {
		return nil, err
	}

	if first == '*' {
		return r.readArray()
	}

	if err := r.br.UnreadByte(); err != nil {
		return nil, errors.Wrap(err, "unread type byte")
	}
	return r.readInline()
}

func (r *Reader) readArray() ([][]byte, error) {
	n, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if n < -1 || n > maxArrayLen {
		return nil, ProtocolError("ERR Protocol error: invalid multibulk length")
	}
	if n <= 0 {
		// Null or empty arrays carry no command.
		return nil, nil
	}

	capHint := n
	if capHint > 1024 {
		capHint = 1024
	}
	args := make([][]byte, 0, capHint)
	for i := int64(0); i < n; i++ {
		arg, err := r.readBulk()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (r *Reader) readBulk() ([]byte, error) {
	prefix, err := r.br.ReadByte()
	if err != nil {
		return nil, wrapEOF(err, "read bulk header")
	}
	if prefix != '$' {
		return nil, protocolErrorf("ERR Protocol error: expected '$', got '%c'", prefix)
	}

	n, err := r.readInt()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > maxBulkLen {
		return nil, ProtocolError("ERR Protocol error: invalid bulk length")
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, wrapEOF(err, "read bulk body")
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, ProtocolError("ERR Protocol error: bulk string missing CRLF")
	}
	return buf[:n:n], nil
}

// readInt reads a decimal integer terminated by a strict CRLF.
func (r *Reader) readInt() (int64, error) {
	line, err := r.br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return 0, ProtocolError("ERR Protocol error: line too long")
		}
		return 0, wrapEOF(err, "read length")
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return 0, ProtocolError("ERR Protocol error: line missing CRLF")
	}

	n, err := strconv.ParseInt(string(line[:len(line)-2]), 10, 64)
	if err != nil {
		return 0, ProtocolError("ERR Protocol error: invalid length")
	}
	return n, nil
}

// readInline splits one line into arguments. Unlike the framed path the
// terminator is lenient: a bare LF is accepted so hand-typed sessions
// work without -C flags.
func (r *Reader) readInline() ([][]byte, error) {
	line, err := r.br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, ProtocolError("ERR Protocol error: too big inline request")
		}
		return nil, wrapEOF(err, "read inline request")
	}

	fields := bytes.Fields(bytes.TrimRight(line, "\r\n"))
	args := make([][]byte, len(fields))
	for i, f := range fields {
		// bufio reuses the backing array on the next read
		args[i] = append([]byte(nil), f...)
	}
	return args, nil
}

// wrapEOF converts a mid-frame EOF into ErrUnexpectedEOF so a truncated
// request is distinguishable from a client closing between requests.
func wrapEOF(err error, msg string) error {
	if errors.Is(err, io.EOF) {
		return errors.Wrap(io.ErrUnexpectedEOF, msg)
	}
	return errors.Wrap(err, msg)
}
