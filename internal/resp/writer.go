package resp

import (
	"bufio"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"redis-server/internal/command"
)

// Writer encodes replies onto a stream. Writes are buffered; callers
// flush once per request so each reply reaches the client in one piece.
type Writer struct {
	bw *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) Flush() error { return w.bw.Flush() }

func (w *Writer) WriteSimpleString(s string) error {
	w.bw.WriteByte('+')
	w.bw.WriteString(s)
	_, err := w.bw.WriteString("\r\n")
	return err
}

func (w *Writer) WriteError(msg string) error {
	w.bw.WriteByte('-')
	w.bw.WriteString(msg)
	_, err := w.bw.WriteString("\r\n")
	return err
}

func (w *Writer) WriteInteger(n int64) error {
	w.bw.WriteByte(':')
	w.bw.WriteString(strconv.FormatInt(n, 10))
	_, err := w.bw.WriteString("\r\n")
	return err
}

func (w *Writer) WriteBulk(b []byte) error {
	w.bw.WriteByte('$')
	w.bw.WriteString(strconv.Itoa(len(b)))
	w.bw.WriteString("\r\n")
	w.bw.Write(b)
	_, err := w.bw.WriteString("\r\n")
	return err
}

// WriteNull is the null bulk string, how a missing key reads on the wire.
func (w *Writer) WriteNull() error {
	_, err := w.bw.WriteString("$-1\r\n")
	return err
}

func (w *Writer) WriteArrayHeader(n int) error {
	w.bw.WriteByte('*')
	w.bw.WriteString(strconv.Itoa(n))
	_, err := w.bw.WriteString("\r\n")
	return err
}

// WriteReply serializes an engine reply, recursing through arrays.
func (w *Writer) WriteReply(r command.Reply) error {
	switch r.Type {
	case command.SimpleReply:
		return w.WriteSimpleString(r.Str)
	case command.ErrorReply:
		return w.WriteError(r.Str)
	case command.IntReply:
		return w.WriteInteger(r.Int)
	case command.BulkReply:
		return w.WriteBulk(r.Bulk)
	case command.NilReply:
		return w.WriteNull()
	case command.ArrayReply:
		if err := w.WriteArrayHeader(len(r.Elems)); err != nil {
			return err
		}
		for _, e := range r.Elems {
			if err := w.WriteReply(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unsupported reply type %d", r.Type)
	}
}
