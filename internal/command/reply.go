package command

// ReplyType discriminates the closed set of reply shapes the engine
// produces. The protocol layer maps each to its wire representation.
type ReplyType int

const (
	SimpleReply ReplyType = iota
	BulkReply
	IntReply
	ArrayReply
	NilReply
	ErrorReply
)

// Reply is the engine's answer to one command, independent of how it is
// serialized.
type Reply struct {
	Type  ReplyType
	Str   string  // SimpleReply status or ErrorReply message
	Bulk  []byte  // BulkReply payload
	Int   int64   // IntReply value
	Elems []Reply // ArrayReply elements
}

func SimpleString(s string) Reply { return Reply{Type: SimpleReply, Str: s} }

func Bulk(b []byte) Reply { return Reply{Type: BulkReply, Bulk: b} }

func Int(n int64) Reply { return Reply{Type: IntReply, Int: n} }

// Nil is the null bulk reply, reported for missing keys.
func Nil() Reply { return Reply{Type: NilReply} }

func Array(elems []Reply) Reply { return Reply{Type: ArrayReply, Elems: elems} }

func Error(msg string) Reply { return Reply{Type: ErrorReply, Str: msg} }
