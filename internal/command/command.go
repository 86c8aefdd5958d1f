package command

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind identifies one of the commands the server understands. The set is
// closed: Parse maps everything else to an unknown-command error.
type Kind int

const (
	Ping Kind = iota
	Get
	Set
	MGet
	MSet
	Del
	Exists
	TTL
)

// Pair is one key/value assignment in an MSET batch.
type Pair struct {
	Key   string
	Value []byte
}

// Command is a fully validated client request. Which fields are populated
// depends on Kind; the engine never re-validates.
type Command struct {
	Kind  Kind
	Key   string
	Value []byte
	Keys  []string
	Pairs []Pair

	// Message is the optional PING payload. nil means a bare PING.
	Message []byte

	// TTLSeconds carries the EX argument when HasTTL is set.
	TTLSeconds int64
	HasTTL     bool
}

// Parse turns a raw argument vector into a Command.
//
// The first argument is the command name, matched case-insensitively.
// All arity and option validation happens here; errors carry the exact
// text sent back to the client.
func Parse(args [][]byte) (Command, error) {
	if len(args) == 0 {
		return Command{}, errors.New("ERR empty command")
	}

	name := strings.ToLower(string(args[0]))
	rest := args[1:]

	switch name {
	case "ping":
		return parsePing(rest)
	case "get":
		if len(rest) != 1 {
			return Command{}, wrongArity(name)
		}
		return Command{Kind: Get, Key: string(rest[0])}, nil
	case "set":
		return parseSet(rest)
	case "mget":
		if len(rest) < 1 {
			return Command{}, wrongArity(name)
		}
		return Command{Kind: MGet, Keys: toKeys(rest)}, nil
	case "mset":
		return parseMSet(rest)
	case "del":
		if len(rest) < 1 {
			return Command{}, wrongArity(name)
		}
		return Command{Kind: Del, Keys: toKeys(rest)}, nil
	case "exists":
		if len(rest) < 1 {
			return Command{}, wrongArity(name)
		}
		return Command{Kind: Exists, Keys: toKeys(rest)}, nil
	case "ttl":
		if len(rest) != 1 {
			return Command{}, wrongArity(name)
		}
		return Command{Kind: TTL, Key: string(rest[0])}, nil
	default:
		return Command{}, errors.Errorf("ERR unknown command '%s'", name)
	}
}

func parsePing(rest [][]byte) (Command, error) {
	if len(rest) > 1 {
		return Command{}, wrongArity("ping")
	}

	cmd := Command{Kind: Ping}
	if len(rest) == 1 {
		msg := rest[0]
		if msg == nil {
			msg = []byte{}
		}
		cmd.Message = msg
	}
	return cmd, nil
}

// parseSet handles SET key value [EX seconds].
func parseSet(rest [][]byte) (Command, error) {
	if len(rest) < 2 {
		return Command{}, wrongArity("set")
	}

	cmd := Command{
		Kind:  Set,
		Key:   string(rest[0]),
		Value: rest[1],
	}

	for i := 2; i < len(rest); {
		switch strings.ToLower(string(rest[i])) {
		case "ex":
			if cmd.HasTTL || i+1 >= len(rest) {
				return Command{}, errSyntax
			}
			secs, err := parseExpiry(rest[i+1], "set")
			if err != nil {
				return Command{}, err
			}
			cmd.TTLSeconds = secs
			cmd.HasTTL = true
			i += 2
		default:
			return Command{}, errSyntax
		}
	}

	return cmd, nil
}

// parseMSet handles MSET key value [key value ...] [EX seconds].
//
// The trailing pair is the expiry option when its first token is "ex"
// and at least one data pair precedes it. A key literally named "ex" can
// therefore only be written in a non-final position.
func parseMSet(rest [][]byte) (Command, error) {
	cmd := Command{Kind: MSet}

	if len(rest) >= 4 && strings.EqualFold(string(rest[len(rest)-2]), "ex") {
		secs, err := parseExpiry(rest[len(rest)-1], "mset")
		if err != nil {
			return Command{}, err
		}
		cmd.TTLSeconds = secs
		cmd.HasTTL = true
		rest = rest[:len(rest)-2]
	}

	if len(rest) == 0 || len(rest)%2 != 0 {
		return Command{}, wrongArity("mset")
	}

	cmd.Pairs = make([]Pair, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		cmd.Pairs = append(cmd.Pairs, Pair{
			Key:   string(rest[i]),
			Value: rest[i+1],
		})
	}

	return cmd, nil
}

var errSyntax = errors.New("ERR syntax error")

func wrongArity(name string) error {
	return errors.Errorf("ERR wrong number of arguments for '%s' command", name)
}

// parseExpiry validates an EX operand: it must be an integer, and zero or
// negative lifetimes are rejected rather than treated as instant expiry.
func parseExpiry(b []byte, name string) (int64, error) {
	secs, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, errors.New("ERR value is not an integer or out of range")
	}
	if secs <= 0 {
		return 0, errors.Errorf("ERR invalid expire time in '%s' command", name)
	}
	return secs, nil
}

func toKeys(args [][]byte) []string {
	keys := make([]string, len(args))
	for i, a := range args {
		keys[i] = string(a)
	}
	return keys
}
