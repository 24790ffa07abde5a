package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
)

type idKind uint8

const (
	idAbsent idKind = iota
	idNumber
	idString
)

// ID correlates a response with its request. It is either a number or a string.
// The zero value is an absent id and encodes as JSON null; it only appears in
// error responses for payloads that could not be parsed.
//
// ID is comparable, so it can be used with == and as a map key.
type ID struct {
	kind idKind
	num  uint64
	str  string
}

// NewNumberID returns a numeric identifier.
func NewNumberID(n uint64) ID {
	return ID{kind: idNumber, num: n}
}

// NewStringID returns a string identifier.
func NewStringID(s string) ID {
	return ID{kind: idString, str: s}
}

// IsZero reports whether the id is absent.
func (id ID) IsZero() bool {
	return id.kind == idAbsent
}

// Number returns the numeric value and true if the id is numeric.
func (id ID) Number() (uint64, bool) {
	return id.num, id.kind == idNumber
}

// Text returns the string value and true if the id is a string.
func (id ID) Text() (string, bool) {
	return id.str, id.kind == idString
}

func (id ID) String() string {
	switch id.kind {
	case idNumber:
		return strconv.FormatUint(id.num, 10)
	case idString:
		return id.str
	default:
		return "null"
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idNumber:
		return strconv.AppendUint(nil, id.num, 10), nil
	case idString:
		return json.Marshal(id.str)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return NewSerdeError(fmt.Errorf("empty id"))
	}

	switch c := data[0]; {
	case c == 'n' && string(data) == "null":
		*id = ID{}
		return nil
	case c == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return NewSerdeError(err)
		}
		*id = NewStringID(s)
		return nil
	case c == '-' || (c >= '0' && c <= '9'):
		n, err := strconv.ParseUint(string(data), 10, 64)
		if err != nil {
			return NewSerdeError(fmt.Errorf("invalid numeric id %s: %w", data, err))
		}
		*id = NewNumberID(n)
		return nil
	default:
		return NewSerdeError(fmt.Errorf("id must be a number or a string, got %s", data))
	}
}

// IDGenerator hands out identifiers from a monotonically increasing counter that
// starts at 1. Number and string ids share one sequence. It is safe for concurrent use.
type IDGenerator struct {
	counter atomic.Uint64
}

// NewIDGenerator creates a generator whose first id is 1.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) next() uint64 {
	return g.counter.Add(1)
}

// NextNumber returns a fresh numeric id.
func (g *IDGenerator) NextNumber() ID {
	return NewNumberID(g.next())
}

// NextString returns a fresh string id of the form "id-N".
func (g *IDGenerator) NextString() ID {
	return NewStringID(fmt.Sprintf("id-%d", g.next()))
}

// defaultIDs is created once at process start and never reset.
var defaultIDs = NewIDGenerator()

// NextNumber returns a fresh numeric id from the process-wide generator.
func NextNumber() ID {
	return defaultIDs.NextNumber()
}

// NextString returns a fresh "id-N" string id from the process-wide generator.
func NextString() ID {
	return defaultIDs.NextString()
}
