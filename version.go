package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is the JSON-RPC protocol version carried in the jsonrpc field.
// The zero value means the field was not present and encodes as null.
type Version uint8

const (
	V1 Version = iota + 1
	V2
)

// ParseVersion accepts exactly "1.0" or "2.0".
func ParseVersion(text string) (Version, error) {
	switch text {
	case "1.0":
		return V1, nil
	case "2.0":
		return V2, nil
	default:
		return 0, NewInvalidVersionError(text)
	}
}

// Valid reports whether v is one of the supported versions.
func (v Version) Valid() bool {
	return v == V1 || v == V2
}

func (v Version) String() string {
	switch v {
	case V1:
		return "1.0"
	case V2:
		return "2.0"
	default:
		return ""
	}
}

func (v Version) MarshalJSON() ([]byte, error) {
	switch v {
	case 0:
		return []byte("null"), nil
	case V1, V2:
		return json.Marshal(v.String())
	default:
		return nil, NewSerdeError(fmt.Errorf("unknown JSON-RPC version value %d", uint8(v)))
	}
}

func (v *Version) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return NewSerdeError(fmt.Errorf("jsonrpc must be a string: %w", err))
	}

	parsed, err := ParseVersion(text)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
