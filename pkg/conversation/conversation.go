// Package conversation derives the key shared by the two participants of a
// chat conversation.
package conversation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Separator joins the two participant IDs of a conversation key.
// It is rejected inside participant IDs so keys stay unambiguous.
const Separator = "_"

var ErrInvalidID = errors.New("invalid conversation id")

// ParticipantID names one chat participant (an admin or a village user).
// On the wire it may be a JSON string or a JSON number; numbers keep their
// decimal text.
type ParticipantID string

func (p *ParticipantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = ParticipantID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("participant id must be a string or a number: %w", err)
	}
	*p = ParticipantID(n.String())
	return nil
}

func (p ParticipantID) String() string {
	return string(p)
}

// Less orders participant IDs numerically when both are plain decimal
// integers and byte-wise otherwise.
func (p ParticipantID) Less(other ParticipantID) bool {
	a, b := string(p), string(other)
	if isDecimal(a) && isDecimal(b) {
		if len(a) != len(b) {
			return len(a) < len(b)
		}
	}
	return a < b
}

// isDecimal reports whether s is a canonical unsigned integer (no sign, no
// leading zeros), for which length-then-bytes order equals numeric order.
func isDecimal(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ID derives the key shared by both directions of a two-party conversation:
// min(a,b) + "_" + max(a,b).
func ID(a, b ParticipantID) string {
	if b.Less(a) {
		a, b = b, a
	}
	return string(a) + Separator + string(b)
}

// Parse splits a key produced by ID.
func Parse(id string) (ParticipantID, ParticipantID, error) {
	parts := strings.Split(id, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || parts[0] == parts[1] {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	a, b := ParticipantID(parts[0]), ParticipantID(parts[1])
	if ID(a, b) != id {
		return "", "", fmt.Errorf("%w: %q is not in canonical order", ErrInvalidID, id)
	}
	return a, b, nil
}

// Includes reports whether p is one of the participants of conversationID.
func Includes(conversationID string, p ParticipantID) bool {
	a, b, err := Parse(conversationID)
	if err != nil {
		return false
	}
	return p == a || p == b
}
