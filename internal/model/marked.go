package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarkedNumbers is the list of numbers a claimant says are daubed on a card.
// Entries may be sent as plain numbers, as call objects ({"number": 7}), or as
// the string "FREE" for the centre cell, which decodes to FreeSpace.
type MarkedNumbers []int

func (m *MarkedNumbers) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(MarkedNumbers, 0, len(raw))
	for _, item := range raw {
		n, err := decodeMarked(item)
		if err != nil {
			return err
		}
		out = append(out, n)
	}
	*m = out
	return nil
}

func decodeMarked(item json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(item, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		if strings.EqualFold(s, "free") {
			return FreeSpace, nil
		}
		// "B-12" style voices
		if i := strings.LastIndex(s, "-"); i >= 0 {
			s = s[i+1:]
		}
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return 0, fmt.Errorf("invalid marked number %q", s)
		}
		return n, nil
	}

	var call CalledNumber
	if err := json.Unmarshal(item, &call); err != nil {
		return 0, fmt.Errorf("invalid marked number %s", string(item))
	}
	return call.Number, nil
}
