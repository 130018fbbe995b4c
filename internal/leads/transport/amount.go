package transport

import (
	"bytes"
	"strconv"
	"strings"
)

// Amount is a deal budget as entered by a sales rep. Upstream forms send it
// as a number, a numeric string, an empty string or nothing at all; anything
// that does not parse collapses to 0 rather than failing the request.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*a = 0
		return nil
	}

	raw := string(trimmed)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			*a = 0
			return nil
		}
		raw = strings.TrimSpace(unquoted)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		*a = 0
		return nil
	}

	*a = Amount(value)
	return nil
}

func (a Amount) Float64() float64 {
	return float64(a)
}
