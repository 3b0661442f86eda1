package client

import (
	"bytes"
	"encoding/json"
)

// Page is the decoded body of one page request. Records are kept opaque.
type Page struct {
	Records []json.RawMessage
}

// Count returns the number of records on the page.
func (p Page) Count() int {
	return len(p.Records)
}

// decodeArray parses body as a JSON array. It distinguishes bodies that are
// not JSON at all from JSON values of the wrong type.
func decodeArray(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, &FetchError{
			Kind:    KindParse,
			Message: snippet(trimmed),
			Err:     ErrParse,
		}
	}

	if trimmed[0] != '[' {
		return nil, &FetchError{
			Kind:    KindUnexpectedShape,
			Message: "got JSON " + jsonType(trimmed[0]) + ": " + snippet(trimmed),
		}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, &FetchError{Kind: KindParse, Message: "decode array", Err: err}
	}
	return records, nil
}

func jsonType(first byte) string {
	switch first {
	case '{':
		return "object"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

const snippetLen = 200

// snippet returns at most snippetLen bytes of b for error messages.
func snippet(b []byte) string {
	if len(b) > snippetLen {
		b = b[:snippetLen]
	}
	return string(bytes.ToValidUTF8(b, nil))
}
