package token

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// segmentAlphabet maps the standard base64 alphabet onto the URL alphabet
var segmentAlphabet = strings.NewReplacer("+", "-", "/", "_")

// decodePayload reads the middle segment of raw without looking at the signature
func decodePayload(_ context.Context, raw string) (map[string]interface{}, error) {
	segment := strings.Split(raw, ".")[1]
	segment = segmentAlphabet.Replace(strings.TrimRight(segment, "="))

	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var claims map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformed)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformed)
	}
	return claims, nil
}

func numericClaim(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	}
	return 0, false
}

// idClaim accepts a non-empty string or a non-zero number
func idClaim(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case json.Number:
		f, err := id.Float64()
		if err != nil || f == 0 {
			return "", false
		}
		return id.String(), true
	case float64:
		if id == 0 {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	}
	return "", false
}
