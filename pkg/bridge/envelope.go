package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"time"
)

const (
	kindJSON = "json"
	kindText = "text"
)

// whitespace accepted around a JSON value
const jsonSpace = " \t\r\n"

type field struct {
	key   string
	value json.RawMessage
}

// buildEnvelope turns one inbound frame into the bytes fanned out to peers.
// JSON objects keep their key order and values byte for byte with source set
// to the sender id; anything else is wrapped as an unknown-message carrying
// the raw text.
func buildEnvelope(raw []byte, source string, now time.Time) ([]byte, string, error) {
	if fields, ok := parseObject(raw); ok {
		src, err := marshal(source)
		if err != nil {
			return nil, "", err
		}
		out, err := encodeObject(setField(fields, "source", src))
		return out, kindJSON, err
	}
	out, err := marshal(unknownMessage{
		Type:      typeUnknownMessage,
		Text:      string(raw),
		Source:    source,
		Timestamp: now.UnixMilli(),
	})
	return out, kindText, err
}

// parseObject splits a top-level JSON object into its fields in document
// order. A repeated key keeps its first position and its last value.
func parseObject(raw []byte) ([]field, bool) {
	trimmed := bytes.TrimLeft(raw, jsonSpace)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	fields := []field{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		fields = setField(fields, key, v)
	}
	if tok, err := dec.Token(); err != nil || tok != json.Delim('}') {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return fields, true
}

func setField(fields []field, key string, value json.RawMessage) []field {
	for i := range fields {
		if fields[i].key == key {
			fields[i].value = value
			return fields
		}
	}
	return append(fields, field{key: key, value: value})
}

func encodeObject(fields []field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// messageType is used for log lines only.
func messageType(raw []byte) string {
	var msg struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(raw, &msg) != nil {
		return ""
	}
	return msg.Type
}
