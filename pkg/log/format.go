package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// JSONFormatter renders entries as single-line JSON objects with "ts",
// "level" and "msg" keys plus every entry field.
type JSONFormatter struct{}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	obj := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		obj[k] = v
	}
	obj["ts"] = entry.Timestamp.Format(timestampLayout)
	obj["level"] = entry.Level.String()
	obj["msg"] = entry.Message
	return json.Marshal(obj)
}

// TextFormatter renders entries as a human-oriented line:
//
//	2026-01-02T15:04:05.000Z INFO  [component] message key=value
//
// Fields are appended in sorted key order; the component field is moved
// into the bracketed prefix.
type TextFormatter struct{}

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(entry.Timestamp.Format(timestampLayout))
	fmt.Fprintf(&buf, " %-5s ", entry.Level.String())

	if c, ok := entry.Fields["component"]; ok {
		fmt.Fprintf(&buf, "[%v] ", c)
	}
	buf.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			if k == "component" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, entry.Fields[k])
		}
	}
	return buf.Bytes(), nil
}
