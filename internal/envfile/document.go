package envfile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// ErrInvalidEntry is returned for keys or values that cannot be written as a single KEY=VALUE line.
var ErrInvalidEntry = errors.New("invalid env entry")

// Entry is a single key/value pair to write.
type Entry struct {
	Key   string
	Value string
}

// line is one line of the file with its own terminator ("\n", "\r\n", or
// "" for a final line without one).
type line struct {
	text string
	eol  string
}

// Document is the ordered line content of an env file.
type Document struct {
	lines []line
}

// Parse splits raw file content into lines, remembering how each one was
// terminated. A trailing newline does not produce an empty line.
func Parse(content string) *Document {
	doc := &Document{}
	for content != "" {
		i := strings.IndexByte(content, '\n')
		if i < 0 {
			doc.lines = append(doc.lines, line{text: content})
			break
		}

		l := line{text: content[:i], eol: "\n"}
		if strings.HasSuffix(l.text, "\r") {
			l.text = strings.TrimSuffix(l.text, "\r")
			l.eol = "\r\n"
		}
		doc.lines = append(doc.lines, l)
		content = content[i+1:]
	}
	return doc
}

// Lines returns the document lines without their terminators.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	for i, l := range d.lines {
		out[i] = l.text
	}
	return out
}

// Bytes renders the document. Every line keeps its terminator; a final line
// that had none gets "\n".
func (d *Document) Bytes() []byte {
	var sb strings.Builder
	for _, l := range d.lines {
		sb.WriteString(l.text)
		if l.eol == "" {
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(l.eol)
	}
	return []byte(sb.String())
}

// Set replaces the first line starting with "key=" and removes any later
// duplicates. Without a match the entry is appended.
//
// The value is written bare when dotenv parsing reads it back unchanged,
// otherwise quoted. Values no quoting can reproduce are rejected.
func (d *Document) Set(key, value string) error {
	if err := validateEntry(key, value); err != nil {
		return err
	}
	encoded, err := encodeValue(key, value)
	if err != nil {
		return err
	}

	prefix := key + "="
	newText := prefix + encoded

	lines := make([]line, 0, len(d.lines)+1)
	replaced := false
	for _, l := range d.lines {
		if !strings.HasPrefix(l.text, prefix) {
			lines = append(lines, l)
			continue
		}
		if replaced {
			continue
		}
		lines = append(lines, line{text: newText, eol: l.eol})
		replaced = true
	}
	if !replaced {
		lines = append(lines, line{text: newText, eol: "\n"})
	}

	d.lines = lines
	return nil
}

// Lookup returns the value for key. The last definition wins, matching
// how dotenv loaders treat duplicates.
func (d *Document) Lookup(key string) (string, bool) {
	v, ok := d.Values()[key]
	return v, ok
}

// Values parses every KEY=VALUE line with dotenv rules. Lines that do not
// parse are treated as opaque content and skipped.
func (d *Document) Values() map[string]string {
	values := make(map[string]string)
	for _, l := range d.lines {
		trimmed := strings.TrimSpace(l.text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.Contains(trimmed, "=") {
			continue
		}
		parsed, err := godotenv.Unmarshal(l.text)
		if err != nil {
			continue
		}
		for k, v := range parsed {
			values[k] = v
		}
	}
	return values
}

func validateEntry(key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidEntry)
	}
	if strings.ContainsAny(key, "=\n\r") {
		return fmt.Errorf("%w: key %q contains '=' or a line break", ErrInvalidEntry, key)
	}
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: value for %s contains a line break", ErrInvalidEntry, key)
	}
	return nil
}

// encodeValue picks the first form of value that godotenv parses back to
// exactly value: bare, single-quoted, then double-quoted.
func encodeValue(key, value string) (string, error) {
	for _, candidate := range []string{value, "'" + value + "'", `"` + value + `"`} {
		parsed, err := godotenv.Unmarshal(key + "=" + candidate)
		if err != nil {
			continue
		}
		if got, ok := parsed[key]; ok && got == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: value for %s cannot be stored without loss", ErrInvalidEntry, key)
}
