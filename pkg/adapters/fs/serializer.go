package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/shadow/pkg/core"
)

// Serializer reads and writes one file format.
type Serializer interface {
	// Parse reads a document from r.
	Parse(r io.Reader, metadataKey string) (*core.Document, error)
	// Serialize encodes doc.
	Serialize(doc core.Document, metadataKey string) ([]byte, error)
}

// DefaultSerializers returns the built-in serializers keyed by extension.
func DefaultSerializers(strict bool) map[string]Serializer {
	yml := &YAMLSerializer{Strict: strict}
	return map[string]Serializer{
		".json": &JSONSerializer{Strict: strict},
		".yaml": yml,
		".yml":  yml,
		".md":   &MarkdownSerializer{Strict: strict},
	}
}

// JSONSerializer handles .json documents.
type JSONSerializer struct {
	// Strict decodes numbers as json.Number.
	Strict bool
}

func (s *JSONSerializer) Parse(r io.Reader, metadataKey string) (*core.Document, error) {
	dec := json.NewDecoder(r)
	if s.Strict {
		dec.UseNumber()
	}
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return split(payload, metadataKey), nil
}

func (s *JSONSerializer) Serialize(doc core.Document, metadataKey string) ([]byte, error) {
	data, err := json.MarshalIndent(join(doc, metadataKey), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAMLSerializer handles .yaml and .yml documents.
type YAMLSerializer struct {
	// Strict normalizes numbers to json.Number.
	Strict bool
}

func (s *YAMLSerializer) Parse(r io.Reader, metadataKey string) (*core.Document, error) {
	var payload map[string]any
	if err := yaml.NewDecoder(r).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	doc := split(payload, metadataKey)
	if s.Strict {
		doc.Metadata = normalizeNumbers(doc.Metadata).(core.Metadata)
	}
	return doc, nil
}

func (s *YAMLSerializer) Serialize(doc core.Document, metadataKey string) ([]byte, error) {
	return encodeYAML(denormalizeNumbers(join(doc, metadataKey)))
}

// MarkdownSerializer handles Markdown with optional YAML frontmatter.
// The metadata key does not apply: frontmatter is the metadata.
type MarkdownSerializer struct {
	Strict bool
}

func (s *MarkdownSerializer) Parse(r io.Reader, _ string) (*core.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{Metadata: make(core.Metadata)}

	var rest []byte
	switch {
	case bytes.HasPrefix(data, []byte("---\n")):
		rest = data[4:]
	case bytes.HasPrefix(data, []byte("---\r\n")):
		rest = data[5:]
	default:
		doc.Content = string(data)
		return doc, nil
	}

	front, body, ok := cutFrontmatter(rest)
	if !ok {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}
	// yaml.v3 reuses the target map type for nested objects.
	var meta map[string]any
	if err := yaml.Unmarshal(front, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if meta == nil {
		meta = make(map[string]any)
	}
	if s.Strict {
		meta = normalizeNumbers(meta).(map[string]any)
	}
	doc.Metadata = core.Metadata(meta)
	doc.Content = string(body)
	return doc, nil
}

// cutFrontmatter splits at the first line that is exactly "---".
func cutFrontmatter(data []byte) (front, body []byte, ok bool) {
	if bytes.HasPrefix(data, []byte("---")) {
		rest := data[3:]
		if len(rest) == 0 || rest[0] == '\n' || rest[0] == '\r' {
			return nil, trimNewline(rest), true
		}
	}
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		line := data[i+1:]
		if !bytes.HasPrefix(line, []byte("---")) {
			continue
		}
		rest := line[3:]
		if len(rest) == 0 || rest[0] == '\n' || rest[0] == '\r' {
			return data[:i+1], trimNewline(rest), true
		}
	}
	return nil, nil, false
}

func trimNewline(b []byte) []byte {
	b = bytes.TrimPrefix(b, []byte("\r"))
	return bytes.TrimPrefix(b, []byte("\n"))
}

func (s *MarkdownSerializer) Serialize(doc core.Document, _ string) ([]byte, error) {
	var buf bytes.Buffer
	if len(doc.Metadata) > 0 {
		front, err := encodeYAML(denormalizeNumbers(map[string]any(doc.Metadata)))
		if err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
		buf.Write(front)
		buf.WriteString("---\n")
	}
	buf.WriteString(doc.Content)
	return buf.Bytes(), nil
}

func encodeYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// split separates content and metadata from a decoded payload.
func split(payload map[string]any, metadataKey string) *core.Document {
	doc := &core.Document{Metadata: make(core.Metadata)}
	if payload == nil {
		return doc
	}
	if metadataKey != "" {
		if meta, ok := payload[metadataKey].(map[string]any); ok {
			doc.Metadata = meta
		}
		if c, ok := payload["content"].(string); ok {
			doc.Content = c
		}
		return doc
	}
	if c, ok := payload["content"].(string); ok {
		doc.Content = c
		delete(payload, "content")
	}
	doc.Metadata = payload
	return doc
}

// join is the inverse of split.
func join(doc core.Document, metadataKey string) map[string]any {
	payload := make(map[string]any, len(doc.Metadata)+1)
	if metadataKey != "" {
		meta := doc.Metadata
		if meta == nil {
			meta = core.Metadata{}
		}
		payload[metadataKey] = map[string]any(meta)
	} else {
		for k, v := range doc.Metadata {
			payload[k] = v
		}
	}
	if doc.Content != "" {
		payload["content"] = doc.Content
	}
	return payload
}

// normalizeNumbers converts decoded YAML numbers to json.Number so both
// formats agree in strict mode.
func normalizeNumbers(val any) any {
	switch v := val.(type) {
	case core.Metadata:
		m := make(core.Metadata, len(v))
		for k, e := range v {
			m[k] = normalizeNumbers(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = normalizeNumbers(e)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, e := range v {
			l[i] = normalizeNumbers(e)
		}
		return l
	case int:
		return json.Number(strconv.Itoa(v))
	case int64:
		return json.Number(strconv.FormatInt(v, 10))
	case uint64:
		return json.Number(strconv.FormatUint(v, 10))
	case float64:
		return json.Number(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		return v
	}
}

// denormalizeNumbers turns json.Number back into native numbers; the YAML
// encoder would otherwise quote them as strings.
func denormalizeNumbers(val any) any {
	switch v := val.(type) {
	case core.Metadata:
		return denormalizeNumbers(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = denormalizeNumbers(e)
		}
		return m
	case []any:
		l := make([]any, len(v))
		for i, e := range v {
			l[i] = denormalizeNumbers(e)
		}
		return l
	case json.Number:
		s := v.String()
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return u
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	default:
		return v
	}
}
