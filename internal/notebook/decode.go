package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Fragments is a multiline nbformat string: either a single JSON string or a
// list of string fragments. A nil Fragments means the field was absent.
type Fragments []string

func (f *Fragments) UnmarshalJSON(b []byte) error {
	switch trimmed := bytes.TrimSpace(b); {
	case bytes.Equal(trimmed, []byte("null")):
		*f = Fragments{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = Fragments{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	*f = Fragments(list)
	return nil
}

// String joins the fragments.
func (f Fragments) String() string {
	return strings.Join(f, "")
}

// MIMEPayload is one entry of a MIME bundle.
type MIMEPayload struct {
	MIME string `json:"mime" yaml:"mime"`
	Data string `json:"data" yaml:"data"`
}

// Attachment is a named MIME bundle embedded in a markdown cell.
type Attachment struct {
	Name   string        `json:"name" yaml:"name"`
	Bundle []MIMEPayload `json:"bundle" yaml:"bundle"`
}

// Attachments keeps attachment and MIME order as written in the document;
// positional pairing with inline markers depends on it.
type Attachments []Attachment

func (a *Attachments) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	if res.Type == gjson.Null {
		*a = nil
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("attachments: expected object, got %s", res.Type)
	}
	var out Attachments
	var bundleErr error
	res.ForEach(func(name, bundle gjson.Result) bool {
		if !bundle.IsObject() {
			bundleErr = fmt.Errorf("attachments.%s: expected MIME bundle object", name.String())
			return false
		}
		att := Attachment{Name: name.String()}
		bundle.ForEach(func(mime, data gjson.Result) bool {
			att.Bundle = append(att.Bundle, MIMEPayload{MIME: mime.String(), Data: joinResult(data)})
			return true
		})
		out = append(out, att)
		return true
	})
	if bundleErr != nil {
		return bundleErr
	}
	*a = out
	return nil
}

func joinResult(r gjson.Result) string {
	if !r.IsArray() {
		return r.String()
	}
	var sb strings.Builder
	for _, part := range r.Array() {
		sb.WriteString(part.String())
	}
	return sb.String()
}

// Payloads flattens every MIME payload of every attachment, in document order.
func (a Attachments) Payloads() []string {
	var out []string
	for _, att := range a {
		for _, p := range att.Bundle {
			out = append(out, p.Data)
		}
	}
	return out
}

// RawOutput is an output record exactly as captured by the kernel.
type RawOutput struct {
	OutputType     string                     `json:"output_type"`
	Name           string                     `json:"name,omitempty"`
	Text           Fragments                  `json:"text,omitempty"`
	Data           map[string]json.RawMessage `json:"data,omitempty"`
	Metadata       map[string]json.RawMessage `json:"metadata,omitempty"`
	ExecutionCount *int                       `json:"execution_count,omitempty"`
	EName          *string                    `json:"ename,omitempty"`
	EValue         string                     `json:"evalue,omitempty"`
	Traceback      []string                   `json:"traceback,omitempty"`
}

// CellMetadata is the subset of cell metadata nbview reads.
type CellMetadata struct {
	Tags []string `json:"tags,omitempty"`
}

// RawCell is a cell record as stored in the notebook file.
type RawCell struct {
	CellType    string        `json:"cell_type"`
	Metadata    *CellMetadata `json:"metadata"`
	Source      Fragments     `json:"source"`
	Outputs     []RawOutput   `json:"outputs,omitempty"`
	Attachments Attachments   `json:"attachments,omitempty"`
}

// Metadata is the notebook-level metadata record.
type Metadata struct {
	Kernelspec struct {
		Name        string `json:"name,omitempty"`
		DisplayName string `json:"display_name,omitempty"`
		Language    string `json:"language,omitempty"`
	} `json:"kernelspec"`
	LanguageInfo struct {
		Name    string `json:"name,omitempty"`
		Version string `json:"version,omitempty"`
	} `json:"language_info"`
}

// Language returns the kernel language, falling back to language_info.name.
func (m Metadata) Language() string {
	if m.Kernelspec.Language != "" {
		return m.Kernelspec.Language
	}
	return m.LanguageInfo.Name
}

type rawNotebook struct {
	Cells         []RawCell `json:"cells"`
	Metadata      *Metadata `json:"metadata"`
	NBFormat      int       `json:"nbformat"`
	NBFormatMinor int       `json:"nbformat_minor"`
}

// Decode reads an nbformat v4 document and builds a Document from it.
func Decode(r io.Reader, opts ...Option) (*Document, error) {
	var raw rawNotebook
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode notebook: %w", err)
	}
	if raw.Cells == nil {
		return nil, missing("cells")
	}
	if raw.Metadata == nil {
		return nil, missing("metadata")
	}
	return New(raw.Cells, *raw.Metadata, opts...)
}

// Load reads the notebook at path. The file is closed before any cell is built.
func Load(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read notebook: %w", err)
	}
	return Decode(bytes.NewReader(data), opts...)
}
