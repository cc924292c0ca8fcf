// Package schema loads declarative admin definitions (entities, fields and
// views) from TOML or YAML files and builds an app.Application from them.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown schema format")

// Format names a schema encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Schema is the decoded form of an admin definition file.
type Schema struct {
	Title        string      `toml:"title" yaml:"title"`
	BaseAPIURL   string      `toml:"base_api_url" yaml:"base_api_url"`
	ErrorMessage string      `toml:"error_message" yaml:"error_message"`
	Entities     []EntityDef `toml:"entities" yaml:"entities"`
}

// EntityDef declares one REST resource.
type EntityDef struct {
	Name         string             `toml:"name" yaml:"name"`
	Label        string             `toml:"label" yaml:"label"`
	Identifier   string             `toml:"identifier" yaml:"identifier"`
	URL          string             `toml:"url" yaml:"url"`
	BaseAPIURL   string             `toml:"base_api_url" yaml:"base_api_url"`
	ReadOnly     bool               `toml:"read_only" yaml:"read_only"`
	Singleton    bool               `toml:"singleton" yaml:"singleton"`
	Order        int                `toml:"order" yaml:"order"`
	ErrorMessage string             `toml:"error_message" yaml:"error_message"`
	Methods      MethodsDef         `toml:"methods" yaml:"methods"`
	Fields       []FieldDef         `toml:"fields" yaml:"fields"`
	Views        map[string]ViewDef `toml:"views" yaml:"views"`
}

// MethodsDef overrides the HTTP verbs used for an entity.
type MethodsDef struct {
	Create   string `toml:"create" yaml:"create"`
	Update   string `toml:"update" yaml:"update"`
	Retrieve string `toml:"retrieve" yaml:"retrieve"`
	Delete   string `toml:"delete" yaml:"delete"`
}

// FieldDef declares a field. Reference options only apply to reference
// kinds, list options to referenced and embedded lists, and Fields holds the
// target fields of an embedded list or the children of a layout field.
type FieldDef struct {
	Name            string         `toml:"name" yaml:"name"`
	Kind            string         `toml:"kind" yaml:"kind"`
	Label           string         `toml:"label" yaml:"label"`
	Order           *int           `toml:"order" yaml:"order"`
	Default         any            `toml:"default" yaml:"default"`
	Editable        *bool          `toml:"editable" yaml:"editable"`
	Pinned          bool           `toml:"pinned" yaml:"pinned"`
	DetailLink      *bool          `toml:"detail_link" yaml:"detail_link"`
	DetailLinkRoute string         `toml:"detail_link_route" yaml:"detail_link_route"`
	Format          string         `toml:"format" yaml:"format"`
	Template        string         `toml:"template" yaml:"template"`
	CSSClasses      []string       `toml:"css_classes" yaml:"css_classes"`
	Attributes      map[string]any `toml:"attributes" yaml:"attributes"`
	Choices         []ChoiceDef    `toml:"choices" yaml:"choices"`
	Maps            []string       `toml:"maps" yaml:"maps"`
	Transforms      []string       `toml:"transforms" yaml:"transforms"`

	Required  bool   `toml:"required" yaml:"required"`
	MinLength int    `toml:"min_length" yaml:"min_length"`
	MaxLength int    `toml:"max_length" yaml:"max_length"`
	Pattern   string `toml:"pattern" yaml:"pattern"`

	TargetEntity   string         `toml:"target_entity" yaml:"target_entity"`
	TargetField    string         `toml:"target_field" yaml:"target_field"`
	PerPage        int            `toml:"per_page" yaml:"per_page"`
	SortField      string         `toml:"sort_field" yaml:"sort_field"`
	SortDir        string         `toml:"sort_dir" yaml:"sort_dir"`
	Filters        map[string]any `toml:"filters" yaml:"filters"`
	SearchParam    string         `toml:"search_param" yaml:"search_param"`
	SingleAPICall  string         `toml:"single_api_call" yaml:"single_api_call"`
	RemoteComplete bool           `toml:"remote_complete" yaml:"remote_complete"`
	RefreshDelay   string         `toml:"refresh_delay" yaml:"refresh_delay"`

	TargetReferenceField string     `toml:"target_reference_field" yaml:"target_reference_field"`
	TargetFields         []string   `toml:"target_fields" yaml:"target_fields"`
	ListActions          []string   `toml:"list_actions" yaml:"list_actions"`
	Fields               []FieldDef `toml:"fields" yaml:"fields"`
}

// ChoiceDef is one value/label pair of a choice field.
type ChoiceDef struct {
	Value any    `toml:"value" yaml:"value"`
	Label string `toml:"label" yaml:"label"`
}

// ViewDef configures one view of an entity. Views are keyed by their short
// name: dashboard, menu, list, create, edit, delete, batch_delete, export,
// show.
type ViewDef struct {
	Name               string         `toml:"name" yaml:"name"`
	Fields             []string       `toml:"fields" yaml:"fields"`
	Disabled           bool           `toml:"disabled" yaml:"disabled"`
	Title              string         `toml:"title" yaml:"title"`
	Description        string         `toml:"description" yaml:"description"`
	Order              int            `toml:"order" yaml:"order"`
	URL                string         `toml:"url" yaml:"url"`
	ErrorMessage       string         `toml:"error_message" yaml:"error_message"`
	Actions            []string       `toml:"actions" yaml:"actions"`
	PerPage            int            `toml:"per_page" yaml:"per_page"`
	InfinitePagination bool           `toml:"infinite_pagination" yaml:"infinite_pagination"`
	SortField          string         `toml:"sort_field" yaml:"sort_field"`
	SortDir            string         `toml:"sort_dir" yaml:"sort_dir"`
	PermanentFilters   map[string]any `toml:"permanent_filters" yaml:"permanent_filters"`
	Filters            []string       `toml:"filters" yaml:"filters"`
	ListActions        []string       `toml:"list_actions" yaml:"list_actions"`
	BatchActions       []string       `toml:"batch_actions" yaml:"batch_actions"`
	ExportFields       []string       `toml:"export_fields" yaml:"export_fields"`
	SingleAPICall      string         `toml:"single_api_call" yaml:"single_api_call"`
}

// FormatOf guesses the format of path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads and decodes the schema file at path.
func Load(path string) (*Schema, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a schema document.
func Parse(data []byte, format Format) (*Schema, error) {
	var s Schema
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			return nil, fmt.Errorf("parsing toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("parsing toml: unknown key %s", undecoded[0])
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return &s, nil
}
