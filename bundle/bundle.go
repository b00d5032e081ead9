// Package bundle loads declarative class descriptions from documents.
// A document carries one or more classes with data members and named
// references to host-implemented functions; it is schema-checked with CUE
// before anything touches the registry. JSON, YAML, and CBOR encodings are
// accepted.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/chazu/tabletalk/object"
	"github.com/chazu/tabletalk/wire"
)

// schema is the CUE contract every document must satisfy.
const schema = `
#Member: {
	name:       string & !=""
	modifiers?: [...string]
	value?:     _
	function?:  string & !=""
}

#Class: {
	name:     string & !=""
	parents?: [...string & !=""]
	members?: [...#Member]
}

source?: string
classes: [...#Class]
`

// Document is a parsed, validated class-description document.
type Document struct {
	Source  string     `json:"source"`
	Classes []ClassDoc `json:"classes"`
}

// ClassDoc declares one class. Parents must already be registered or
// appear earlier in the same document.
type ClassDoc struct {
	Name    string      `json:"name"`
	Parents []string    `json:"parents"`
	Members []MemberDoc `json:"members"`
}

// MemberDoc declares one member. Function members name a host
// implementation instead of carrying a value.
type MemberDoc struct {
	Name      string   `json:"name"`
	Modifiers []string `json:"modifiers"`
	Value     any      `json:"value"`
	Function  string   `json:"function"`
}

// FuncTable maps the function names a document references to host
// implementations.
type FuncTable map[string]func(*object.Call) (object.Value, error)

// Qualify prefixes every unqualified class and parent name in the document
// with namespace. Names that already carry a "::" separator keep their own
// namespace; an empty namespace leaves the document untouched.
func (d *Document) Qualify(namespace string) {
	if namespace == "" {
		return
	}
	for i := range d.Classes {
		d.Classes[i].Name = qualifyName(namespace, d.Classes[i].Name)
		for j := range d.Classes[i].Parents {
			d.Classes[i].Parents[j] = qualifyName(namespace, d.Classes[i].Parents[j])
		}
	}
}

func qualifyName(namespace, name string) string {
	if strings.Contains(name, "::") {
		return name
	}
	return namespace + "::" + name
}

// Load reads and decodes a document, picking the encoding from the file
// extension: .json, .yaml, .yml, or .cbor.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", path, err)
	}
	switch filepath.Ext(path) {
	case ".json":
		return DecodeJSON(b)
	case ".yaml", ".yml":
		return DecodeYAML(b)
	case ".cbor":
		return DecodeCBOR(b)
	default:
		return nil, fmt.Errorf("bundle: %s: unsupported extension", path)
	}
}

// DecodeJSON parses and validates a JSON document.
func DecodeJSON(b []byte) (*Document, error) {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("bundle: decode json: %w", err)
	}
	return validate(raw)
}

// DecodeYAML parses and validates a YAML document.
func DecodeYAML(b []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("bundle: decode yaml: %w", err)
	}
	return validate(raw)
}

// DecodeCBOR parses and validates a CBOR document.
func DecodeCBOR(b []byte) (*Document, error) {
	raw, err := wire.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("bundle: decode cbor: %w", err)
	}
	return validate(raw)
}

// validate unifies the decoded tree with the schema and lowers it into a
// Document.
func validate(raw any) (*Document, error) {
	ctx := cuecontext.New()
	contract := ctx.CompileString(schema)
	if err := contract.Err(); err != nil {
		return nil, fmt.Errorf("bundle: schema: %w", err)
	}
	val := ctx.Encode(raw)
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("bundle: encode document: %w", err)
	}
	unified := contract.Unify(val)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("bundle: invalid document: %w", err)
	}
	var doc Document
	if err := unified.Decode(&doc); err != nil {
		return nil, fmt.Errorf("bundle: decode document: %w", err)
	}
	return &doc, nil
}

// Register turns each class in the document into a registry registration,
// in document order. Function members resolve through funcs; a reference
// with no implementation fails the whole document before any class is
// touched.
func Register(reg *object.Registry, doc *Document, funcs FuncTable) ([]*object.Class, error) {
	descs, err := describe(doc, funcs)
	if err != nil {
		return nil, err
	}
	classes := make([]*object.Class, 0, len(descs))
	for _, desc := range descs {
		cls, err := reg.Register(desc)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

// Reload is Register with redefinition semantics: already-registered
// classes are replaced wholesale and their live instances re-synced.
func Reload(reg *object.Registry, doc *Document, funcs FuncTable) ([]*object.Class, error) {
	descs, err := describe(doc, funcs)
	if err != nil {
		return nil, err
	}
	classes := make([]*object.Class, 0, len(descs))
	for _, desc := range descs {
		cls, err := reg.Redefine(desc)
		if err != nil {
			return nil, err
		}
		classes = append(classes, cls)
	}
	return classes, nil
}

// describe lowers the document into registration descriptions, resolving
// modifiers and host functions.
func describe(doc *Document, funcs FuncTable) ([]object.Description, error) {
	descs := make([]object.Description, 0, len(doc.Classes))
	for _, cd := range doc.Classes {
		desc := object.Description{
			Name:    cd.Name,
			Parents: cd.Parents,
			Source:  doc.Source,
		}
		for _, md := range cd.Members {
			mods, err := object.ParseModifiers(md.Modifiers)
			if err != nil {
				return nil, fmt.Errorf("bundle: class %s member %s: %w", cd.Name, md.Name, err)
			}
			value := object.FromPlain(md.Value)
			if md.Function != "" {
				impl, ok := funcs[md.Function]
				if !ok {
					return nil, fmt.Errorf("bundle: class %s member %s: no host function %q", cd.Name, md.Name, md.Function)
				}
				value = object.FuncValue(object.NewFunc(md.Name, impl))
			}
			desc.Members = append(desc.Members, object.MemberDecl{
				Name:      md.Name,
				Value:     value,
				Modifiers: mods,
			})
		}
		descs = append(descs, desc)
	}
	return descs, nil
}
