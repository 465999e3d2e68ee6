// Package metadata describes entity sets to the navigation engine: their
// technical keys, property types, semantic keys, draft annotation and
// messages path.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/constants"
	"github.com/BrandonKowalski/ctxnav/pkg/ctxnav/path"
)

// ErrUnknownEntitySet is returned when a provider has no metadata for an entity set.
var ErrUnknownEntitySet = errors.New("metadata: unknown entity set")

// EDM type names used to decide whether key values are quoted.
const (
	TypeString  = "Edm.String"
	TypeGUID    = "Edm.Guid"
	TypeInt32   = "Edm.Int32"
	TypeInt64   = "Edm.Int64"
	TypeBoolean = "Edm.Boolean"
	TypeDecimal = "Edm.Decimal"
)

// EntitySet is the metadata of one entity set as it appears in configuration
// files and remote metadata documents.
type EntitySet struct {
	Name         string            `json:"name" toml:"name" yaml:"name"`
	Keys         []string          `json:"keys" toml:"keys" yaml:"keys" validate:"required,min=1"`
	Properties   map[string]string `json:"properties" toml:"properties" yaml:"properties"`
	SemanticKeys []string          `json:"semanticKeys,omitempty" toml:"semantic_keys" yaml:"semantic_keys"`
	Draft        string            `json:"draft,omitempty" toml:"draft" yaml:"draft"`
	MessagesPath string            `json:"messagesPath,omitempty" toml:"messages_path" yaml:"messages_path"`
}

// EntityType is the structural part of an entity set's metadata.
type EntityType struct {
	Name       string
	Keys       []string
	Properties map[string]string
}

// IsString reports whether a property's declared type is string-like.
func (t *EntityType) IsString(property string) bool {
	return t.Properties[property] == TypeString
}

// PathKeys turns key property names into path keys carrying their quoting.
func (t *EntityType) PathKeys(names []string) []path.Key {
	keys := make([]path.Key, 0, len(names))
	for _, name := range names {
		keys = append(keys, path.Key{Name: name, String: t.IsString(name)})
	}
	return keys
}

// Annotations are the annotations of an entity set relevant to navigation.
type Annotations struct {
	SemanticKeys []string
	Draft        constants.DraftKind
	MessagesPath string
}

// Provider loads entity set metadata.
type Provider interface {
	RequestEntityType(ctx context.Context, entitySet string) (*EntityType, error)
	RequestAnnotations(ctx context.Context, entitySet string) (*Annotations, error)
}

func (s *EntitySet) entityType() *EntityType {
	props := make(map[string]string, len(s.Properties))
	for k, v := range s.Properties {
		props[k] = v
	}
	return &EntityType{
		Name:       s.Name,
		Keys:       append([]string(nil), s.Keys...),
		Properties: props,
	}
}

func (s *EntitySet) annotations() *Annotations {
	return &Annotations{
		SemanticKeys: append([]string(nil), s.SemanticKeys...),
		Draft:        constants.ParseDraftKind(s.Draft),
		MessagesPath: s.MessagesPath,
	}
}

// StaticProvider serves metadata from a fixed set of entity sets.
type StaticProvider struct {
	sets map[string]EntitySet
}

// NewStaticProvider creates a StaticProvider. Entity sets without a Name take
// their map key.
func NewStaticProvider(sets map[string]EntitySet) *StaticProvider {
	p := &StaticProvider{sets: make(map[string]EntitySet, len(sets))}
	for name, set := range sets {
		if set.Name == "" {
			set.Name = name
		}
		p.sets[name] = set
	}
	return p
}

func (p *StaticProvider) lookup(entitySet string) (*EntitySet, error) {
	set, ok := p.sets[entitySet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntitySet, entitySet)
	}
	return &set, nil
}

func (p *StaticProvider) RequestEntityType(_ context.Context, entitySet string) (*EntityType, error) {
	set, err := p.lookup(entitySet)
	if err != nil {
		return nil, err
	}
	return set.entityType(), nil
}

func (p *StaticProvider) RequestAnnotations(_ context.Context, entitySet string) (*Annotations, error) {
	set, err := p.lookup(entitySet)
	if err != nil {
		return nil, err
	}
	return set.annotations(), nil
}

// Names returns the entity set names known to the provider, sorted.
func (p *StaticProvider) Names() []string {
	names := make([]string, 0, len(p.sets))
	for name := range p.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
