package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/transport"
)

// Model describes one listed model. Empty fields take the registry's
// default settings.
type Model struct {
	Name          string   `yaml:"name" json:"name"`
	Provider      string   `yaml:"provider" json:"provider"`
	Family        string   `yaml:"family" json:"family"`
	Families      []string `yaml:"families" json:"families"`
	ParameterSize string   `yaml:"parameter_size" json:"parameter_size"`
	Quantization  string   `yaml:"quantization" json:"quantization"`
	Format        string   `yaml:"format" json:"format"`
	Description   string   `yaml:"description" json:"description"`
	ContextLength int      `yaml:"context_length" json:"context_length"`
	Capabilities  []string `yaml:"capabilities" json:"capabilities"`
}

// File is the on-disk layout of a registry file. JSON files are read as
// well since JSON is valid YAML.
type File struct {
	DefaultSettings Model            `yaml:"default_settings"`
	Models          map[string]Model `yaml:"models"`
}

// Listing constants.
const (
	tagSuffix   = ":latest"
	minSize     = 500_000_000
	sizeSpread  = 5_000_000_000
	maxAgeDays  = 30
	keepAlive   = 5 * time.Minute
	defaultSize = 7_000_000_000
)

// parameterBytes maps parameter-size markers to the reported /api/ps
// size, checked in order.
var parameterBytes = []struct {
	marker string
	size   int64
}{
	{"175B", 175_000_000_000},
	{"100B", 100_000_000_000},
	{"72B", 72_000_000_000},
	{"70B", 70_000_000_000},
	{"34B", 34_000_000_000},
	{"32B", 32_000_000_000},
}

// builtinDefaults are applied under every entry.
var builtinDefaults = Model{
	Family:        "unknown",
	ParameterSize: "7B",
	Quantization:  "Q4_0",
	Format:        "gguf",
	ContextLength: 4096,
	Capabilities:  []string{"text", "chat"},
}

// Registry is an immutable, ordered set of model descriptions. It
// implements transport.Catalog.
type Registry struct {
	models []Model
	byName map[string]int
	now    func() time.Time
}

var _ transport.Catalog = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now for modified_at and expires_at.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New builds a registry from explicit entries. Entries are listed in the
// given order; a later duplicate name replaces the earlier entry.
func New(entries []Model, opts ...Option) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(entries)), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	var errs []error
	for i, m := range entries {
		if strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("models[%d]: name is required", i))
			continue
		}
		m = withDefaults(m, builtinDefaults)
		if idx, ok := r.byName[m.Name]; ok {
			r.models[idx] = m
			continue
		}
		r.byName[m.Name] = len(r.models)
		r.models = append(r.models, m)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads a registry file. An empty path yields Default().
func Load(path string, opts ...Option) (*Registry, error) {
	if path == "" {
		return Default(opts...), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading models file: %w", err)
	}
	return Parse(data, opts...)
}

// Parse decodes a registry file. Model names are listed in sorted order
// because the file stores them as a mapping.
func Parse(data []byte, opts ...Option) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing models file: %w", err)
	}

	names := make([]string, 0, len(f.Models))
	for name := range f.Models {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Model, 0, len(names))
	for _, name := range names {
		m := f.Models[name]
		m.Name = name
		entries = append(entries, withDefaults(m, f.DefaultSettings))
	}
	debug.Log("models", "loaded models file", "count", len(entries))
	return New(entries, opts...)
}

// Default returns the built-in model list.
func Default(opts ...Option) *Registry {
	r, _ := New(defaultModels(), opts...)
	return r
}

// Models returns the entries in listing order.
func (r *Registry) Models() []Model {
	return slices.Clone(r.models)
}

// Lookup returns the entry for name. A trailing ":latest" is ignored.
func (r *Registry) Lookup(name string) (Model, bool) {
	idx, ok := r.byName[name]
	if !ok {
		idx, ok = r.byName[strings.TrimSuffix(name, tagSuffix)]
	}
	if !ok {
		return Model{}, false
	}
	return r.models[idx], true
}

// ByProvider returns the names of the entries of one provider.
func (r *Registry) ByProvider(provider string) []string {
	var out []string
	for _, m := range r.models {
		if m.Provider == provider {
			out = append(out, m.Name)
		}
	}
	return out
}

// ByCapability returns the names of the entries declaring a capability.
func (r *Registry) ByCapability(capability string) []string {
	var out []string
	for _, m := range r.models {
		if slices.Contains(m.Capabilities, capability) {
			out = append(out, m.Name)
		}
	}
	return out
}

// Tags implements transport.Catalog for GET /api/tags.
func (r *Registry) Tags(_ context.Context) (*api.TagsResponse, error) {
	now := r.now()
	resp := &api.TagsResponse{Models: make([]api.ListedModel, 0, len(r.models))}
	for _, m := range r.models {
		name := DisplayName(m.Name)
		h := nameHash(m.Name)
		resp.Models = append(resp.Models, api.ListedModel{
			Name:       name,
			Model:      name,
			ModifiedAt: formatTime(now.AddDate(0, 0, -int(h%maxAgeDays+1))),
			Size:       int64(h%sizeSpread) + minSize,
			Digest:     Digest(m.Name),
			Details:    m.details(),
		})
	}
	return resp, nil
}

// Running implements transport.Catalog for GET /api/ps. Every listed
// model is reported as loaded.
func (r *Registry) Running(_ context.Context) (*api.ProcessResponse, error) {
	expires := formatTime(r.now().Add(keepAlive))
	resp := &api.ProcessResponse{Models: make([]api.RunningModel, 0, len(r.models))}
	for _, m := range r.models {
		size := ParameterBytes(m.ParameterSize)
		resp.Models = append(resp.Models, api.RunningModel{
			Name:      m.Name,
			Model:     m.Name,
			Size:      size,
			Digest:    Digest(m.Name),
			Details:   m.details(),
			ExpiresAt: expires,
			SizeVRAM:  size,
		})
	}
	return resp, nil
}

func (m Model) details() api.ModelDetails {
	families := m.Families
	if len(families) == 0 {
		families = []string{m.Family}
	}
	return api.ModelDetails{
		ParentModel:       "",
		Format:            m.Format,
		Family:            m.Family,
		Families:          families,
		ParameterSize:     m.ParameterSize,
		QuantizationLevel: m.Quantization,
	}
}

// DisplayName appends ":latest" to names without a tag.
func DisplayName(name string) string {
	if strings.Contains(name, ":") {
		return name
	}
	return name + tagSuffix
}

// Digest returns the hex sha256 of the model name.
func Digest(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}

// ParameterBytes estimates a model size in bytes from its parameter size.
func ParameterBytes(parameterSize string) int64 {
	for _, p := range parameterBytes {
		if strings.Contains(parameterSize, p.marker) {
			return p.size
		}
	}
	return defaultSize
}

func nameHash(name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return h.Sum64()
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}

// withDefaults fills the empty fields of m from def.
func withDefaults(m, def Model) Model {
	if m.Provider == "" {
		m.Provider = def.Provider
	}
	if m.Provider == "" {
		m.Provider = providerOf(m.Name)
	}
	if m.Family == "" {
		m.Family = def.Family
	}
	if len(m.Families) == 0 {
		m.Families = def.Families
	}
	if m.ParameterSize == "" {
		m.ParameterSize = def.ParameterSize
	}
	if m.Quantization == "" {
		m.Quantization = def.Quantization
	}
	if m.Format == "" {
		m.Format = def.Format
	}
	if m.Description == "" {
		m.Description = def.Description
	}
	if m.ContextLength == 0 {
		m.ContextLength = def.ContextLength
	}
	if len(m.Capabilities) == 0 {
		m.Capabilities = def.Capabilities
	}
	return m
}

// providerOf returns the prefix before the first "/", or "openai".
func providerOf(name string) string {
	if p, _, ok := strings.Cut(name, "/"); ok {
		return p
	}
	return "openai"
}
