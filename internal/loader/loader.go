package loader

import (
	// Std
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/logger"
	"github.com/momentum-xyz/mapconfig/pkg/worldsettings"

	// Third-Party
	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v2"
)

//go:embed world.schema.json
var worldSchema string

const (
	worldSchemaURL     = "world.schema.json"
	overridesSchemaURL = worldSchemaURL + "#/definitions/overrides"
)

var log = logger.L().With("package", "loader")

// WorldError is a failure confined to one world of the document. The other
// worlds still load.
type WorldError struct {
	Index int
	Name  string
	Err   error
}

func (e *WorldError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("world #%d: %s", e.Index, e.Err)
	}
	return fmt.Sprintf("world #%d (%s): %s", e.Index, e.Name, e.Err)
}

func (e *WorldError) Unwrap() error {
	return e.Err
}

type Result struct {
	Worlds []*worldsettings.WorldSettings
	Errors []*WorldError
}

func (r *Result) Names() []string {
	names := make([]string, 0, len(r.Worlds))
	for _, w := range r.Worlds {
		names = append(names, w.Name())
	}
	return names
}

// Loader turns a worlds document into validated WorldSettings.
type Loader struct {
	schema    *jsonschema.Schema
	overrides *jsonschema.Schema
}

func New() (*Loader, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(worldSchemaURL, strings.NewReader(worldSchema)); err != nil {
		return nil, errors.WithMessage(err, "failed to add world schema")
	}
	schema, err := c.Compile(worldSchemaURL)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to compile world schema")
	}
	overrides, err := c.Compile(overridesSchemaURL)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to compile overrides schema")
	}
	return &Loader{schema: schema, overrides: overrides}, nil
}

// LoadFile reads and parses the worlds document at path. The returned error
// covers the document as a whole; per world failures are in Result.Errors.
func (l *Loader) LoadFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read worlds file")
	}
	res, err := l.Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to parse %s", path)
	}
	return res, nil
}

// Parse accepts either a JSON or a YAML document with a top level "worlds"
// list.
func (l *Loader) Parse(data []byte) (*Result, error) {
	docs, err := splitWorlds(data)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	seen := make(map[string]int, len(docs))
	for i, raw := range docs {
		w, err := l.parseWorld(raw)
		if err == nil {
			if first, ok := seen[w.Name()]; ok {
				err = errors.WithMessagef(worldsettings.ErrDuplicateWorldName, "%q already defined by world #%d", w.Name(), first)
			}
		}
		if err != nil {
			werr := &WorldError{Index: i, Name: nameOf(raw), Err: err}
			log.Warn(werr)
			res.Errors = append(res.Errors, werr)
			continue
		}
		seen[w.Name()] = i
		res.Worlds = append(res.Worlds, w)
	}

	log.Infof("loaded %d worlds, %d failed", len(res.Worlds), len(res.Errors))
	return res, nil
}

func (l *Loader) parseWorld(raw []byte) (*worldsettings.WorldSettings, error) {
	w, err := worldsettings.Decode(raw)
	if err != nil {
		return nil, err
	}

	if err := validate(l.schema, raw); err != nil {
		return nil, err
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

// ValidateOverrides checks an override document against the optional world
// fields. Identity fields and unknown keys are rejected. A null top level
// value is allowed and means "back to the file value".
func (l *Loader) ValidateOverrides(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return validate(l.overrides, data)
}

// DecodeOverrides validates an override document and decodes it.
func (l *Loader) DecodeOverrides(data []byte) (worldsettings.Overrides, error) {
	if err := l.ValidateOverrides(data); err != nil {
		return worldsettings.Overrides{}, err
	}
	return worldsettings.DecodeOverrides(data)
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return errors.WithMessage(worldsettings.ErrInvalidConfigValue, err.Error())
	}
	if err := schema.Validate(v); err != nil {
		return errors.WithMessage(worldsettings.ErrInvalidConfigValue, schemaMessage(err))
	}
	return nil
}

// ApplyOverrides applies stored override documents by world name. A world
// whose override does not decode or validate keeps its file settings and
// the failure is reported.
func (l *Loader) ApplyOverrides(worlds []*worldsettings.WorldSettings, overrides map[string][]byte) []*WorldError {
	var errs []*WorldError
	for i, w := range worlds {
		doc, ok := overrides[w.Name()]
		if !ok {
			continue
		}
		ov, err := l.DecodeOverrides(doc)
		if err == nil {
			candidate := w.Clone()
			candidate.Apply(ov)
			if err = candidate.Validate(); err == nil {
				worlds[i] = candidate
				continue
			}
		}
		werr := &WorldError{Index: i, Name: w.Name(), Err: errors.WithMessage(err, "override")}
		log.Warn(werr)
		errs = append(errs, werr)
	}
	return errs
}

func schemaMessage(err error) string {
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		leaf := verr
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		return fmt.Sprintf("%s: %s", leaf.InstanceLocation, leaf.Message)
	}
	return err.Error()
}

func nameOf(raw []byte) string {
	var v struct {
		Name interface{} `json:"name"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	if s, ok := v.Name.(string); ok {
		return s
	}
	return ""
}

// splitWorlds returns each world of the document as a standalone JSON object.
func splitWorlds(data []byte) ([][]byte, error) {
	var doc struct {
		Worlds []interface{} `json:"worlds" yaml:"worlds"`
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.WithMessage(err, "failed to decode json")
		}
	} else if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithMessage(err, "failed to decode yaml")
	}

	out := make([][]byte, 0, len(doc.Worlds))
	for i, w := range doc.Worlds {
		raw, err := json.Marshal(normalize(w))
		if err != nil {
			return nil, errors.WithMessagef(err, "world #%d", i)
		}
		out = append(out, raw)
	}
	return out, nil
}

// normalize converts the map[interface{}]interface{} values produced by the
// yaml decoder into JSON compatible maps.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}
