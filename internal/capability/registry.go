package capability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/metrics"
	"github.com/sirupsen/logrus"
)

// ParamKind is the JSON kind a tool argument must have.
type ParamKind string

const (
	KindString  ParamKind = "string"
	KindNumber  ParamKind = "number"
	KindBoolean ParamKind = "boolean"
	KindObject  ParamKind = "object"
	KindArray   ParamKind = "array"
	KindAny     ParamKind = "any"
)

// Param declares one accepted key of a tool's argument bag.
type Param struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
}

// ToolCard represents registry metadata for a tool.
type ToolCard struct {
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description"`
	Params      []Param                `json:"-"`
	InputSchema map[string]interface{} `json:"input_schema"`
	SideEffects []string               `json:"side_effects,omitempty"`
	Checksum    string                 `json:"checksum"`
}

// Args is the argument bag passed to a tool.
type Args map[string]any

// String returns args[key] when it is a string, "" otherwise.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Decode re-encodes args[key] into dst. It is how tools turn loosely typed
// JSON values into their own structs.
func (a Args) Decode(key string, dst any) error {
	v, ok := a[key]
	if !ok {
		return fmt.Errorf("missing %q", key)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// Func is a tool body. The returned value is handed back to the caller untouched.
type Func func(ctx context.Context, args Args) any

// ResultKind tags a dispatch outcome.
type ResultKind string

const (
	Success          ResultKind = "success"
	NotFound         ResultKind = "not_found"
	InvalidArguments ResultKind = "invalid_arguments"
	// Unavailable is only produced by remote invokers when the tool server cannot be reached.
	Unavailable ResultKind = "unavailable"
)

// Result is the outcome of one dispatch. Value is set for Success, Reason otherwise.
type Result struct {
	Kind   ResultKind
	Value  any
	Reason string
}

func (r Result) OK() bool { return r.Kind == Success }

// DecodeValue re-encodes a successful value into dst.
func (r Result) DecodeValue(dst any) error {
	if r.Kind != Success {
		return fmt.Errorf("result is %s: %s", r.Kind, r.Reason)
	}
	b, err := json.Marshal(r.Value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// Invoker dispatches a tool by name. Both the local Registry and the remote Client implement it.
type Invoker interface {
	Invoke(ctx context.Context, name string, args Args) Result
}

var (
	// ErrDuplicateTool indicates a second registration under an existing name.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrInvalidToolCard indicates a card without a name or a usable parameter list.
	ErrInvalidToolCard = errors.New("invalid tool card")
)

type entry struct {
	card ToolCard
	fn   Func
}

// Registry maps tool names to their card and implementation.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]entry
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewRegistry creates an empty registry. log and m may be nil.
func NewRegistry(log logrus.FieldLogger, m *metrics.Metrics) *Registry {
	if log == nil {
		log = logger.Default()
	}
	return &Registry{tools: make(map[string]entry), log: log, metrics: m}
}

// Register adds a tool. The card's input schema and checksum are derived from its params.
func (r *Registry) Register(card ToolCard, fn Func) error {
	if strings.TrimSpace(card.Name) == "" || fn == nil {
		return fmt.Errorf("%w: name and func are required", ErrInvalidToolCard)
	}
	seen := make(map[string]struct{}, len(card.Params))
	for _, p := range card.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: %s has an unnamed param", ErrInvalidToolCard, card.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s declares %q twice", ErrInvalidToolCard, card.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	if card.Version == "" {
		card.Version = "v1"
	}
	card.InputSchema = InputSchema(card.Params)
	sum, err := ComputeChecksum(card)
	if err != nil {
		return err
	}
	card.Checksum = sum

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[card.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, card.Name)
	}
	r.tools[card.Name] = entry{card: card, fn: fn}
	return nil
}

// Tool returns the ToolCard registered under name.
func (r *Registry) Tool(name string) (ToolCard, bool) {
	if r == nil {
		return ToolCard{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[name]
	return e.card, ok
}

// Cards lists every registered card sorted by name.
func (r *Registry) Cards() []ToolCard {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolCard, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.card)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invoke resolves name, validates args against the declared params and runs the tool.
// The tool body never runs when validation fails.
func (r *Registry) Invoke(ctx context.Context, name string, args Args) Result {
	log := r.log.WithFields(logrus.Fields{"tool": name, "args": Redact(args)})

	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		log.Warn("unknown tool")
		r.metrics.ToolInvoked(name, string(NotFound))
		return Result{Kind: NotFound, Reason: "tool not found: " + name}
	}

	if err := validate(e.card.Params, args); err != nil {
		log.WithError(err).Warn("rejected tool arguments")
		r.metrics.ToolInvoked(name, string(InvalidArguments))
		return Result{Kind: InvalidArguments, Reason: err.Error()}
	}

	log.Info("dispatching tool")
	if args == nil {
		args = Args{}
	}
	v := e.fn(ctx, args)
	r.metrics.ToolInvoked(name, string(Success))
	return Result{Kind: Success, Value: v}
}

func validate(params []Param, args Args) error {
	declared := make(map[string]Param, len(params))
	for _, p := range params {
		declared[p.Name] = p
		if _, ok := args[p.Name]; !ok && p.Required {
			return fmt.Errorf("missing required argument %q", p.Name)
		}
	}
	extra := make([]string, 0)
	for k := range args {
		if _, ok := declared[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return fmt.Errorf("unexpected argument %q", extra[0])
	}
	for k, v := range args {
		p := declared[k]
		if !kindMatches(p.Kind, v) {
			return fmt.Errorf("argument %q must be %s", k, p.Kind)
		}
	}
	return nil
}

func kindMatches(kind ParamKind, v any) bool {
	if kind == KindAny || kind == "" {
		return true
	}
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch kind {
	case KindString:
		return rv.Kind() == reflect.String
	case KindBoolean:
		return rv.Kind() == reflect.Bool
	case KindNumber:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return true
		}
	case KindObject:
		return rv.Kind() == reflect.Map || rv.Kind() == reflect.Struct
	case KindArray:
		return rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array
	}
	return false
}

// Redact renders args as "key=kind(size)" pairs so logs never carry raw values.
func Redact(args Args) string {
	if len(args) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+describe(args[k]))
	}
	return strings.Join(parts, ",")
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return fmt.Sprintf("string(%d)", rv.Len())
	case reflect.Map:
		return fmt.Sprintf("object(%d)", rv.Len())
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("array(%d)", rv.Len())
	case reflect.Bool:
		return "boolean"
	case reflect.Struct:
		return "object"
	default:
		return "number"
	}
}

// InputSchema renders params as a JSON schema object.
func InputSchema(params []Param) map[string]interface{} {
	props := make(map[string]interface{}, len(params))
	required := make([]string, 0)
	for _, p := range params {
		prop := map[string]interface{}{}
		if p.Kind != KindAny && p.Kind != "" {
			prop["type"] = string(p.Kind)
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]interface{}{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// ComputeChecksum returns a deterministic hash of the ToolCard payload.
func ComputeChecksum(tc ToolCard) (string, error) {
	payload := map[string]interface{}{
		"name":         tc.Name,
		"version":      tc.Version,
		"description":  tc.Description,
		"input_schema": tc.InputSchema,
		"side_effects": tc.SideEffects,
	}
	normalized, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(normalized)
	return hex.EncodeToString(sum[:]), nil
}
