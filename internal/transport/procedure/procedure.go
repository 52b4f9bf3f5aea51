// Package procedure holds the single table of API operations. Each
// Procedure binds a typed service method to a name ("chapter.update"),
// and optionally to a REST verb and path. The rest, rpc and openapi
// packages project the same table onto their wire formats.
package procedure

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/shared/apperror"
)

type Kind string

const (
	Query    Kind = "query"
	Mutation Kind = "mutation"
)

// Empty is the input of procedures that take no arguments.
type Empty = shared.Empty

// Ack is returned by procedures that only confirm an action.
type Ack = shared.Ack

// Paged is implemented by list outputs; transports split items and meta.
type Paged interface {
	PageItems() any
	PageMeta() shared.PageMeta
}

type handlerFunc func(ctx context.Context, caller shared.Caller, input any) (any, error)

type Procedure struct {
	Name    string
	Kind    Kind
	Summary string
	Tag     string

	// REST projection, empty Path means RPC only
	Method string
	Path   string
	Status int

	// Public procedures are callable without a bearer token
	Public bool
	// NoBatch procedures are rejected inside RPC batches (rate-limited auth calls)
	NoBatch bool

	InputType  reflect.Type
	OutputType reflect.Type

	newInput func() any
	handle   handlerFunc
}

func newProcedure[In any, Out any](name string, kind Kind, fn func(context.Context, shared.Caller, *In) (Out, error)) *Procedure {
	method := http.MethodPost
	if kind == Query {
		method = http.MethodGet
	}

	tag := name
	if i := strings.IndexByte(name, '.'); i > 0 {
		tag = name[:i]
	}

	return &Procedure{
		Name:       name,
		Kind:       kind,
		Tag:        tag,
		Method:     method,
		Status:     http.StatusOK,
		InputType:  reflect.TypeOf((*In)(nil)).Elem(),
		OutputType: reflect.TypeOf((*Out)(nil)).Elem(),
		newInput:   func() any { return new(In) },
		handle: func(ctx context.Context, caller shared.Caller, input any) (any, error) {
			in, ok := input.(*In)
			if !ok {
				return nil, apperror.BadRequest("invalid input")
			}
			return fn(ctx, caller, in)
		},
	}
}

// NewQuery declares a read-only procedure (GET over REST and RPC).
func NewQuery[In any, Out any](name string, fn func(context.Context, shared.Caller, *In) (Out, error)) *Procedure {
	return newProcedure(name, Query, fn)
}

// NewMutation declares a state-changing procedure (POST over RPC).
func NewMutation[In any, Out any](name string, fn func(context.Context, shared.Caller, *In) (Out, error)) *Procedure {
	return newProcedure(name, Mutation, fn)
}

// REST exposes the procedure at method + path (gin syntax, relative to /api/v1).
func (p *Procedure) REST(method, path string) *Procedure {
	p.Method = method
	p.Path = path
	if method == http.MethodPost && p.Kind == Mutation && p.Status == http.StatusOK && strings.HasSuffix(p.Name, ".create") {
		p.Status = http.StatusCreated
	}
	return p
}

func (p *Procedure) WithStatus(status int) *Procedure {
	p.Status = status
	return p
}

func (p *Procedure) Describe(summary string) *Procedure {
	p.Summary = summary
	return p
}

func (p *Procedure) AllowAnonymous() *Procedure {
	p.Public = true
	return p
}

func (p *Procedure) Unbatched() *Procedure {
	p.NoBatch = true
	return p
}

// NewInput allocates a zero input value (pointer) to decode into.
func (p *Procedure) NewInput() any {
	return p.newInput()
}

// Call runs the handler. input must come from NewInput.
func (p *Procedure) Call(ctx context.Context, caller shared.Caller, input any) (any, error) {
	return p.handle(ctx, caller, input)
}

// =====================================================
// REGISTRY
// =====================================================

// Module is implemented by each domain's handler package.
type Module interface {
	Procedures() []*Procedure
}

type Registry struct {
	byName map[string]*Procedure
}

func NewRegistry(modules ...Module) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Procedure)}
	for _, m := range modules {
		if err := r.Register(m.Procedures()...); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(procs ...*Procedure) error {
	for _, p := range procs {
		if _, dup := r.byName[p.Name]; dup {
			return fmt.Errorf("procedure %q registered twice", p.Name)
		}
		r.byName[p.Name] = p
	}
	return nil
}

func (r *Registry) Lookup(name string) (*Procedure, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns procedures sorted by name.
func (r *Registry) All() []*Procedure {
	out := make([]*Procedure, 0, len(r.byName))
	for _, p := range r.byName {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Split separates a handler result into data + optional page meta.
func Split(out any) (any, *shared.PageMeta) {
	if paged, ok := out.(Paged); ok {
		meta := paged.PageMeta()
		return paged.PageItems(), &meta
	}
	return out, nil
}
