// Package tenancy binds the current tenant to a dynamic scope and routes
// data access to that tenant's partition.
//
// The binding is carried by context.Context values, never by process-wide
// state, so two requests running concurrently cannot observe each other's
// tenant. Leaving a scope restores whatever binding was visible before it
// was entered, including no binding at all.
package tenancy

import (
	"context"
	"sync/atomic"

	"github.com/suteetoe/tenantstarter/internal/model"
)

type scopeKey struct{}

type scope struct {
	tenant   *model.Tenant
	locales  Locales
	parent   *scope
	released atomic.Bool
}

// live returns the innermost scope that has not been released
func (s *scope) live() *scope {
	for s != nil && s.released.Load() {
		s = s.parent
	}
	return s
}

// Release ends a scope. Calling it more than once is harmless.
type Release func()

// Scoper enters tenant scopes and narrows the offered locales to the
// tenant's active languages for the lifetime of each scope.
type Scoper struct {
	system Locales
}

// NewScoper creates a Scoper with the process-wide locale defaults
func NewScoper(languages []string, defaultLanguage string) *Scoper {
	offered := make([]string, len(languages))
	copy(offered, languages)
	if defaultLanguage == "" && len(offered) > 0 {
		defaultLanguage = offered[0]
	}
	return &Scoper{system: Locales{Offered: offered, Default: defaultLanguage}}
}

// System returns the process-wide locale defaults
func (s *Scoper) System() Locales {
	return s.system.clone()
}

// Enter binds t as the current tenant of the returned context. The
// returned Release must be called exactly once, typically deferred; after
// it runs, Current on the returned context reports the binding that was
// current before Enter.
func (s *Scoper) Enter(ctx context.Context, t *model.Tenant) (context.Context, Release) {
	if t == nil {
		return ctx, func() {}
	}
	parent, _ := ctx.Value(scopeKey{}).(*scope)
	sc := &scope{
		tenant:  t,
		locales: s.narrow(t),
		parent:  parent,
	}
	return context.WithValue(ctx, scopeKey{}, sc), func() {
		sc.released.Store(true)
	}
}

// Run calls fn inside a scope bound to t and releases the scope on every
// exit path, including a panic in fn.
func (s *Scoper) Run(ctx context.Context, t *model.Tenant, fn func(ctx context.Context) error) error {
	scoped, release := s.Enter(ctx, t)
	defer release()
	return fn(scoped)
}

// Locales returns the locales offered in ctx: the narrowed set inside a
// tenant scope, the process-wide defaults otherwise.
func (s *Scoper) Locales(ctx context.Context) Locales {
	if sc := current(ctx); sc != nil {
		return sc.locales.clone()
	}
	return s.system.clone()
}

func current(ctx context.Context) *scope {
	if ctx == nil {
		return nil
	}
	sc, _ := ctx.Value(scopeKey{}).(*scope)
	return sc.live()
}

// Current returns the tenant bound to ctx, or nil outside any scope
func Current(ctx context.Context) *model.Tenant {
	if sc := current(ctx); sc != nil {
		return sc.tenant
	}
	return nil
}

// MustCurrent returns the bound tenant or ErrNoTenantContext
func MustCurrent(ctx context.Context) (*model.Tenant, error) {
	t := Current(ctx)
	if t == nil {
		return nil, ErrNoTenantContext
	}
	return t, nil
}

// SchemaName returns the partition key bound to ctx, or "" outside any scope
func SchemaName(ctx context.Context) string {
	if t := Current(ctx); t != nil {
		return t.SchemaName
	}
	return ""
}

// IsPublic reports whether ctx is bound to the public partition
func IsPublic(ctx context.Context) bool {
	return Current(ctx).IsPublic()
}
