// Package resolver maps an incoming hostname to the tenant whose partition
// should serve the request.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/registry"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// Resolver looks hostnames up in the catalog
type Resolver struct {
	catalog  registry.Catalog
	scoper   *tenancy.Scoper
	fallback bool
}

// Option configures a Resolver
type Option func(*Resolver)

// WithoutFallback makes unknown hosts fail with ErrTenantNotFound instead
// of resolving to the public tenant.
func WithoutFallback() Option {
	return func(r *Resolver) { r.fallback = false }
}

// New creates a Resolver
func New(catalog registry.Catalog, scoper *tenancy.Scoper, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog, scoper: scoper, fallback: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the tenant routed to host. The port and any trailing dot
// are ignored and the match is case-insensitive. Unknown hosts resolve to
// the public tenant unless fallback is disabled.
func (r *Resolver) Resolve(ctx context.Context, host string) (*model.Tenant, error) {
	normalized := registry.NormalizeHost(host)
	if normalized != "" {
		t, err := r.catalog.TenantByDomain(ctx, normalized)
		switch {
		case err == nil:
			prometheus.RecordResolve("matched")
			return t, nil
		case !errors.Is(err, tenancy.ErrTenantNotFound):
			prometheus.RecordResolve("error")
			return nil, fmt.Errorf("resolve %s: %w", normalized, err)
		}
	}
	if !r.fallback {
		prometheus.RecordResolve("unknown")
		return nil, fmt.Errorf("%w: no domain %q", tenancy.ErrTenantNotFound, normalized)
	}
	t, err := r.catalog.PublicTenant(ctx)
	if err != nil {
		prometheus.RecordResolve("error")
		return nil, fmt.Errorf("resolve %s: public tenant: %w", normalized, err)
	}
	prometheus.RecordResolve("public_fallback")
	logger.FromContext(ctx).Debug("Unknown host served by public tenant", zap.String("host", normalized))
	return t, nil
}

// Current returns the tenant bound to ctx, or nil outside a scope
func (r *Resolver) Current(ctx context.Context) *model.Tenant {
	return tenancy.Current(ctx)
}

// Enter resolves host and binds the result to the returned context
func (r *Resolver) Enter(ctx context.Context, host string) (context.Context, tenancy.Release, *model.Tenant, error) {
	t, err := r.Resolve(ctx, host)
	if err != nil {
		return ctx, func() {}, nil, err
	}
	scoped, release := r.scoper.Enter(ctx, t)
	return scoped, release, t, nil
}

// Scoper returns the scoper used by Enter
func (r *Resolver) Scoper() *tenancy.Scoper {
	return r.scoper
}
