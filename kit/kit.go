// Package kit holds the transport-agnostic endpoint plumbing shared by the
// HTTP API and the MCP tools: an Endpoint is a typed request/response
// function, middleware wraps it, and each transport adapts it.
package kit

import "context"

// Endpoint is one transport-agnostic operation.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left to right: the first argument is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
