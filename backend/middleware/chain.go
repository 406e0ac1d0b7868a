// ABOUTME: Middleware composition for route handlers
// ABOUTME: A Stack is built once and shared by every route, which appends its own layers

package middleware

import "net/http"

// Middleware wraps a handler with behaviour that runs around it.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// Chain wraps h so the first middleware is the outermost.
// Chain(h, a, b) serves requests as a(b(h)). Nil entries are skipped.
func Chain(h http.HandlerFunc, middlewares ...Middleware) http.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			continue
		}
		h = middlewares[i](h)
	}
	return h
}

// Stack is an ordered middleware list, outermost first.
type Stack []Middleware

// With returns a new stack with extra layers inside the existing ones. The
// receiver is never modified, so one base stack can feed many routes.
func (s Stack) With(more ...Middleware) Stack {
	out := make(Stack, 0, len(s)+len(more))
	out = append(out, s...)
	return append(out, more...)
}

// Then wraps h with every layer in the stack
func (s Stack) Then(h http.HandlerFunc) http.HandlerFunc {
	return Chain(h, s...)
}
