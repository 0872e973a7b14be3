package principals

import "context"

type ctxKey struct{}

// WithPrincipal adjunta el principal resuelto al contexto del request.
// Solo lo usa la capa HTTP; los servicios reciben el Principal como argumento.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	if !ok || p.ID == "" {
		return Principal{}, false
	}
	return p, true
}
