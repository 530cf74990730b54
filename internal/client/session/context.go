package session

import "context"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying m.
func NewContext(ctx context.Context, m *Machine) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext extracts the Machine stored by NewContext.
func FromContext(ctx context.Context) (*Machine, bool) {
	m, ok := ctx.Value(ctxKey{}).(*Machine)
	return m, ok && m != nil
}
