package identity

import "context"

type userIDKey struct{}

// WithUserID returns a context carrying an authenticated user id, as
// established by the transport layer.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// ContextProvider resolves the principal stashed in the request context.
// Requests without one resolve to the guest path.
type ContextProvider struct{}

func (ContextProvider) CurrentUserID(ctx context.Context) (string, error) {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id, nil
}
