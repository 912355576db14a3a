package registry

import "context"

// NoopRegistry is used when redis is disabled.
type NoopRegistry struct{}

func (NoopRegistry) MarkOnline(context.Context, int64) error  { return nil }
func (NoopRegistry) MarkOffline(context.Context, int64) error { return nil }
func (NoopRegistry) Lookup(context.Context, int64) (string, error) {
	return "", ErrNotFound
}

func (NoopRegistry) RunHeartbeat(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (NoopRegistry) Close() error { return nil }
