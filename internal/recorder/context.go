package recorder

import "context"

type contextKey struct{}

// WithRecorder returns a copy of ctx carrying r as the active recorder.
// Commands executed through an interceptor with this context are recorded
// by r. Passing a nil recorder disables recording for the derived context.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, contextKey{}, r)
}

// FromContext returns the active recorder carried by ctx, if any.
func FromContext(ctx context.Context) (*Recorder, bool) {
	r, ok := ctx.Value(contextKey{}).(*Recorder)
	return r, ok && r != nil
}
