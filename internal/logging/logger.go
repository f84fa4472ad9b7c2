// Package logging is the structured logger every RunReward store, worker and
// command writes through. New picks the backend: slog (json or text) or zap.
package logging

import "context"

// Logger takes a message plus alternating key/value attributes:
//
//	log.Info(ctx, "registration confirmed", "id", reg.ID, "course", reg.CourseName)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds attributes to every later record of the returned logger.
	With(args ...any) Logger
}
