package logger

// NoopLogger discards all log output. Used in tests and as a safe default.
type NoopLogger struct{}

// NewNoop creates a new no-op logger.
func NewNoop() Interface {
	return &NoopLogger{}
}

// Debug does nothing.
func (l *NoopLogger) Debug(_ string, _ ...any) {}

// Info does nothing.
func (l *NoopLogger) Info(_ string, _ ...any) {}

// Warn does nothing.
func (l *NoopLogger) Warn(_ string, _ ...any) {}

// Error does nothing.
func (l *NoopLogger) Error(_ string, _ ...any) {}

// Fatal does nothing.
func (l *NoopLogger) Fatal(_ string, _ ...any) {}

// With returns the receiver.
func (l *NoopLogger) With(_ ...any) Interface { return l }

// WithComponent returns the receiver.
func (l *NoopLogger) WithComponent(_ string) Interface { return l }

// WithSource returns the receiver.
func (l *NoopLogger) WithSource(_ string) Interface { return l }

// WithCycle returns the receiver.
func (l *NoopLogger) WithCycle(_ string) Interface { return l }

// WithError returns the receiver.
func (l *NoopLogger) WithError(_ error) Interface { return l }
