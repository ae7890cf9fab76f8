package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level, giving a
// full audit trail for a simulation run.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource that draws from src and logs each
// draw to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Intn draws from the wrapped source and logs the bound and result.
//
// Precondition: n > 0.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("rng draw",
		zap.Int("bound", n),
		zap.Int("value", v),
	)
	return v
}
