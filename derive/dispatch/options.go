package dispatch

import "go.uber.org/zap"

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithValue sets the accessor for the value transferred with each call.
// Without it every call is treated as carrying zero value.
func WithValue(v ValueSource) Option {
	return func(d *Dispatcher) {
		d.value = v
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics records call and failure counts into m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}
