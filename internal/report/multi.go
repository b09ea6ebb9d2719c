package report

import (
	"github.com/harrison/roundtable/internal/models"
	"github.com/harrison/roundtable/internal/roles"
)

// MultiSink fans every call out to multiple sinks, returning the first
// error encountered. Validation errors from one sink stop the fan-out so
// later sinks see no side effect either.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink over the given sinks. Nil entries are
// skipped.
func NewMultiSink(sinks ...Sink) *MultiSink {
	var active []Sink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &MultiSink{sinks: active}
}

// RoleDescriptions implements Sink.
func (ms *MultiSink) RoleDescriptions(set *roles.Set) error {
	for _, s := range ms.sinks {
		if err := s.RoleDescriptions(set); err != nil {
			return err
		}
	}
	return nil
}

// Subtasks implements Sink.
func (ms *MultiSink) Subtasks(subtasks []models.Subtask) error {
	for _, s := range ms.sinks {
		if err := s.Subtasks(subtasks); err != nil {
			return err
		}
	}
	return nil
}

// RolePair implements Sink.
func (ms *MultiSink) RolePair(subtaskID string, pair roles.Pair) error {
	for _, s := range ms.sinks {
		if err := s.RolePair(subtaskID, pair); err != nil {
			return err
		}
	}
	return nil
}

// Message implements Sink. The role label is validated once up front so
// no sink produces a side effect for an invalid label.
func (ms *MultiSink) Message(role models.Role, roleName, content string) error {
	if err := role.Validate(); err != nil {
		return err
	}
	for _, s := range ms.sinks {
		if err := s.Message(role, roleName, content); err != nil {
			return err
		}
	}
	return nil
}

// Summary implements Sink.
func (ms *MultiSink) Summary(subtaskID, text string) error {
	for _, s := range ms.sinks {
		if err := s.Summary(subtaskID, text); err != nil {
			return err
		}
	}
	return nil
}

// Warning implements Sink.
func (ms *MultiSink) Warning(message string) error {
	for _, s := range ms.sinks {
		if err := s.Warning(message); err != nil {
			return err
		}
	}
	return nil
}

// NoOpSink discards everything. Useful for tests and quiet runs.
type NoOpSink struct{}

// NewNoOpSink creates a NoOpSink instance.
func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

// RoleDescriptions is a no-op implementation.
func (n *NoOpSink) RoleDescriptions(set *roles.Set) error { return nil }

// Subtasks is a no-op implementation.
func (n *NoOpSink) Subtasks(subtasks []models.Subtask) error { return nil }

// RolePair is a no-op implementation.
func (n *NoOpSink) RolePair(subtaskID string, pair roles.Pair) error { return nil }

// Message validates the role label, then discards the message.
func (n *NoOpSink) Message(role models.Role, roleName, content string) error {
	return role.Validate()
}

// Summary is a no-op implementation.
func (n *NoOpSink) Summary(subtaskID, text string) error { return nil }

// Warning is a no-op implementation.
func (n *NoOpSink) Warning(message string) error { return nil }
