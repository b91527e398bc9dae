package job

import (
	"github.com/pkg/errors"

	"spritesplit/internal/grid"
)

// Class partitions failures by how the pipeline reacts to them. Only
// transient failures are retried.
type Class int

const (
	// ClassTransient covers anything arising mid-pipeline after upstream
	// collaborators succeeded. Retried exactly once.
	ClassTransient Class = iota
	// ClassInput covers malformed rasters and unsatisfiable geometry.
	ClassInput
	// ClassConfig covers impossible configurations, e.g. grid mode with no
	// detectable lines and no fallback counts.
	ClassConfig
	// ClassCollaborator covers generation and background-removal failures.
	// Terminal: the geometric engine never ran.
	ClassCollaborator
)

func (c Class) String() string {
	switch c {
	case ClassInput:
		return "input"
	case ClassConfig:
		return "config"
	case ClassCollaborator:
		return "collaborator"
	default:
		return "transient"
	}
}

// Failure tags an error with its class.
type Failure struct {
	Class Class
	Err   error
}

func (f *Failure) Error() string {
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// InputError wraps err as a non-retryable input failure.
func InputError(err error, msg string) error {
	return &Failure{Class: ClassInput, Err: errors.WithMessage(err, msg)}
}

// ConfigError wraps err as a non-retryable configuration failure.
func ConfigError(err error, msg string) error {
	return &Failure{Class: ClassConfig, Err: errors.WithMessage(err, msg)}
}

// CollaboratorError wraps err as a terminal collaborator failure.
func CollaboratorError(err error, msg string) error {
	return &Failure{Class: ClassCollaborator, Err: errors.WithMessage(err, msg)}
}

// ClassOf resolves the failure class of err. Untagged errors are transient,
// except engine errors with a known non-transient meaning.
func ClassOf(err error) Class {
	var f *Failure
	if errors.As(err, &f) {
		return f.Class
	}
	var noGrid *grid.ErrNoGrid
	if errors.As(err, &noGrid) {
		return ClassConfig
	}
	return ClassTransient
}
