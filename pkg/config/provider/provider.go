// Package provider defines the config source abstraction. Providers load
// configuration bytes from a source and support watching for changes.
package provider

import (
	"context"
	"fmt"
)

// Type identifies the config source type.
type Type string

const (
	TypeFile Type = "file"
)

// ParseType converts a string to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "file", "":
		return TypeFile, nil
	default:
		return "", fmt.Errorf("unknown provider type: %s", s)
	}
}

// Provider abstracts config sources. Implementations must be safe for
// concurrent use.
type Provider interface {
	Type() Type
	Load(ctx context.Context) ([]byte, error)
	// Watch starts watching for changes, signaling via the returned
	// channel. Returns a nil channel if the provider doesn't support it.
	Watch(ctx context.Context) (<-chan struct{}, error)
	Close() error
}

// Config configures provider creation.
type Config struct {
	Type Type
	Path string
}

// New creates a Provider for cfg. Only the file provider is implemented —
// this module carries no remote config backend (consul/etcd/zookeeper, as
// the teacher does) since nothing in its deployment model needs one.
func New(cfg Config) (Provider, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	switch cfg.Type {
	case TypeFile, "":
		return NewFileProvider(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}
