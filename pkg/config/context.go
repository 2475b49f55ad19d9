package config

import (
	"context"
)

// ContextKey is an alias used for storing values in context
type ContextKey string

const (
	// ConfigCtxKey is the context key used to store the resolved *Config
	ConfigCtxKey ContextKey = "config"
	// ServiceCtxKey is the context key used to store the Service that produced it
	ServiceCtxKey ContextKey = "config_service"
)

// ContextWithConfig stores the resolved configuration and its service in the context
func ContextWithConfig(ctx context.Context, cfg *Config, service Service) context.Context {
	ctx = context.WithValue(ctx, ConfigCtxKey, cfg)
	if service != nil {
		ctx = context.WithValue(ctx, ServiceCtxKey, service)
	}
	return ctx
}

// FromContext returns the configuration stored in ctx, or the defaults.
func FromContext(ctx context.Context) *Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(ConfigCtxKey).(*Config); ok && cfg != nil {
			return cfg
		}
	}
	return Default()
}

// ServiceFromContext returns the Service stored in ctx, if any.
func ServiceFromContext(ctx context.Context) Service {
	if ctx == nil {
		return nil
	}
	service, ok := ctx.Value(ServiceCtxKey).(Service)
	if !ok {
		return nil
	}
	return service
}
