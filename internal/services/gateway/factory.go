package gateway

import (
	"context"
	"fmt"

	"registration-system/internal/services/gateway/hostedpay"
)

// Factory creates checkout provider instances based on provider type
type Factory struct{}

// NewFactory creates a new gateway factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateGateway creates a provider instance based on provider type and configuration
func (f *Factory) CreateGateway(ctx context.Context, provider Provider, config interface{}) (Interface, error) {
	switch provider {
	case ProviderHostedPay:
		hpConfig, ok := config.(*hostedpay.Config)
		if !ok {
			return nil, fmt.Errorf("invalid HostedPay config type, expected *hostedpay.Config")
		}
		return NewHostedPayAdapter(ctx, hpConfig)

	default:
		return nil, fmt.Errorf("unsupported checkout provider: %s", provider)
	}
}

// GetSupportedProviders returns list of supported checkout providers
func (f *Factory) GetSupportedProviders() []Provider {
	return []Provider{
		ProviderHostedPay,
	}
}

// Registry manages multiple provider instances
type Registry struct {
	gateways map[Provider]Interface
	factory  *Factory
	primary  Provider
}

// NewRegistry creates a new gateway registry
func NewRegistry(factory *Factory) *Registry {
	return &Registry{
		gateways: make(map[Provider]Interface),
		factory:  factory,
	}
}

// Register creates and registers a provider instance
func (r *Registry) Register(ctx context.Context, provider Provider, config interface{}) error {
	gw, err := r.factory.CreateGateway(ctx, provider, config)
	if err != nil {
		return fmt.Errorf("failed to create %s gateway: %w", provider, err)
	}

	r.gateways[provider] = gw

	// Set first registered provider as primary
	if r.primary == "" {
		r.primary = provider
	}

	return nil
}

// Get returns a provider instance by type
func (r *Registry) Get(provider Provider) (Interface, error) {
	gw, exists := r.gateways[provider]
	if !exists {
		return nil, fmt.Errorf("checkout provider %s not registered", provider)
	}
	return gw, nil
}

// Primary returns the primary provider instance
func (r *Registry) Primary() (Interface, error) {
	if r.primary == "" {
		return nil, fmt.Errorf("no primary checkout provider configured")
	}
	return r.Get(r.primary)
}

// Close gracefully closes all provider connections
func (r *Registry) Close(ctx context.Context) error {
	for provider, gw := range r.gateways {
		if err := gw.Close(ctx); err != nil {
			fmt.Printf("Error closing %s gateway: %v\n", provider, err)
		}
	}
	return nil
}
