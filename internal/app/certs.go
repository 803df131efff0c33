package app

import (
	"context"
	"fmt"

	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/tlsgen"
)

// Certs provisions TLS material for every service whose descriptor enables
// it, writing under the configured cert dir. Services without a tls block,
// or with tls disabled, are passed over silently.
func (a *App) Certs(ctx context.Context, services []string) (*tlsgen.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	if len(services) == 0 {
		discovered, err := a.store.Services()
		if err != nil {
			return nil, fmt.Errorf("discovering services: %w", err)
		}
		services = discovered
	}

	var specs []tlsgen.Spec
	for _, name := range services {
		base, err := a.store.LoadService(name)
		if err != nil {
			return nil, fmt.Errorf("loading service %q: %w", name, err)
		}
		if base.TLS == nil || !base.TLS.Enabled {
			continue
		}
		if base.TLS.CertName == "" || base.TLS.CAName == "" {
			return nil, fmt.Errorf("service %q: tls cert_name and ca_name are required when tls is enabled", name)
		}
		specs = append(specs, tlsgen.Spec{
			Service:  name,
			CertName: base.TLS.CertName,
			CAName:   base.TLS.CAName,
		})
	}

	if len(specs) == 0 {
		a.logger.Info("No service enables TLS; nothing to provision.")
		return &tlsgen.Result{}, nil
	}
	return tlsgen.New(a.cfg.CertDir).Provision(ctx, specs)
}
