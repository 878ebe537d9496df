package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	adapterports "github.com/renthub/rent-ledger/internal/adapters/ports"
	"github.com/renthub/rent-ledger/internal/adapters/secrets"
	"github.com/renthub/rent-ledger/internal/config"
)

// Secret paths for gateway credentials
const (
	stripeSecretPath       = "rent-ledger/gateways/stripe/secret_key"
	paymongoSecretPath     = "rent-ledger/gateways/paymongo/secret_key"
	paypalClientIDPath     = "rent-ledger/gateways/paypal/client_id"
	paypalClientSecretPath = "rent-ledger/gateways/paypal/client_secret"
)

// loadGatewayCredentials fills in gateway credentials from the configured
// secrets backend. With no backend configured, credentials stay as loaded
// from the environment.
func loadGatewayCredentials(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.Secrets.Backend == "" {
		logger.Info("No secrets backend configured, using environment credentials")
		return nil
	}

	manager, err := newSecretManager(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Stripe.Enabled {
		secret, err := manager.GetSecret(ctx, stripeSecretPath)
		if err != nil {
			return fmt.Errorf("load stripe credential: %w", err)
		}
		cfg.Stripe.SecretKey = secret.Value
	}
	if cfg.PayMongo.Enabled {
		secret, err := manager.GetSecret(ctx, paymongoSecretPath)
		if err != nil {
			return fmt.Errorf("load paymongo credential: %w", err)
		}
		cfg.PayMongo.SecretKey = secret.Value
	}
	if cfg.PayPal.Enabled {
		clientID, err := manager.GetSecret(ctx, paypalClientIDPath)
		if err != nil {
			return fmt.Errorf("load paypal client id: %w", err)
		}
		clientSecret, err := manager.GetSecret(ctx, paypalClientSecretPath)
		if err != nil {
			return fmt.Errorf("load paypal client secret: %w", err)
		}
		cfg.PayPal.ClientID = clientID.Value
		cfg.PayPal.ClientSecret = clientSecret.Value
	}

	logger.Info("Gateway credentials loaded",
		zap.String("backend", cfg.Secrets.Backend),
	)
	return nil
}

// newSecretManager selects the secrets backend by configuration
func newSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (adapterports.SecretManagerAdapter, error) {
	switch cfg.Secrets.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		awsCfg.Profile = cfg.Secrets.AWSProfile
		awsCfg.Endpoint = cfg.Secrets.AWSEndpoint
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.Token = cfg.Secrets.VaultToken
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	case "local":
		return secrets.NewLocalSecretManager(cfg.Secrets.LocalPath, logger), nil

	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Secrets.Backend)
	}
}
