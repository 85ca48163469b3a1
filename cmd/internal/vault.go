package internal

import (
	"os"

	"github.com/sanLimbu/task-tracker/internal"
	"github.com/sanLimbu/task-tracker/internal/envvar"
	"github.com/sanLimbu/task-tracker/internal/envvar/vault"
)

// NewVaultProvider instantiates the Vault client using configuration defined in environment variables. It
// returns nil when VAULT_ADDRESS is not defined.
func NewVaultProvider() (*vault.Provider, error) {
	vaultAddress := os.Getenv("VAULT_ADDRESS")
	if vaultAddress == "" {
		return nil, nil
	}

	provider, err := vault.New(os.Getenv("VAULT_TOKEN"), vaultAddress, os.Getenv("VAULT_PATH"))
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "vault.New")
	}

	return provider, nil
}

// NewConfiguration loads the env file, when present, and instantiates the configuration.
func NewConfiguration(env string) (*envvar.Configuration, error) {
	if env != "" {
		if err := envvar.Load(env); err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "envvar.Load")
		}
	}

	provider, err := NewVaultProvider()
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "NewVaultProvider")
	}

	if provider == nil {
		return envvar.New(nil), nil
	}

	return envvar.New(provider), nil
}
