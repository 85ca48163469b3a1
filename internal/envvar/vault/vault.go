package vault

import (
	"strings"
	"sync"

	"github.com/hashicorp/vault/api"

	"github.com/sanLimbu/task-tracker/internal"
)

// Reader reads secrets, it is implemented by *api.Logical.
type Reader interface {
	Read(path string) (*api.Secret, error)
}

// Provider retrieves values from Vault, secrets are cached after the first read.
type Provider struct {
	path    string
	client  Reader
	mu      sync.Mutex
	content map[string]string
}

// New instantiates the Vault provider.
func New(token, addr, path string) (*Provider, error) {
	client, err := api.NewClient(&api.Config{
		Address: addr,
	})
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "api.NewClient")
	}

	client.SetToken(token)

	return NewWithReader(client.Logical(), path), nil
}

// NewWithReader instantiates the Vault provider using the supplied client.
func NewWithReader(client Reader, path string) *Provider {
	return &Provider{
		path:    path,
		client:  client,
		content: make(map[string]string),
	}
}

// Get retrieves the value using the format "path:key", the configured path is used when path is empty.
func (p *Provider) Get(v string) (string, error) {
	secretPath, key, ok := strings.Cut(v, ":")
	if !ok || key == "" {
		return "", internal.NewErrorf(internal.ErrorCodeInvalidArgument, "missing key value: %s", v)
	}

	if secretPath == "" {
		secretPath = p.path
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if res, ok := p.content[v]; ok {
		return res, nil
	}

	secret, err := p.client.Read(secretPath)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Read")
	}

	if secret == nil {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "secret not found: %s", secretPath)
	}

	data := secret.Data

	// KV version 2 nests the values under "data".
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	res, ok := data[key].(string)
	if !ok {
		return "", internal.NewErrorf(internal.ErrorCodeNotFound, "key not found: %s", v)
	}

	p.content[v] = res

	return res, nil
}
