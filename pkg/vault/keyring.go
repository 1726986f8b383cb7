package vault

import "github.com/zalando/go-keyring"

// keyringProvider abstracts go-keyring for tests.
type keyringProvider interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
}

type osKeyring struct{}

func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
