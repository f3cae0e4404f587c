package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetToken(platform string, token string) error {
	platformKey := NormalizePlatform(platform)
	return keyring.Set(k.serviceName, platformKey, token)
}

func (k *KeyringStore) GetToken(platform string) (string, error) {
	platformKey := NormalizePlatform(platform)
	token, err := keyring.Get(k.serviceName, platformKey)
	if err == nil {
		return token, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrTokenNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteToken(platform string) error {
	platformKey := NormalizePlatform(platform)
	err := keyring.Delete(k.serviceName, platformKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrTokenNotFound
	}
	return err
}
