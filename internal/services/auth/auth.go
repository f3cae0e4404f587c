package auth

import (
	"fmt"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/util"
)

const ServiceName = "occ"

// ErrTokenNotFound wraps domain.ErrUnauthorized so callers outside this
// package can classify a missing credential without importing auth.
var ErrTokenNotFound = fmt.Errorf("auth token not found: %w", domain.ErrUnauthorized)

// Store holds platform API tokens. Executors receive one at construction
// and read the token for their platform; nothing else sees credentials.
type Store interface {
	SetToken(platform string, token string) error
	GetToken(platform string) (string, error)
	DeleteToken(platform string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizePlatform normalizes a platform name for consistent key lookup.
func NormalizePlatform(platform string) string {
	return util.NormalizeKey(platform)
}
