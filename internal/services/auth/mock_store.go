package auth

// MockStore is an in-memory auth store for testing.
type MockStore struct {
	tokens map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(platform string, token string) error {
	m.tokens[platform] = token
	return nil
}

func (m *MockStore) GetToken(platform string) (string, error) {
	token, ok := m.tokens[platform]
	if !ok {
		return "", ErrTokenNotFound
	}
	return token, nil
}

func (m *MockStore) DeleteToken(platform string) error {
	if _, ok := m.tokens[platform]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, platform)
	return nil
}
