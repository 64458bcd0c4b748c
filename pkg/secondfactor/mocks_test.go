package secondfactor_test

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/twofactor/pkg/secondfactor"
)

const (
	// RFC 6238 style test secret; codes at unix 0..89 are 282760, 996554, 602287.
	testSecret  = "JBSWY3DPEHPK3PXP"
	otherSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"
)

type storeMock struct {
	mock.Mock
}

func (m *storeMock) FindByAccount(ctx context.Context, accountID string) ([]secondfactor.Factor, error) {
	args := m.Called(ctx, accountID)
	factors, _ := args.Get(0).([]secondfactor.Factor)
	return factors, args.Error(1)
}

func (m *storeMock) Add(ctx context.Context, factor secondfactor.Factor) error {
	return m.Called(ctx, factor).Error(0)
}

var errStorageDown = errors.New("storage down")

// memoryStorage is a map-backed SessionStorage that can be made to fail writes.
type memoryStorage struct {
	data   map[string]any
	sets   int
	setErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{data: make(map[string]any)}
}

func (s *memoryStorage) Get(_ context.Context, key string) (any, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *memoryStorage) Set(_ context.Context, key string, value any) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.data[key] = value
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

// replayGuardFunc adapts a function to secondfactor.ReplayGuard.
type replayGuardFunc func(ctx context.Context, accountID string, step int64) (bool, error)

func (f replayGuardFunc) Accept(ctx context.Context, accountID string, step int64) (bool, error) {
	return f(ctx, accountID, step)
}
