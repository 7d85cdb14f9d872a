package backends

import (
	"context"
	"fmt"
	"time"
)

// MockReturnErrorBackend fails every operation. Used to exercise the
// engine's backend-failure paths.
type MockReturnErrorBackend struct{}

func NewErrorReturningBackend() *MockReturnErrorBackend {
	return &MockReturnErrorBackend{}
}

func (b *MockReturnErrorBackend) Put(ctx context.Context, key string, value string, ttlSeconds int) error {
	return fmt.Errorf("This is a mock backend that returns this error on Put() operation")
}

func (b *MockReturnErrorBackend) Get(ctx context.Context, key string) (string, error) {
	return "", fmt.Errorf("This is a mock backend that returns this error on Get() operation")
}

func (b *MockReturnErrorBackend) Replace(ctx context.Context, key string, value *string, extraSeconds int) (time.Time, error) {
	return time.Time{}, fmt.Errorf("This is a mock backend that returns this error on Replace() operation")
}

func (b *MockReturnErrorBackend) Delete(ctx context.Context, key string) error {
	return fmt.Errorf("This is a mock backend that returns this error on Delete() operation")
}

func (b *MockReturnErrorBackend) RemainingTTL(ctx context.Context, key string) (int, error) {
	return 0, fmt.Errorf("This is a mock backend that returns this error on RemainingTTL() operation")
}
