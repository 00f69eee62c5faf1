package awso

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
	"sync"
)

// ErrClientInvalidated marks an error caused by credentials that are no longer valid.
// The provider has already dropped its cached client when this is returned.
var ErrClientInvalidated = errors.New("aws client invalidated")

type ClientProvider[T any] struct {
	buildClient func(cfg aws.Config) *T
	loadConfig  func(ctx context.Context, region string) (aws.Config, error)
	region      string

	mu     sync.Mutex
	client *T
}

func NewClientProvider[T any](region string, buildClient func(cfg aws.Config) *T) *ClientProvider[T] {
	return &ClientProvider[T]{buildClient: buildClient, loadConfig: loadDefaultConfig, region: region}
}

func loadDefaultConfig(ctx context.Context, region string) (aws.Config, error) {
	if region == "" {
		return config.LoadDefaultConfig(ctx)
	}
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

func (cp *ClientProvider[T]) Client(ctx context.Context) (*T, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if cp.client == nil {
		cfg, err := cp.loadConfig(ctx, cp.region)
		if err != nil {
			return nil, err
		}
		cp.client = cp.buildClient(cfg)
	}
	return cp.client, nil
}

// Invalidate drops the cached client so the next call to Client rebuilds it.
func (cp *ClientProvider[T]) Invalidate() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	cp.client = nil
}

var expiredCodes = map[string]bool{
	"ExpiredToken":          true,
	"ExpiredTokenException": true,
	"RequestExpired":        true,
	"InvalidClientTokenId":  true,
}

// Check inspects err from a call made with the provider's client. Credential expiry
// invalidates the client and is reported wrapped in ErrClientInvalidated.
func (cp *ClientProvider[T]) Check(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && expiredCodes[apiErr.ErrorCode()] {
		cp.Invalidate()
		return errors.Join(ErrClientInvalidated, err)
	}
	return err
}
