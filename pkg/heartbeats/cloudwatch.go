package heartbeats

import (
	"context"
	"dancavallaro.com/deckuart/pkg/awso"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"time"
)

type MetricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

type CloudwatchClientProvider interface {
	Client(ctx context.Context) (MetricPutter, error)
	Check(err error) error
}

// CloudwatchProvider adapts an awso provider of CloudWatch clients.
type CloudwatchProvider struct {
	*awso.ClientProvider[cloudwatch.Client]
}

func (cp CloudwatchProvider) Client(ctx context.Context) (MetricPutter, error) {
	client, err := cp.ClientProvider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type CloudwatchPublisher struct {
	cw              CloudwatchClientProvider
	metricNamespace string
	deviceDimension string
	logger          Logger
	retryDelay      time.Duration
}

func NewCloudwatchPublisher(
	cw CloudwatchClientProvider, metricNamespace string, deviceDimension string, logger Logger,
) CloudwatchPublisher {
	return CloudwatchPublisher{cw, metricNamespace, deviceDimension, logger, 5 * time.Second}
}

func (pub CloudwatchPublisher) PublishHeartbeat(ctx context.Context, device string) error {
	return pub.Publish(ctx, "Heartbeat", device)
}

func (pub CloudwatchPublisher) PublishHandshake(ctx context.Context, device string) error {
	return pub.Publish(ctx, "Handshake", device)
}

// Publish records one datum of metric for device, retrying once if the credentials
// expired.
func (pub CloudwatchPublisher) Publish(ctx context.Context, metric string, device string) error {
	if err := pub.publish(ctx, metric, device); err != nil {
		if !errors.Is(err, awso.ErrClientInvalidated) {
			return err
		}

		pub.logger.Printf("IAM creds are expired, sleeping for %v then retrying\n", pub.retryDelay)
		select {
		case <-time.After(pub.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}

		if err := pub.publish(ctx, metric, device); err != nil {
			return err
		}
	}
	return nil
}

func (pub CloudwatchPublisher) publish(ctx context.Context, metric string, device string) error {
	client, err := pub.cw.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(pub.metricNamespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metric),
				Dimensions: []types.Dimension{
					{
						Name:  aws.String(pub.deviceDimension),
						Value: aws.String(device),
					},
				},
				Value: aws.Float64(1),
			},
		},
	})

	if err = pub.cw.Check(err); err == nil {
		pub.logger.Printf("Published %s metric for device %s\n", metric, device)
	}
	return err
}
