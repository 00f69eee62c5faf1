package heartbeats

import (
	"bytes"
	"context"
	"dancavallaro.com/deckuart/pkg/awso"
	"errors"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type countingPublisher struct {
	mu      sync.Mutex
	devices []string
	err     error
}

func (p *countingPublisher) PublishHeartbeat(ctx context.Context, device string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices = append(p.devices, device)
	return p.err
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.devices)
}

func TestTaskLogsEveryInterval(t *testing.T) {
	out := &lockedBuffer{}
	pub := &countingPublisher{err: errors.New("broker down")}
	task := Task{
		Interval:   2 * time.Millisecond,
		Device:     "cf2",
		Logger:     log.New(out, "", 0),
		Publishers: []Publisher{pub},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx) }()

	require.Eventually(t, func() bool { return pub.count() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "Waiting for activation ...", lines[0])
	assert.Equal(t, "Hello World!", lines[1])
	assert.GreaterOrEqual(t, strings.Count(out.String(), "Hello World!"), 3)
	assert.Contains(t, out.String(), "Failed to publish heartbeat for device cf2: broker down")
	assert.Equal(t, "cf2", pub.devices[0])
}

func TestTaskSpecAboveIdle(t *testing.T) {
	spec := Task{}.Spec()
	assert.Equal(t, "HEARTBEAT", spec.Name)
	assert.Greater(t, spec.Priority, 0)
}

type recordingHandler struct {
	heartbeats []string
	handshakes []string
	invalid    []string
}

func (h *recordingHandler) Heartbeat(device string) { h.heartbeats = append(h.heartbeats, device) }
func (h *recordingHandler) Handshake(device string) { h.handshakes = append(h.handshakes, device) }
func (h *recordingHandler) Invalid(topic string, message string) {
	h.invalid = append(h.invalid, topic+"="+message)
}

func TestDispatch(t *testing.T) {
	h := &recordingHandler{}
	dispatch(h, HeartbeatTopic("cf2"), "OK")
	dispatch(h, HandshakeTopic("cf2"), "OK")
	dispatch(h, HeartbeatTopic("cf3"), "NOPE")
	dispatch(h, "deck/cf2/unknown", "OK")

	assert.Equal(t, []string{"cf2"}, h.heartbeats)
	assert.Equal(t, []string{"cf2"}, h.handshakes)
	assert.Equal(t, []string{"deck/cf3/heartbeat=NOPE", "deck/cf2/unknown=OK"}, h.invalid)
}

type fakeCloudwatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	errs   []error
}

func (f *fakeCloudwatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

type fakeProvider struct {
	cw      *fakeCloudwatch
	clients int
}

func (p *fakeProvider) Client(ctx context.Context) (MetricPutter, error) {
	p.clients++
	return p.cw, nil
}

func (p *fakeProvider) Check(err error) error {
	return err
}

func TestCloudwatchPublish(t *testing.T) {
	provider := &fakeProvider{cw: &fakeCloudwatch{}}
	pub := NewCloudwatchPublisher(provider, "Testing", "Device", log.New(&bytes.Buffer{}, "", 0))

	require.NoError(t, pub.PublishHandshake(context.Background(), "cf2"))
	require.Len(t, provider.cw.inputs, 1)
	in := provider.cw.inputs[0]
	assert.Equal(t, "Testing", *in.Namespace)
	assert.Equal(t, "Handshake", *in.MetricData[0].MetricName)
	assert.Equal(t, "Device", *in.MetricData[0].Dimensions[0].Name)
	assert.Equal(t, "cf2", *in.MetricData[0].Dimensions[0].Value)
	assert.Equal(t, 1.0, *in.MetricData[0].Value)
}

func TestCloudwatchRetriesExpiredCredentialsOnce(t *testing.T) {
	expired := errors.Join(awso.ErrClientInvalidated, errors.New("expired"))
	provider := &fakeProvider{cw: &fakeCloudwatch{errs: []error{expired}}}
	pub := NewCloudwatchPublisher(provider, "Testing", "Device", log.New(&bytes.Buffer{}, "", 0))
	pub.retryDelay = time.Millisecond

	require.NoError(t, pub.PublishHeartbeat(context.Background(), "cf2"))
	assert.Len(t, provider.cw.inputs, 2)
	assert.Equal(t, 2, provider.clients)
}

func TestCloudwatchOtherErrorsAreNotRetried(t *testing.T) {
	boom := errors.New("boom")
	provider := &fakeProvider{cw: &fakeCloudwatch{errs: []error{boom}}}
	pub := NewCloudwatchPublisher(provider, "Testing", "Device", log.New(&bytes.Buffer{}, "", 0))

	assert.ErrorIs(t, pub.PublishHeartbeat(context.Background(), "cf2"), boom)
	assert.Len(t, provider.cw.inputs, 1)
}
