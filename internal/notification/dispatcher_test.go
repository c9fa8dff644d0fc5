package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (s *recordingSink) Deliver(_ context.Context, event Event) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return s.err
}

func (s *recordingSink) delivered() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_DeliversInOrderAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 10, discardLogger())

	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background()) }()

	for _, typ := range []EventType{AccountCreated, AccountDeposit, AccountWithdrawal} {
		d.Notify(context.Background(), Event{Type: typ, AccountID: uuid.New()})
	}
	d.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after Close")
	}

	events := sink.delivered()
	require.Len(t, events, 3)
	assert.Equal(t, AccountCreated, events[0].Type)
	assert.Equal(t, AccountDeposit, events[1].Type)
	assert.Equal(t, AccountWithdrawal, events[2].Type)
}

func TestDispatcher_NotifyNeverBlocks(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	d := NewDispatcher(sink, 1, discardLogger())

	// no worker running: the first event fills the queue, the rest are dropped
	finished := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Notify(context.Background(), Event{Type: AccountDeposit})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Equal(t, 1, d.Pending())
	close(sink.block)
}

func TestDispatcher_SinkErrorIsLoggedNotPropagated(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sink := &recordingSink{err: errors.New("redis down")}
	d := NewDispatcher(sink, 4, logger)

	d.Notify(context.Background(), Event{Type: AccountCreated})
	d.Close()
	require.NoError(t, d.Run(context.Background()))

	assert.Len(t, sink.delivered(), 1)
	assert.Contains(t, buf.String(), "failed to deliver notification")
	assert.Contains(t, buf.String(), "redis down")
}

func TestDispatcher_NotifyAfterCloseIsDropped(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(sink, 4, discardLogger())
	d.Close()
	d.Close()

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), Event{Type: AccountCreated})
	})
	require.NoError(t, d.Run(context.Background()))
	assert.Empty(t, sink.delivered())
}

func TestDispatcher_RunStopsOnCancel(t *testing.T) {
	d := NewDispatcher(&recordingSink{}, 4, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Run(ctx))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))
	amount := decimal.RequireFromString("100")
	balance := decimal.RequireFromString("1600")

	err := sink.Deliver(context.Background(), Event{
		Type:          AccountDeposit,
		AccountID:     uuid.New(),
		AccountNumber: "FR7630001007941234567890185",
		Amount:        &amount,
		Balance:       &balance,
		OccurredAt:    time.Now(),
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "notification", line["msg"])
	assert.Equal(t, "account.deposit", line["type"])
	assert.Equal(t, "100.00", line["amount"])
	assert.Equal(t, "1600.00", line["balance"])
}

type fakeStream struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return redis.NewStringResult("1700000000000-0", f.err)
}

func TestRedisStreamSink_Deliver(t *testing.T) {
	client := &fakeStream{}
	sink := NewRedisStreamSink(client, "", 1000)
	id := uuid.New()

	err := sink.Deliver(context.Background(), Event{Type: AccountCreated, AccountID: id, AccountNumber: "FR7630001007941234567890185"})
	require.NoError(t, err)

	require.NotNil(t, client.args)
	assert.Equal(t, DefaultStream, client.args.Stream)
	assert.Equal(t, int64(1000), client.args.MaxLen)
	assert.True(t, client.args.Approx)

	values, ok := client.args.Values.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "account.created", values["type"])

	var decoded Event
	require.NoError(t, json.Unmarshal(values["event"].([]byte), &decoded))
	assert.Equal(t, id, decoded.AccountID)
	assert.Equal(t, "FR7630001007941234567890185", decoded.AccountNumber)
}

func TestRedisStreamSink_DeliverError(t *testing.T) {
	sink := NewRedisStreamSink(&fakeStream{err: errors.New("connection refused")}, "custom", 0)

	err := sink.Deliver(context.Background(), Event{Type: AccountDeleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish event")
}
