package kafka

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xform/sink"
)

func withMockProducer(t *testing.T) {
	t.Helper()
	prev := newProducer
	newProducer = func(_ []string, cfg *sarama.Config) (sarama.SyncProducer, error) {
		return mocks.NewSyncProducer(t, cfg), nil
	}
	t.Cleanup(func() { newProducer = prev })
}

func configured(t *testing.T, cfg Config) (*driver, *mocks.SyncProducer) {
	t.Helper()
	withMockProducer(t)
	a, err := sink.NewAdapter("kafka")
	require.NoError(t, err)
	require.NoError(t, a.Configure(cfg))
	d := a.(*driver)
	return d, d.p.(*mocks.SyncProducer)
}

func TestPush(t *testing.T) {
	d, mp := configured(t, Config{Brokers: []string{"b:9092"}, Topic: "xform.events", Version: "2.8.0"})

	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e sink.Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Transform != "backup" || e.Input != "/in/a.txt" || len(e.Outputs) != 1 {
			return errors.New("unexpected event")
		}
		return nil
	})
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	require.NoError(t, d.Push(sink.Event{Transform: "backup", Input: "/in/a.txt", Outputs: []string{"/ws/a.txt"}}))
	assert.ErrorIs(t, d.Push(sink.Event{Transform: "backup"}), sarama.ErrOutOfBrokers)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestConfigure_Invalid(t *testing.T) {
	withMockProducer(t)
	d := &driver{}
	assert.Error(t, d.Configure("nope"))
	assert.Error(t, d.Configure(Config{Topic: "t"}))
	assert.Error(t, d.Configure(Config{Brokers: []string{"b"}, Topic: "t", RequiredAcks: "some"}))
	assert.Error(t, d.Configure(Config{Brokers: []string{"b"}, Topic: "t", Version: "banana"}))
	assert.Error(t, d.Push(sink.Event{}))
}

func TestSaramaConfig(t *testing.T) {
	sc, err := saramaConfig(Config{RequiredAcks: "local"})
	require.NoError(t, err)
	assert.Equal(t, sarama.WaitForLocal, sc.Producer.RequiredAcks)
	assert.True(t, sc.Producer.Return.Successes)

	sc, err = saramaConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, sarama.WaitForAll, sc.Producer.RequiredAcks)
}
