package kafka

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"

	"xform/sink"
)

type Config struct {
	Brokers      []string
	Topic        string
	Version      string // sarama version string, empty for the default
	RequiredAcks string // none|local|all
}

// newProducer is replaced in tests.
var newProducer = sarama.NewSyncProducer

type driver struct {
	cfg Config
	p   sarama.SyncProducer

	closeOnce sync.Once
	closeErr  error
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return fmt.Errorf("kafka-sink: brokers and topic are required")
	}
	sc, err := saramaConfig(cfg)
	if err != nil {
		return err
	}
	d.cfg = cfg
	d.p, err = newProducer(cfg.Brokers, sc)
	return err
}

func saramaConfig(cfg Config) (*sarama.Config, error) {
	sc := sarama.NewConfig()
	sc.ClientID = "xform"
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	switch cfg.RequiredAcks {
	case "", "all":
		sc.Producer.RequiredAcks = sarama.WaitForAll
	case "local":
		sc.Producer.RequiredAcks = sarama.WaitForLocal
	case "none":
		sc.Producer.RequiredAcks = sarama.NoResponse
	default:
		return nil, fmt.Errorf("kafka-sink: unknown required_acks %q", cfg.RequiredAcks)
	}
	if cfg.Version != "" {
		v, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("kafka-sink: %w", err)
		}
		sc.Version = v
	}
	return sc, nil
}

// Push publishes the event as JSON keyed by transform name.
func (d *driver) Push(e sink.Event) error {
	if d.p == nil {
		return fmt.Errorf("kafka-sink: not configured")
	}
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, _, err = d.p.SendMessage(&sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Key:   sarama.StringEncoder(e.Transform),
		Value: sarama.ByteEncoder(val),
	})
	return err
}

func (d *driver) Close() error {
	d.closeOnce.Do(func() {
		if d.p != nil {
			d.closeErr = d.p.Close()
		}
	})
	return d.closeErr
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
