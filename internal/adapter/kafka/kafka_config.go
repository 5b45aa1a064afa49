package kafka

import (
	"time"

	"github.com/IBM/sarama"
)

type GroupConfig struct {
	Brokers  []string
	GroupID  string
	ClientID string
	// Oldest replays the topic from the beginning when the group has no committed offset.
	Oldest bool
}

func NewGroup(gc GroupConfig) (sarama.ConsumerGroup, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	if gc.ClientID != "" {
		cfg.ClientID = gc.ClientID
	}
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRange()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	if gc.Oldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	cfg.Consumer.Return.Errors = true
	cfg.Net.DialTimeout = 5 * time.Second
	return sarama.NewConsumerGroup(gc.Brokers, gc.GroupID, cfg)
}
