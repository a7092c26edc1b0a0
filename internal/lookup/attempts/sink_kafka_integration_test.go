//go:build integration

package attempts_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"radar/internal/lookup/attempts"
	"radar/internal/lookup/models"
	"radar/internal/platform/kafka"
	"radar/pkg/testutil/containers"
)

type KafkaSinkSuite struct {
	suite.Suite
	client *kgo.Client
	broker []string
}

func TestKafkaSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaSinkSuite))
}

func (s *KafkaSinkSuite) SetupSuite() {
	rp := containers.GetManager().GetRedpanda(s.T())
	s.broker = rp.Brokers
	client, err := kafka.NewClient(context.Background(), rp.Brokers)
	s.Require().NoError(err)
	s.client = client
}

func (s *KafkaSinkSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *KafkaSinkSuite) TestRecordIsDelivered() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "lookup-attempts-it"
	s.Require().NoError(kafka.EnsureTopic(ctx, s.client, topic, 1))
	s.Require().NoError(kafka.EnsureTopic(ctx, s.client, topic, 1), "second call must tolerate an existing topic")

	sink := attempts.NewKafkaSink(s.client, topic)
	s.Require().NoError(sink.Write(ctx, models.AttemptOutcome{CNPJ: "11222333000181", Success: true, Message: "saved"}))
	s.Require().NoError(s.client.Flush(ctx))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	var msg map[string]any
	s.Require().NoError(json.Unmarshal(records[0].Value, &msg))
	s.Equal("11222333000181", msg["cnpj"])
	s.Equal("saved", msg["message"])
}
