//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/climo-likelihood/internal/adapter/power"
	"github.com/couchcryptid/climo-likelihood/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("climo-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeFixture stores a POWER payload with one reading per day for
// 2001-2020. Tmax exceeds 32 °C throughout July in the first six years.
func writeFixture(t *testing.T) string {
	t.Helper()

	series := domain.TimeSeries{Lat: 38.9, Lon: -77.04}
	start := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		r := domain.NewDailyRecord(d)
		r.TMax = 25
		if d.Month() == time.July && d.Year() <= 2006 {
			r.TMax = 35
		}
		r.TMin = 15
		r.WindSpeed = 3
		r.Precip = 0
		series.Records = append(series.Records, r)
	}

	data, err := json.Marshal(power.NewPayload(series))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "power.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
