// internal/infrastructure/messaging/kafka/topics.go
package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"
)

// TopicConfig describes one topic to provision
type TopicConfig struct {
	Name              string `yaml:"name"`
	Partitions        int    `yaml:"partitions"`
	ReplicationFactor int    `yaml:"replication_factor"`
}

type topicsFile struct {
	Topics []TopicConfig `yaml:"topics"`
}

// DefaultTopics is every domain topic with 3 partitions and a single replica
func DefaultTopics() []TopicConfig {
	topics := make([]TopicConfig, 0, len(events.AllTopics))
	for _, name := range events.AllTopics {
		topics = append(topics, TopicConfig{Name: name, Partitions: 3, ReplicationFactor: 1})
	}
	return topics
}

// LoadTopics reads topic definitions from a YAML file. A missing file yields DefaultTopics.
func LoadTopics(path string) ([]TopicConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultTopics(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}

	var file topicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topics file: %w", err)
	}

	for i, t := range file.Topics {
		if t.Name == "" {
			return nil, fmt.Errorf("topic %d has no name", i)
		}
		if t.Partitions <= 0 {
			file.Topics[i].Partitions = 1
		}
		if t.ReplicationFactor <= 0 {
			file.Topics[i].ReplicationFactor = 1
		}
	}
	return file.Topics, nil
}

// EnsureTopics creates the topics through the cluster controller. Existing topics are left alone.
func (c *Client) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	conn, err := kafka.DialContext(ctx, "tcp", c.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to find controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to dial controller: %w", err)
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafka.TopicConfig{
			Topic:             t.Name,
			NumPartitions:     t.Partitions,
			ReplicationFactor: t.ReplicationFactor,
		})
	}

	if err := controllerConn.CreateTopics(configs...); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	return nil
}
