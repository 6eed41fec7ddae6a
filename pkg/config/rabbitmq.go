package config

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var RabbitMQ *amqp.Connection

// InitRabbitMQ connects to RabbitMQ with retry logic
func InitRabbitMQ(s RabbitMQSettings) {
	maxRetries := 10
	retryDelay := 3 * time.Second

	var conn *amqp.Connection
	var err error

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(s.URL())
		if err == nil {
			RabbitMQ = conn
			logrus.Infof("Successfully connected to RabbitMQ at %s", s.Host)
			return
		}

		if i < maxRetries-1 {
			logrus.Warnf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}

	logrus.Fatalf("Failed to connect to RabbitMQ after %d attempts: %v", maxRetries, err)
}

// CloseRabbitMQ closes the shared connection if it is open.
func CloseRabbitMQ() {
	if RabbitMQ != nil {
		RabbitMQ.Close()
	}
}

// PurgeQueue removes all messages from a queue without deleting the queue itself
func PurgeQueue(queueName string) (int, error) {
	if RabbitMQ == nil {
		return 0, fmt.Errorf("RabbitMQ connection not initialized")
	}

	ch, err := RabbitMQ.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	n, err := ch.QueuePurge(queueName, false)
	if err != nil {
		return 0, fmt.Errorf("failed to purge queue %s: %w", queueName, err)
	}

	logrus.Infof("Purged %d messages from RabbitMQ queue: %s", n, queueName)
	return n, nil
}
