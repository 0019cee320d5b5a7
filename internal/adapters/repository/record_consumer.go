package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nestlog/analytics-service/internal/core/domain"
	"github.com/nestlog/analytics-service/internal/core/ports"
	"github.com/rabbitmq/amqp091-go"
)

// RecordIngestRequest represents a message from RabbitMQ carrying a
// structured care event. The speech-classification service turns
// spoken caregiver input into this shape and publishes it; from the
// engine's point of view it is just another raw event.
type RecordIngestRequest struct {
	CaregiverID string    `json:"caregiver_id"`
	BabyID      string    `json:"baby_id"`
	Type        string    `json:"type"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	Note        string    `json:"note,omitempty"`
}

// RecordConsumer consumes care event messages from RabbitMQ and
// persists them through the record service
// Runs in background as a goroutine within the analytics-service pod
// (For multi-replica deployments, RabbitMQ distributes messages across
// replicas using round-robin)
type RecordConsumer struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	queueName      string
	recordService  ports.RecordService
	connMutex      sync.RWMutex
	reconnectCh    chan bool
	stopReconnect  chan bool
	maxRetries     int
	retryDelay     time.Duration
	consumingCtx   context.Context
	consumingMutex sync.Mutex
	isConsuming    bool
}

// NewRecordConsumer creates a new RabbitMQ consumer for care event ingestion
func NewRecordConsumer(rabbitMQURL string, queueName string, recordService ports.RecordService) (*RecordConsumer, error) {
	if queueName == "" {
		queueName = "care.record.events"
	}

	consumer := &RecordConsumer{
		queueName:     queueName,
		recordService: recordService,
		maxRetries:    3,
		retryDelay:    1 * time.Second,
		reconnectCh:   make(chan bool, 1),
		stopReconnect: make(chan bool),
	}

	if err := consumer.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go consumer.handleReconnection(rabbitMQURL)

	return consumer, nil
}

// connect establishes connection to RabbitMQ
func (c *RecordConsumer) connect(rabbitMQURL string) error {
	var err error
	for i := 0; i < c.maxRetries; i++ {
		c.conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay)
		}
	}

	if err != nil {
		return err
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return err
	}

	// Declare queue (idempotent)
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)

	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	log.Println("Record consumer connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *RecordConsumer) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-c.reconnectCh:
			log.Println("Attempting to reconnect to RabbitMQ...")
			c.connMutex.Lock()
			if c.conn != nil && !c.conn.IsClosed() {
				c.conn.Close()
			}
			if c.channel != nil && !c.channel.IsClosed() {
				c.channel.Close()
			}
			c.connMutex.Unlock()

			if err := c.connect(rabbitMQURL); err != nil {
				log.Printf("Reconnection failed: %v", err)
				time.Sleep(5 * time.Second)
				c.reconnectCh <- true
			} else {
				// Restart consuming after reconnection using the original context
				c.consumingMutex.Lock()
				if c.consumingCtx != nil && c.consumingCtx.Err() == nil {
					if !c.isConsuming {
						go c.StartConsuming(c.consumingCtx)
					}
				}
				c.consumingMutex.Unlock()
			}
		case <-c.stopReconnect:
			return
		}
	}
}

// StartConsuming starts consuming messages from the queue in a background goroutine
// This method is called from main.go and runs asynchronously
func (c *RecordConsumer) StartConsuming(ctx context.Context) error {
	// Prevent multiple consumers from starting in the same pod instance
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		log.Println("Record consumer is already running in this pod, skipping duplicate start")
		return nil
	}
	c.isConsuming = true
	c.consumingCtx = ctx
	c.consumingMutex.Unlock()

	c.connMutex.RLock()
	channel := c.channel
	conn := c.conn
	c.connMutex.RUnlock()

	if channel == nil || channel.IsClosed() || conn == nil || conn.IsClosed() {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	// Process one message at a time; acknowledgment happens only after
	// a successful persist
	err := channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	consumerTag := fmt.Sprintf("record-consumer-%d", time.Now().UnixNano())
	msgs, err := channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer tag (unique identifier)
		false,       // auto-ack (manual ack after successful persist)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Record consumer started (tag: %s), waiting for messages on queue: %s", consumerTag, c.queueName)

	go func() {
		defer func() {
			c.consumingMutex.Lock()
			c.isConsuming = false
			c.consumingMutex.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				log.Println("Record consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Record consumer channel closed, attempting reconnection...")
					c.reconnectCh <- true
					return
				}

				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage processes a single message from RabbitMQ
// Message is acknowledged ONLY after the record is persisted; on a
// persistence failure it is nacked and requeued for retry. Malformed
// messages are rejected without requeue.
func (c *RecordConsumer) processMessage(ctx context.Context, msg amqp091.Delivery) {
	var req RecordIngestRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		log.Printf("Failed to unmarshal record ingest request: %v", err)
		msg.Nack(false, false)
		return
	}

	log.Printf("Received record ingest request: baby_id=%s, type=%s, started_at=%s",
		req.BabyID, req.Type, req.StartedAt.Format(time.RFC3339))

	caregiverID, err := uuid.Parse(req.CaregiverID)
	if err != nil {
		log.Printf("Invalid record ingest request: caregiver_id is not a valid UUID: %v", err)
		msg.Nack(false, false)
		return
	}
	babyID, err := uuid.Parse(req.BabyID)
	if err != nil {
		log.Printf("Invalid record ingest request: baby_id is not a valid UUID: %v", err)
		msg.Nack(false, false)
		return
	}

	record, err := c.recordService.CreateRecord(ctx, babyID, ports.CreateRecordRequest{
		Type:      domain.RecordType(req.Type),
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
		Note:      req.Note,
	}, caregiverID, false)
	if err != nil {
		log.Printf("Failed to create record from RabbitMQ message: %v", err)
		// Validation failures will never succeed on redelivery; only
		// requeue what looks transient
		if isPermanentIngestError(err) {
			msg.Nack(false, false)
			return
		}
		msg.Nack(false, true)
		return
	}

	log.Printf("Successfully created record from RabbitMQ: id=%s, baby_id=%s, type=%s",
		record.ID, record.BabyID, record.Type)

	// Acknowledge ONLY after successful persist (at-least-once delivery)
	if err := msg.Ack(false); err != nil {
		log.Printf("Failed to acknowledge message after record creation: %v", err)
	}
}

func isPermanentIngestError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrNotFound)
}

// Close closes the RabbitMQ connection and stops consuming
// Note: The consuming context is cancelled by main.go during graceful shutdown
func (c *RecordConsumer) Close() error {
	close(c.stopReconnect)

	c.consumingMutex.Lock()
	c.isConsuming = false
	c.consumingMutex.Unlock()

	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}

	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			log.Printf("Error closing RabbitMQ connection: %v", err)
		}
	}

	log.Println("Record consumer closed")
	return nil
}
