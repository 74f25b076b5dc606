package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/STOmaha/Time-to-Burn-sub002/internal/database"
	"github.com/STOmaha/Time-to-Burn-sub002/internal/protocol"
)

// BatchWriter consumes notification envelopes from Kafka and
// batch-writes them into history
type BatchWriter struct {
	consumer      *Consumer
	db            *database.DB
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(consumer *Consumer, db *database.DB, batchSize int, flushInterval time.Duration) *BatchWriter {
	return &BatchWriter{
		consumer:      consumer,
		db:            db,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins consuming and writing to database
func (bw *BatchWriter) Start(ctx context.Context) error {
	bw.wg.Add(1)
	go bw.run(ctx)
	return nil
}

// Stop stops the batch writer gracefully
func (bw *BatchWriter) Stop() {
	close(bw.stopCh)
	bw.wg.Wait()
}

func (bw *BatchWriter) run(ctx context.Context) {
	defer bw.wg.Done()

	var batch []kafka.Message
	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	msgChan := make(chan kafka.Message, 10)
	go func() {
		for {
			msg, err := bw.consumer.Consume(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-bw.stopCh:
					return
				default:
				}
				fmt.Printf("Consumer error: %v\n", err)
				continue
			}

			select {
			case msgChan <- msg:
			case <-bw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-bw.stopCh:
			// Flush remaining batch before stopping
			if len(batch) > 0 {
				bw.flush(ctx, batch)
			}
			return

		case <-ticker.C:
			// Periodic flush
			if len(batch) > 0 {
				fmt.Printf("Flush interval reached (%d messages), flushing...\n", len(batch))
				bw.flush(ctx, batch)
				batch = nil
			}

		case msg := <-msgChan:
			batch = append(batch, msg)

			// Flush if batch is full
			if len(batch) >= bw.batchSize {
				fmt.Printf("Batch full (%d messages), flushing...\n", len(batch))
				bw.flush(ctx, batch)
				batch = nil
			}
		}
	}
}

func (bw *BatchWriter) flush(ctx context.Context, batch []kafka.Message) {
	if len(batch) == 0 {
		return
	}

	successCount := 0
	seenUsers := make(map[string]struct{})
	for _, msg := range batch {
		userID, err := bw.processMessage(msg)
		if err != nil {
			fmt.Printf("Failed to process message: %v\n", err)
			continue
		}
		successCount++
		seenUsers[userID] = struct{}{}

		// Commit offset after successful processing
		if err := bw.consumer.Commit(ctx, msg); err != nil {
			fmt.Printf("Failed to commit offset: %v\n", err)
		}
	}

	// One prune per user per flush keeps history bounded without a
	// delete per insert.
	for userID := range seenUsers {
		if err := bw.db.PruneNotificationHistory(userID); err != nil {
			fmt.Printf("Failed to prune history for %s: %v\n", userID, err)
		}
	}

	fmt.Printf("Flushed batch of %d notifications to database\n", successCount)
}

func (bw *BatchWriter) processMessage(msg kafka.Message) (string, error) {
	env, err := protocol.DecodeNotificationEnvelope(msg.Value)
	if err != nil {
		return "", fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Notification == nil {
		return "", fmt.Errorf("envelope has no notification")
	}

	n := env.Notification
	level := string(n.RiskLevel)
	adjustedUV := n.AdjustedUV
	rec := &database.NotificationRecord{
		NotificationID:   n.Identifier,
		SessionID:        env.SessionID,
		UserID:           env.UserID,
		NotificationType: string(n.Type),
		Title:            n.Title,
		Body:             n.Body,
		Priority:         string(n.Priority),
		RiskLevel:        &level,
		AdjustedUV:       &adjustedUV,
		EmittedAt:        env.EmittedAt,
	}

	if err := bw.db.InsertNotificationRecord(rec); err != nil {
		return "", fmt.Errorf("failed to insert notification: %w", err)
	}

	return env.UserID, nil
}
