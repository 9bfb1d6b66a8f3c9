package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/platform/messaging/producers"
	"github.com/bank-core-ledger/internal/transaction_processor/service"
)

// MovementEventHandler handles incoming movement request messages from Kafka
type MovementEventHandler struct {
	processingService service.ProcessingService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewMovementEventHandler creates a new handler
func NewMovementEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	producer producers.DeadLetterPublisher,
) *MovementEventHandler {
	return &MovementEventHandler{
		processingService: processingService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *MovementEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.MovementRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal movement request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received movement request for processing",
		"transaction_id", request.TransactionID.String(),
		"type", string(request.Type),
		"amount", request.Amount.String(),
	)

	if err := h.processingService.ProcessMovement(ctx, &request); err != nil {
		logger.Error("Failed to process movement",
			"transaction_id", request.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("processing movement %s failed: %w", request.TransactionID.String(), err)
	}

	logger.Info("Successfully processed movement", "transaction_id", request.TransactionID.String())
	return nil // Success, commit offset
}
