package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/semlattice/lattice/internal/queue"
	"github.com/semlattice/lattice/internal/storage"
	"github.com/semlattice/lattice/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/semlattice/lattice/pkg/ai"
	oai "github.com/semlattice/lattice/pkg/ai/ollama"
	gai "github.com/semlattice/lattice/pkg/ai/openai"
	"github.com/semlattice/lattice/pkg/leaselock"
	"github.com/semlattice/lattice/pkg/logger"
	"github.com/semlattice/lattice/pkg/logger/console"
	"github.com/semlattice/lattice/pkg/pipeline"
	pgxstore "github.com/semlattice/lattice/pkg/store/pgx"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client := storage.NewS3Client(ctx)

	// Embedding client
	adapter := util.GetEnv("AI_ADAPTER")
	var embedder ai.EmbeddingClient

	switch adapter {
	case "ollama":
		client, err := oai.NewEmbedOllamaClient(oai.NewEmbedOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_EMBED_URL"),
			ApiKey:  util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		embedder = client
	default:
		embedder = gai.NewEmbedOpenAIClient(gai.NewEmbedOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	}

	// Init pgx client. AfterConnect must be set before the pool is built,
	// otherwise new connections never get the vector type registration.
	pgConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database URL", "err", err)
	}
	pgConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pgConn, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	if err := queue.SetupQueues(ch); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	// Mirror log lines onto the response exchange now that the channel
	// exists. The forwarder goes first: the console backend terminates the
	// process on Fatal, so it has to run last.
	logger.Init(queue.NewLogForwarder(ch), consoleLogger)

	runner := pipeline.NewRunner(pipeline.NewRunnerParams{})
	processor := queue.NewProcessor(queue.NewProcessorParams{
		Runner:    runner,
		Store:     pgxstore.NewStore(pgxstore.NewStoreParams{Conn: pgConn}),
		Embedder:  embedder,
		Channel:   ch,
		ExportDir: util.GetEnvString("EXPORT_DIR", "export"),
		S3:        s3Client,
		Locks:     leaselock.New(pgConn),
	})

	logger.Info("Listening for messages")

	// Run consumer with prefetch=1: one run at a time per worker.
	runCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open run consumer channel", "err", err)
	}
	defer runCh.Close()

	err = runCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	runMsgs, err := runCh.Consume(
		queue.RunQueue,
		"run_consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.RunQueue, "err", err)
	}

	// Cancels arrive on their own channel so a CANCEL can reach a run that is
	// currently executing on the run consumer.
	cancelCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open cancel consumer channel", "err", err)
	}
	defer cancelCh.Close()

	cancelMsgs, err := cancelCh.Consume(
		queue.CancelQueue,
		"cancel_consumer",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.CancelQueue, "err", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping cancel consumer")
				return
			case msg, ok := <-cancelMsgs:
				if !ok {
					logger.Info("Cancel channel closed")
					return
				}
				if err := processor.ProcessCancelMessage(ctx, msg.Body); err != nil {
					logger.Error("Error processing cancel", "err", err)
				}
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack cancel message", "err", err)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case msg, ok := <-runMsgs:
				if !ok {
					logger.Info("Run channel closed")
					return
				}
				startTime := time.Now()
				logger.Info("Received message", "queue", queue.RunQueue)

				processingErr := processor.ProcessRunMessage(ctx, msg.Body)

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", queue.RunQueue, "err", processingErr)
					handleProcessingError(runCh, msg, queue.RunQueue)
				} else {
					if err := msg.Ack(false); err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", queue.RunQueue)
				}

				metrics := embedder.GetMetrics()
				aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
				aiHours := int(aiDuration.Hours())
				aiMinutes := int(aiDuration.Minutes()) % 60
				aiSeconds := int(aiDuration.Seconds()) % 60
				logger.Info(
					"AI Metrics",
					"input_tokens", metrics.InputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", fmt.Sprintf("%02d:%02d:%02d", aiHours, aiMinutes, aiSeconds),
				)

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
				embedder.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "text/plain",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "text/plain",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
