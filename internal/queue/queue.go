package queue

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/semlattice/lattice/internal/util"
	"github.com/semlattice/lattice/pkg/logger"
)

const (
	RunQueue    = "run_queue"
	CancelQueue = "cancel_queue"

	// ResponseExchange carries PROGRESS/LOG/RESULT/ERROR/CANCELLED messages;
	// run responses use the routing key "run.<requestId>", forwarded log
	// lines use "log".
	ResponseExchange = "lattice.responses"
)

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares the response exchange, the run queue with its retry
// and dead-letter companions, and the cancel queue. Cancels get no retry
// queue: a cancel that cannot be delivered is moot by the time it could be
// retried.
func SetupQueues(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		ResponseExchange,
		"topic",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal("ExchangeDeclare failed", "exchange", ResponseExchange, "err", err)
	}

	_, err = ch.QueueDeclare(
		RunQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("QueueDeclare failed", "queue", RunQueue, "err", err)
	}

	dlqName := RunQueue + "_dlq"
	_, err = ch.QueueDeclare(
		dlqName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
	}

	retryName := RunQueue + "_retry"
	_, err = ch.QueueDeclare(
		retryName,
		true,
		false,
		false,
		false,
		amqp091.Table{
			"x-message-ttl":             int32(10000),
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": RunQueue,
		},
	)
	if err != nil {
		logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
	}

	_, err = ch.QueueDeclare(
		CancelQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Fatal("QueueDeclare failed", "queue", CancelQueue, "err", err)
	}

	return nil
}

func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
}

// PublishResponse routes a response message to the subscribers of one run.
func PublishResponse(ch *amqp091.Channel, requestID string, data []byte) error {
	return publishTopic(ch, "run."+requestID, data)
}

// PublishLog routes a forwarded log line to log subscribers.
func PublishLog(ch *amqp091.Channel, data []byte) error {
	return publishTopic(ch, "log", data)
}

func publishTopic(ch *amqp091.Channel, topic string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		ResponseExchange,
		topic,
		false,
		false,
		publishing,
	)
}
