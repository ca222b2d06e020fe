package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/exitravels/backoffice/pkg/fcm"
)

// LogSender writes notifications to the structured log.
type LogSender struct{}

// Send logs n.
func (LogSender) Send(_ context.Context, n Notification) error {
	slog.Info("notification", "collection", n.Collection, "title", n.Title, "body", n.Body)
	return nil
}

// Bell is a Cue that rings the terminal bell on w.
type Bell struct {
	W io.Writer
}

// Play writes BEL.
func (b Bell) Play(context.Context) error {
	_, err := io.WriteString(b.W, "\a")
	return err
}

// AMQPPublisher publishes notifications as JSON to a topic exchange so that
// background workers (mail, SMS) can react to arrivals.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares a durable topic exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Send publishes n with routing key n.RoutingKey().
func (p *AMQPPublisher) Send(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, n.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    n.At,
		Body:         b,
	})
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RedisPublisher publishes notifications on a Redis pub/sub channel so that
// every server instance can relay them to its own connected dashboards.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher connects to redisURL and checks the connection.
func NewRedisPublisher(ctx context.Context, redisURL, channel string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisPublisher{client: client, channel: channel}, nil
}

// Send publishes n as JSON.
func (p *RedisPublisher) Send(ctx context.Context, n Notification) error {
	b, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, b).Err()
}

// Close closes the Redis client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// FCMSender pushes notifications to a Firebase Cloud Messaging topic, which
// reaches staff browsers even when the dashboard is in the background.
type FCMSender struct {
	client *fcm.Client
	topic  string
}

// NewFCMSender creates an FCMSender for topic.
func NewFCMSender(client *fcm.Client, topic string) *FCMSender {
	return &FCMSender{client: client, topic: topic}
}

// Send pushes n.
func (s *FCMSender) Send(ctx context.Context, n Notification) error {
	_, err := s.client.SendToTopic(ctx, s.topic,
		fcm.Notification{Title: n.Title, Body: n.Body},
		map[string]string{"collection": string(n.Collection)})
	return err
}
