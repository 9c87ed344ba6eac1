package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSOptions configures a NATS connection.
type NATSOptions struct {
	URL string
	// KVBucket, when set, keeps the latest snapshot per subject in a JetStream
	// key-value bucket so late subscribers can catch up.
	KVBucket string
	Timeout  time.Duration
}

// NATSClient publishes snapshots over core NATS.
type NATSClient struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

var _ Publisher = (*NATSClient)(nil)

// ConnectNATS dials the server and prepares the snapshot bucket.
func ConnectNATS(ctx context.Context, opts NATSOptions) (*NATSClient, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := nats.Connect(opts.URL,
		nats.Name("screenstore"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1))
	if err != nil {
		return nil, ErrConnectFailed.WithContext("url", opts.URL).WithContext("cause", err.Error())
	}

	client := &NATSClient{conn: conn}
	if opts.KVBucket != "" {
		if err := client.initKVBucket(ctx, opts.KVBucket); err != nil {
			conn.Close()
			return nil, err
		}
	}

	slog.Info("NATS relay connected", "url", opts.URL, "kv_bucket", opts.KVBucket)
	return client, nil
}

func (c *NATSClient) initKVBucket(ctx context.Context, bucket string) error {
	js, err := jetstream.New(c.conn)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		c.kv = kv
		return nil
	}
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Latest screen snapshots",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}
	c.kv = kv
	return nil
}

// Publish sends data on subject and, with a bucket configured, stores it as
// the latest value for that subject.
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	if c.kv != nil {
		if _, err := c.kv.Put(ctx, subject, data); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
	}
	return nil
}

// Close drains the connection.
func (c *NATSClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Drain()
}
