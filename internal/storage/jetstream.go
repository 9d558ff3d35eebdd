package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamStore stores objects in a NATS JetStream object store bucket.
type JetStreamStore struct {
	conn  *nats.Conn
	store jetstream.ObjectStore
}

func NewJetStreamStore(ctx context.Context, natsURL, bucket string) (*JetStreamStore, error) {
	const op = "storage.NewJetStreamStore"

	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to nats: %w", op, err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: failed to create jetstream context: %w", op, err)
	}

	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "Uploaded image storage bucket",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: failed to create object store bucket: %w", op, err)
		}
	}

	return &JetStreamStore{
		conn:  conn,
		store: store,
	}, nil
}

func (s *JetStreamStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	const op = "storage.JetStreamStore.Put"

	meta := jetstream.ObjectMeta{
		Name: name,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}

	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%s: failed to store object: %w", op, err)
	}

	return nil
}

func (s *JetStreamStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	const op = "storage.JetStreamStore.Get"

	result, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrObjectNotFound)
		}

		return nil, "", fmt.Errorf("%s: failed to get object: %w", op, err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to read object data: %w", op, err)
	}

	info, err := result.Info()
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to get object info: %w", op, err)
	}

	contentType := "application/octet-stream"
	if info.Headers != nil {
		if ct := info.Headers.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}

	return data, contentType, nil
}

func (s *JetStreamStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}

	return nil
}
