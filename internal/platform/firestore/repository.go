package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Encoder serialises the strongly typed entity prior to persistence.
type Encoder[T any] func(ctx context.Context, value T) (any, error)

// BaseRepository wraps insert-only access to one collection. Drafts are never read back through
// the API, so the helper only creates documents and probes reachability.
type BaseRepository[T any] struct {
	provider   *Provider
	collection string
	encode     Encoder[T]
}

// NewBaseRepository constructs a BaseRepository bound to a collection. A nil encoder stores the
// value as-is using its firestore struct tags.
func NewBaseRepository[T any](provider *Provider, collection string, encode Encoder[T]) *BaseRepository[T] {
	if encode == nil {
		encode = func(_ context.Context, value T) (any, error) { return value, nil }
	}
	return &BaseRepository[T]{
		provider:   provider,
		collection: strings.TrimSpace(collection),
		encode:     encode,
	}
}

// Create writes a new document and fails when the ID is already taken.
func (r *BaseRepository[T]) Create(ctx context.Context, id string, value T) (time.Time, error) {
	if strings.TrimSpace(id) == "" {
		return time.Time{}, errors.New("firestore: document id is required")
	}
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return time.Time{}, err
	}
	payload, err := r.encode(ctx, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("firestore: encode document %s: %w", id, err)
	}
	result, err := coll.Doc(id).Create(ctx, payload)
	if err != nil {
		return time.Time{}, WrapError(r.op("create"), err)
	}
	return result.UpdateTime, nil
}

// Ping lists at most one document reference without fetching fields.
func (r *BaseRepository[T]) Ping(ctx context.Context) error {
	coll, err := r.collectionRef(ctx)
	if err != nil {
		return err
	}
	iter := coll.Select().Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return WrapError(r.op("ping"), err)
	}
	return nil
}

func (r *BaseRepository[T]) collectionRef(ctx context.Context) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("firestore: provider is nil")
	}
	if r.collection == "" {
		return nil, errors.New("firestore: collection name is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(r.collection), nil
}

func (r *BaseRepository[T]) op(action string) string {
	return r.collection + "." + action
}
