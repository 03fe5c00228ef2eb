package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore adapts a Firestore client to Store. A WriteBatch commit is
// atomic up to 500 ops, which is why syncer chunks at that bound.
type Firestore struct {
	Client *firestore.Client
}

func NewFirestore(ctx context.Context, projectID string) (*Firestore, error) {
	c, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Firestore{Client: c}, nil
}

func (s *Firestore) Close() error { return s.Client.Close() }

func (s *Firestore) Add(ctx context.Context, collection string, docs []Doc) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	batch := s.Client.Batch()
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ref := s.Client.Collection(collection).NewDoc()
		batch.Set(ref, d)
		ids = append(ids, ref.ID)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return nil, fmt.Errorf("batch commit (%d docs): %w", len(docs), err)
	}
	return ids, nil
}

func (s *Firestore) Set(ctx context.Context, collection, id string, doc Doc) error {
	_, err := s.Client.Collection(collection).Doc(id).Set(ctx, doc)
	return err
}

func (s *Firestore) Get(ctx context.Context, collection, id string) (Doc, bool, error) {
	snap, err := s.Client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return snap.Data(), true, nil
}

func (s *Firestore) Query(ctx context.Context, collection, field, op string, value any) ([]Snapshot, error) {
	iter := s.Client.Collection(collection).Where(field, op, value).Documents(ctx)
	defer iter.Stop()

	var out []Snapshot
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return out, nil
}
