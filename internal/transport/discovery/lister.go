package discovery

import (
	"context"
	"errors"
	"fmt"
	"path"

	discoveryengine "cloud.google.com/go/discoveryengine/apiv1"
	"cloud.google.com/go/discoveryengine/apiv1/discoveryenginepb"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
)

// Lister enumerates the data stores of a collection.
type Lister struct {
	client *discoveryengine.DataStoreClient
}

// NewLister creates a Discovery Engine data store client.
func NewLister(ctx context.Context, opts ...option.ClientOption) (*Lister, error) {
	c, err := discoveryengine.NewDataStoreClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create data store client: %w", err)
	}
	return &Lister{client: c}, nil
}

// ListDataStores returns the id and display name of every data store under parent.
func (l *Lister) ListDataStores(ctx context.Context, parent string) ([]domain.DataStore, error) {
	it := l.client.ListDataStores(ctx, &discoveryenginepb.ListDataStoresRequest{
		Parent: parent,
	})

	var stores []domain.DataStore
	for {
		ds, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list data stores %q: %w", parent, err)
		}
		stores = append(stores, domain.DataStore{
			// The resource name ends in .../dataStores/{id}.
			ID:          path.Base(ds.GetName()),
			DisplayName: ds.GetDisplayName(),
		})
	}
	return stores, nil
}

// Close releases the underlying gRPC connection.
func (l *Lister) Close() error {
	return l.client.Close()
}
