package pack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/whesense/attnlens/blobstore"
	"github.com/whesense/attnlens/codec"
)

// indexName is the pointer blob naming the current catalog document. The
// s3 CatalogStore intercepts writes to it and commits them atomically via
// DynamoDB; for other stores it is a plain blob.
const indexName = "INDEX"

// Catalog is the viewer-facing list of published scenes.
type Catalog struct {
	// Scenes maps display names to manifest blob names.
	Scenes []CatalogEntry `json:"scenes"`

	// PublishedAtUnix is the publication time in Unix seconds.
	PublishedAtUnix int64 `json:"published_at_unix"`
}

// CatalogEntry names one published scene.
type CatalogEntry struct {
	Name     string `json:"name"`
	Manifest string `json:"manifest"`
}

// PublishIndex writes a new catalog document listing the given scenes and
// points INDEX at it. On an s3 CatalogStore the pointer advance is a
// compare-and-swap, so concurrent publishers never clobber each other.
func PublishIndex(ctx context.Context, store blobstore.Store, entries []CatalogEntry, optFns ...Option) (string, error) {
	opts := Options{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if len(entries) == 0 {
		return "", fmt.Errorf("pack: catalog has no scenes")
	}

	cat := Catalog{
		Scenes:          entries,
		PublishedAtUnix: time.Now().Unix(),
	}

	doc, err := opts.Codec.Marshal(cat)
	if err != nil {
		return "", fmt.Errorf("pack: encoding catalog: %w", err)
	}

	catalogName := fmt.Sprintf("catalog-%d.json", time.Now().UnixNano())
	if err := store.Put(ctx, catalogName, doc); err != nil {
		return "", fmt.Errorf("pack: writing catalog: %w", err)
	}

	if err := store.Put(ctx, indexName, []byte(catalogName)); err != nil {
		return "", fmt.Errorf("pack: publishing catalog pointer: %w", err)
	}
	return catalogName, nil
}

// ReadCatalog resolves the INDEX pointer and loads the current catalog.
func ReadCatalog(ctx context.Context, store blobstore.Store, optFns ...Option) (*Catalog, error) {
	opts := Options{Codec: codec.Default}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	pointer, err := blobstore.ReadAll(ctx, store, indexName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("pack: no catalog published: %w", err)
		}
		return nil, err
	}

	doc, err := blobstore.ReadAll(ctx, store, string(pointer))
	if err != nil {
		return nil, fmt.Errorf("pack: reading catalog %q: %w", string(pointer), err)
	}

	var cat Catalog
	if err := opts.Codec.Unmarshal(doc, &cat); err != nil {
		return nil, fmt.Errorf("pack: malformed catalog %q: %w", string(pointer), err)
	}
	return &cat, nil
}
