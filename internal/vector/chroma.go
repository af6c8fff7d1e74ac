package vector

import (
	"context"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// Document is the transport shape between the application and the vector
// store.
type Document struct {
	ID        string
	Metadata  map[string]interface{}
	Embedding []float32
}

// QueryHit is one nearest-neighbor result.
type QueryHit struct {
	ID       string
	Distance float32
	Metadata map[string]interface{}
}

type Service interface {
	Heartbeat(ctx context.Context) error
	Close() error
	// Upsert inserts or replaces documents in a collection.
	Upsert(ctx context.Context, collectionName string, documents []Document) error
	// Query runs a nearest-neighbor search, optionally filtered by a
	// metadata equality condition.
	Query(ctx context.Context, collectionName string, embedding []float32, topK int, where map[string]interface{}) ([]QueryHit, error)
	DeleteByIDs(ctx context.Context, collectionName string, ids []string) (int, error)
	// ListIDs returns every document id in a collection, for stale pruning.
	ListIDs(ctx context.Context, collectionName string) ([]string, error)
}

type client struct {
	client chroma.Client
}

func NewClient(baseURL, authToken string) (Service, error) {
	clientOptions := []chroma.ClientOption{
		chroma.WithBaseURL(baseURL),
	}

	if authToken != "" {
		provider := chroma.NewTokenAuthCredentialsProvider(authToken, chroma.AuthorizationTokenHeader)
		clientOptions = append(clientOptions, chroma.WithAuth(provider))
	}

	cli, err := chroma.NewHTTPClient(clientOptions...)
	if err != nil {
		return nil, err
	}

	return &client{client: cli}, nil
}

func (c *client) Heartbeat(ctx context.Context) error {
	return c.client.Heartbeat(ctx)
}

func (c *client) Close() error {
	return c.client.Close()
}

type noOpEmbeddingFunction struct{}

func (f *noOpEmbeddingFunction) EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error) {
	return make([]embeddings.Embedding, len(texts)), nil
}

func (f *noOpEmbeddingFunction) EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error) {
	return nil, nil
}

func (c *client) getOrCreateCollection(ctx context.Context, name string) (chroma.Collection, error) {
	// The no-op embedding function keeps chroma from loading onnxruntime;
	// all vectors arrive pre-computed from the embedding gateway.
	return c.client.GetOrCreateCollection(ctx, name, chroma.WithEmbeddingFunctionCreate(&noOpEmbeddingFunction{}))
}

func (c *client) Upsert(ctx context.Context, collectionName string, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}

	col, err := c.getOrCreateCollection(ctx, collectionName)
	if err != nil {
		return err
	}

	documentIDs := make([]chroma.DocumentID, len(documents))
	var chromaMetadatas []chroma.DocumentMetadata
	var chromaEmbeddings []embeddings.Embedding

	for i, doc := range documents {
		documentIDs[i] = chroma.DocumentID(doc.ID)
		chromaMetadatas = append(chromaMetadatas, chroma.NewMetadataFromMap(doc.Metadata))
		chromaEmbeddings = append(chromaEmbeddings, embeddings.NewEmbeddingFromFloat32(doc.Embedding))
	}

	return col.Upsert(
		ctx,
		chroma.WithIDs(documentIDs...),
		chroma.WithMetadatas(chromaMetadatas...),
		chroma.WithEmbeddings(chromaEmbeddings...),
	)
}

func (c *client) Query(ctx context.Context, collectionName string, embedding []float32, topK int, where map[string]interface{}) ([]QueryHit, error) {
	col, err := c.getOrCreateCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = 1
	}

	opts := []chroma.CollectionQueryOption{
		chroma.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(embedding)),
		chroma.WithNResults(topK),
		chroma.WithIncludeQuery(chroma.IncludeMetadatas, chroma.IncludeDistances),
	}
	if len(where) > 0 {
		for key, value := range where {
			opts = append(opts, chroma.WithWhereQuery(chroma.EqString(key, value.(string))))
		}
	}

	qr, err := col.Query(ctx, opts...)
	if err != nil {
		return nil, err
	}

	if qr.CountGroups() == 0 {
		return nil, nil
	}

	idGroups := qr.GetIDGroups()
	distanceGroups := qr.GetDistancesGroups()
	metadataGroups := qr.GetMetadatasGroups()
	if len(idGroups) < 1 || len(distanceGroups) < 1 || len(metadataGroups) < 1 {
		return nil, nil
	}

	ids := idGroups[0]
	distances := distanceGroups[0]
	metadatas := metadataGroups[0]

	hits := make([]QueryHit, 0, len(ids))
	for i := range ids {
		hit := QueryHit{ID: string(ids[i])}
		if i < len(distances) {
			hit.Distance = float32(distances[i])
		}
		if i < len(metadatas) {
			md := make(map[string]interface{})
			// DocumentMetadata does not expose Keys(); the concrete
			// implementation does.
			if km, ok := metadatas[i].(interface{ Keys() []string }); ok {
				for _, key := range km.Keys() {
					if v, ok := metadatas[i].GetRaw(key); ok {
						md[key] = v
					}
				}
			}
			hit.Metadata = md
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

func (c *client) DeleteByIDs(ctx context.Context, collectionName string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	col, err := c.getOrCreateCollection(ctx, collectionName)
	if err != nil {
		return 0, err
	}

	docIDs := make([]chroma.DocumentID, len(ids))
	for i, id := range ids {
		docIDs[i] = chroma.DocumentID(id)
	}

	if err := col.Delete(ctx, chroma.WithIDsDelete(docIDs...)); err != nil {
		return 0, err
	}

	return len(ids), nil
}

func (c *client) ListIDs(ctx context.Context, collectionName string) ([]string, error) {
	col, err := c.getOrCreateCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}

	results, err := col.Get(ctx, chroma.WithIncludeGet(chroma.IncludeURIs))
	if err != nil {
		return nil, err
	}

	docIDs := results.GetIDs()
	ids := make([]string, len(docIDs))
	for i, id := range docIDs {
		ids[i] = string(id)
	}
	return ids, nil
}
