package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"multivector-rag/internal/config"
	"multivector-rag/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVectorStore persists index entries in a MongoDB collection, scoped to
// a single document id. Search fetches the document's entries and ranks them
// in process; this works against any MongoDB, not just Atlas vector indexes.
type MongoVectorStore struct {
	collection *mongo.Collection
	documentID string

	mu   sync.Mutex
	next int // insertion counter, preserved as the tie-break order
}

type indexEntryDoc struct {
	DocumentID string    `bson:"document_id"`
	ElementID  string    `bson:"element_id"`
	Vector     []float32 `bson:"vector"`
	Order      int       `bson:"order"`
}

func NewMongoVectorStore(client *mongo.Client, cfg *config.Config, documentID string) *MongoVectorStore {
	return &MongoVectorStore{
		collection: client.Database(cfg.DBName).Collection(cfg.VectorCollection),
		documentID: documentID,
	}
}

func (s *MongoVectorStore) Add(ctx context.Context, id string, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("empty vector for element %q", id)
	}

	s.mu.Lock()
	order := s.next
	s.next++
	s.mu.Unlock()

	doc := indexEntryDoc{
		DocumentID: s.documentID,
		ElementID:  id,
		Vector:     vec,
		Order:      order,
	}

	_, err := s.collection.UpdateOne(ctx,
		bson.M{"document_id": s.documentID, "element_id": id},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert index entry: %w", err)
	}
	return nil
}

func (s *MongoVectorStore) Search(ctx context.Context, vec []float32, k int) ([]models.SearchHit, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"document_id": s.documentID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("index lookup failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []indexEntryDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode index entries: %w", err)
	}

	if k <= 0 || k > len(docs) {
		k = len(docs)
	}

	hits := make([]models.SearchHit, len(docs))
	for i, doc := range docs {
		hits[i] = models.SearchHit{ElementID: doc.ElementID, Score: CosineSimilarity(doc.Vector, vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	return hits[:k], nil
}

// Clear removes every index entry for this document.
func (s *MongoVectorStore) Clear(ctx context.Context) error {
	_, err := s.collection.DeleteMany(ctx, bson.M{"document_id": s.documentID})
	return err
}
