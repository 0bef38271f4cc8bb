package vectorstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDoc struct {
	ID        string    `bson:"_id"`
	Seq       int64     `bson:"seq"`
	Text      string    `bson:"text"`
	Vector    []float32 `bson:"vector"`
	CreatedAt time.Time `bson:"created_at"`
}

// Mongo stores vectors in a MongoDB collection. With vectorIndex set it
// queries through Atlas $vectorSearch; otherwise it ranks in process.
type Mongo struct {
	col         *mongo.Collection
	vectorIndex string
}

// NewMongo wraps an existing collection. Pass an empty vectorIndex when the
// deployment has no Atlas vector index.
func NewMongo(col *mongo.Collection, vectorIndex string) *Mongo {
	return &Mongo{col: col, vectorIndex: vectorIndex}
}

func (m *Mongo) Upsert(ctx context.Context, id string, vector []float32, text string) error {
	seq, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("counting vectors: %w", err)
	}

	_, err = m.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":         bson.M{"text": text, "vector": vector},
			"$setOnInsert": bson.M{"seq": seq + 1, "created_at": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upserting vector %s: %w", id, err)
	}
	return nil
}

func (m *Mongo) Query(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	if m.vectorIndex != "" {
		return m.vectorSearch(ctx, vector, k)
	}

	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer cur.Close(ctx)

	var cands []candidate
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding vector: %w", err)
		}
		cands = append(cands, candidate{id: doc.ID, text: doc.Text, vector: doc.Vector})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return rankByDistance(vector, cands, k), nil
}

// vectorSearch assumes the Atlas index uses cosine similarity, whose
// normalized score is (1 + cos) / 2.
func (m *Mongo) vectorSearch(ctx context.Context, vector []float32, k int) ([]Match, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.M{
			"index":         m.vectorIndex,
			"path":          "vector",
			"queryVector":   vector,
			"numCandidates": k * 20,
			"limit":         k,
		}}},
		{{Key: "$project", Value: bson.M{
			"text":  1,
			"score": bson.M{"$meta": "vectorSearchScore"},
		}}},
	}

	cur, err := m.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer cur.Close(ctx)

	var hits []struct {
		ID    string  `bson:"_id"`
		Text  string  `bson:"text"`
		Score float64 `bson:"score"`
	}
	if err := cur.All(ctx, &hits); err != nil {
		return nil, fmt.Errorf("decoding vector search results: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		cos := 2*h.Score - 1
		matches = append(matches, Match{ID: h.ID, Text: h.Text, Distance: 1 - cos})
	}
	return matches, nil
}

func (m *Mongo) Count(ctx context.Context) (int, error) {
	n, err := m.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return int(n), nil
}

// Close is a no-op; the client is owned by whoever created the collection.
func (m *Mongo) Close() error { return nil }
