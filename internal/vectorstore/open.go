package vectorstore

import (
	"context"
	"fmt"
	"time"

	"erp-helpdesk-assistant/internal/config"
)

// Open builds the store selected by VECTOR_STORE, checked against
// VECTOR_DIM when that is set.
func Open(cfg *config.Config) (Store, error) {
	s, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return WithDimension(s, cfg.VectorDimensions), nil
}

func open(cfg *config.Config) (Store, error) {
	switch cfg.VectorStore {
	case "sqlite":
		return NewSQLite(cfg.VectorStoreDir, cfg.VectorCollection)
	case "memory":
		return NewMemory(), nil
	case "mongo":
		client, err := config.ConnectMongoDB(cfg)
		if err != nil {
			return nil, err
		}
		index := ""
		if cfg.VectorSearchEnabled {
			index = cfg.VectorIndexName
		}
		col := client.Database(cfg.DBName).Collection(cfg.VectorCollection)
		return &ownedMongo{Mongo: NewMongo(col, index), disconnect: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return client.Disconnect(ctx)
		}}, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

// ownedMongo is a Mongo store that also owns its client connection.
type ownedMongo struct {
	*Mongo
	disconnect func() error
}

func (o *ownedMongo) Close() error {
	return o.disconnect()
}
