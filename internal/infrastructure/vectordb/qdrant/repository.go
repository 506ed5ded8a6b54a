// Package qdrant provides a VectorCache implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/ports"
	"github.com/ersonp/secmatch/internal/infrastructure/config"
)

// Repository implements the VectorCache interface using Qdrant.
// Point IDs are derived deterministically from the harmonized_id, so
// re-embedding an entity upserts in place.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = config.DefaultCollection
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: collection,
		conn:       conn,
	}, nil
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// pointID maps a harmonized_id onto a stable UUID point ID.
func pointID(harmonizedID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(harmonizedID)).String()
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// DeleteCollection drops the collection. Used by integration tests to
// reset state between runs.
func (r *Repository) DeleteCollection(ctx context.Context) error {
	_, err := r.client.Delete(ctx, &pb.DeleteCollection{
		CollectionName: r.collection,
	})
	if err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// Put upserts the embedding for an entity's description.
func (r *Repository) Put(ctx context.Context, entity entities.HarmonizedEntity, embedding []float32) error {
	point := &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{
				Uuid: pointID(entity.HarmonizedID),
			},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{
					Data: embedding,
				},
			},
		},
		Payload: map[string]*pb.Value{
			"harmonized_id": {Kind: &pb.Value_StringValue{StringValue: entity.HarmonizedID}},
			"source":        {Kind: &pb.Value_StringValue{StringValue: string(entity.Source)}},
			"description":   {Kind: &pb.Value_StringValue{StringValue: entity.Description()}},
		},
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         []*pb.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("upserting point: %w", err)
	}

	return nil
}

// Get returns the cached embedding for an entity, or nil when absent.
func (r *Repository) Get(ctx context.Context, harmonizedID string) ([]float32, error) {
	resp, err := r.points.Get(ctx, &pb.GetPoints{
		CollectionName: r.collection,
		Ids: []*pb.PointId{
			{PointIdOptions: &pb.PointId_Uuid{Uuid: pointID(harmonizedID)}},
		},
		WithVectors: &pb.WithVectorsSelector{
			SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("getting point: %w", err)
	}

	if len(resp.Result) == 0 {
		return nil, nil
	}

	vectors := resp.Result[0].GetVectors()
	if vectors == nil || vectors.GetVector() == nil {
		return nil, nil
	}
	return vectors.GetVector().Data, nil
}

// Search returns the entities whose cached descriptions are most
// similar to the given embedding.
func (r *Repository) Search(ctx context.Context, embedding []float32, limit int) ([]ports.EntityHit, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]ports.EntityHit, 0, len(resp.Result))
	for _, point := range resp.Result {
		hit := ports.EntityHit{Score: point.Score}
		if payload := point.Payload; payload != nil {
			hit.HarmonizedID = payload["harmonized_id"].GetStringValue()
			hit.Source = entities.Source(payload["source"].GetStringValue())
			hit.Description = payload["description"].GetStringValue()
		}
		hits = append(hits, hit)
	}

	return hits, nil
}
