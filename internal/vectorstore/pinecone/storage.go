package pinecone

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"minirag/internal/domain"
	"minirag/internal/vectorstore"
)

const upsertBatch = 100

// dataPlane is the part of *pinecone.IndexConnection the storage uses.
type dataPlane interface {
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	DeleteAllVectorsInNamespace(ctx context.Context) error
	Close() error
}

// Storage writes and queries vectors on the index data plane.
// The data plane host is resolved from the control plane on first use.
type Storage struct {
	client  *Client
	connect func(host string) (dataPlane, error)

	mu   sync.Mutex
	host string
	conn dataPlane
}

func NewStorage(client *Client) *Storage {
	return &Storage{client: client, connect: client.connect}
}

// Reset creates the index when missing, checks its dimension and deletes every
// vector in the namespace.
func (s *Storage) Reset(ctx context.Context, dimension int) error {
	desc, err := s.client.Describe(ctx)
	if errors.Is(err, ErrNotFound) {
		if err := s.client.Create(ctx, dimension); err != nil {
			return err
		}
		desc, err = s.client.WaitReady(ctx)
	}
	if err != nil {
		return err
	}
	if desc.Dimension != dimension {
		return fmt.Errorf("pinecone: index %s has dimension %d but embeddings have %d", desc.Name, desc.Dimension, dimension)
	}
	conn, err := s.open(desc.Host)
	if err != nil {
		return err
	}
	err = conn.DeleteAllVectorsInNamespace(ctx)
	if status.Code(err) == codes.NotFound {
		// the namespace does not exist yet
		return nil
	}
	return err
}

func (s *Storage) Upsert(ctx context.Context, records []vectorstore.Record) error {
	conn, err := s.current(ctx)
	if err != nil {
		return err
	}
	for start := 0; start < len(records); start += upsertBatch {
		end := min(start+upsertBatch, len(records))
		vectors := make([]*pinecone.Vector, 0, end-start)
		for _, r := range records[start:end] {
			md, err := structpb.NewStruct(map[string]any{
				"text":     r.Chunk.Content,
				"source":   r.Chunk.Metadata.Source,
				"title":    r.Chunk.Metadata.Title,
				"position": r.Chunk.Metadata.Position,
			})
			if err != nil {
				return fmt.Errorf("pinecone: metadata for %s: %w", r.ID, err)
			}
			values := r.Vector
			vectors = append(vectors, &pinecone.Vector{Id: r.ID, Values: &values, Metadata: md})
		}
		if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
			return err
		}
	}
	return nil
}

func (s *Storage) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		topK = 5
	}
	conn, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeValues:   true,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		fields := m.Vector.Metadata.GetFields()
		match := vectorstore.Match{
			Chunk: domain.Chunk{
				Content: fields["text"].GetStringValue(),
				Metadata: domain.ChunkMetadata{
					Source:   fields["source"].GetStringValue(),
					Title:    fields["title"].GetStringValue(),
					Position: int(fields["position"].GetNumberValue()),
				},
			},
			Score: float64(m.Score),
		}
		if m.Vector.Values != nil {
			match.Vector = *m.Vector.Values
		}
		out = append(out, match)
	}
	return out, nil
}

// current returns the open connection, resolving the host on first use.
func (s *Storage) current(ctx context.Context) (dataPlane, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		return conn, nil
	}
	desc, err := s.client.Describe(ctx)
	if err != nil {
		return nil, err
	}
	return s.open(desc.Host)
}

// open reuses the connection to host, replacing it when the index moved.
func (s *Storage) open(host string) (dataPlane, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil && s.host == host {
		return s.conn, nil
	}
	conn, err := s.connect(host)
	if err != nil {
		return nil, err
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.host, s.conn = host, conn
	return conn, nil
}
