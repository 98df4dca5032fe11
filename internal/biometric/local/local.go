// Package local implements the biometric index without AWS: face
// embeddings come from an embedding server, similarity search runs over
// an in-process HNSW graph. Meant for development and single-node
// deployments; enrolled vectors live only in memory.
package local

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
	"github.com/google/uuid"

	"github.com/facegate/facegate/internal/biometric"
	"github.com/facegate/facegate/internal/fault"
)

// hnswMaxNeighbors is the M parameter of the graph.
const hnswMaxNeighbors = 16

// ImageFetcher resolves an object key to image bytes. The local index
// serves a single bucket, so ImageRef.Bucket is ignored here.
type ImageFetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Index holds face embeddings in an HNSW graph keyed by faceId.
type Index struct {
	mu      sync.RWMutex
	graph   *hnsw.Graph[string]
	vectors map[string][]float32

	fetcher  ImageFetcher
	embedder Embedder
}

// NewIndex creates an empty local index.
func NewIndex(fetcher ImageFetcher, embedder Embedder) *Index {
	return &Index{
		vectors:  make(map[string][]float32),
		fetcher:  fetcher,
		embedder: embedder,
	}
}

func (x *Index) embed(ctx context.Context, ref biometric.ImageRef) ([]float32, error) {
	data, err := x.fetcher.Fetch(ctx, ref.Key)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, fmt.Sprintf("fetching image %s", ref.Key))
	}
	vec, err := x.embedder.Embed(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, fault.Newf(fault.CodeNoFace, "no usable face in %s", ref.Key)
	}
	return vec, nil
}

// newGraph creates a graph with cosine distance.
func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance
	return g
}

// Enroll embeds the image and stores the vector under a fresh faceId.
func (x *Index) Enroll(ctx context.Context, ref biometric.ImageRef) (string, error) {
	vec, err := x.embed(ctx, ref)
	if err != nil {
		return "", err
	}

	faceID := uuid.NewString()

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.graph == nil {
		x.graph = newGraph()
	}
	x.graph.Add(hnsw.MakeNode(faceID, vec))
	x.vectors[faceID] = vec
	return faceID, nil
}

// Search embeds the probe and returns the nearest enrolled face whose
// similarity reaches the threshold (inclusive), scaled to [0, 100].
func (x *Index) Search(ctx context.Context, ref biometric.ImageRef, threshold float64) (*biometric.Match, error) {
	vec, err := x.embed(ctx, ref)
	if err != nil {
		return nil, err
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.graph == nil || len(x.vectors) == 0 {
		return nil, nil
	}

	neighbors := x.graph.Search(vec, 1)
	if len(neighbors) == 0 {
		return nil, nil
	}

	best := neighbors[0]
	confidence := cosineSimilarity(vec, best.Value) * 100
	if confidence < threshold {
		return nil, nil
	}
	return &biometric.Match{FaceID: best.Key, Confidence: confidence}, nil
}

// Remove drops the given faceIds and rebuilds the graph from the
// surviving vectors. Absent ids are ignored.
func (x *Index) Remove(ctx context.Context, faceIDs []string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	changed := false
	for _, id := range faceIDs {
		if _, ok := x.vectors[id]; ok {
			delete(x.vectors, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}

	if len(x.vectors) == 0 {
		x.graph = nil
		return nil
	}
	g := newGraph()
	for id, vec := range x.vectors {
		g.Add(hnsw.MakeNode(id, vec))
	}
	x.graph = g
	return nil
}

// Count returns the number of enrolled faces.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
