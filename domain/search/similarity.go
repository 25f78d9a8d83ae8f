// Package search contains vector similarity primitives and the store
// interface the search service runs against.
package search

import (
	"math"
	"sort"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched dimensions or zero-magnitude vectors yield 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Candidate pairs a repository ID with its stored embedding for in-process
// scoring.
type Candidate struct {
	id     int64
	vector []float64
}

// NewCandidate creates a Candidate. The vector is not copied; candidates are
// short-lived scoring inputs.
func NewCandidate(id int64, vector []float64) Candidate {
	return Candidate{id: id, vector: vector}
}

// ID returns the repository ID.
func (c Candidate) ID() int64 { return c.id }

// Result is a scored search hit.
type Result struct {
	repoID int64
	score  float64
}

// NewResult creates a Result.
func NewResult(repoID int64, score float64) Result {
	return Result{repoID: repoID, score: score}
}

// RepoID returns the repository ID.
func (r Result) RepoID() int64 { return r.repoID }

// Score returns the similarity score, higher is more similar.
func (r Result) Score() float64 { return r.score }

// TopKSimilar scores candidates against query and returns the k best,
// ordered by descending similarity. Equal scores are ordered by ascending
// repository ID so results are deterministic.
func TopKSimilar(query []float64, candidates []Candidate, k int) []Result {
	if k <= 0 || len(candidates) == 0 {
		return []Result{}
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, NewResult(c.id, CosineSimilarity(query, c.vector)))
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].repoID < results[j].repoID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
