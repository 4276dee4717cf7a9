package routing

import (
	"fmt"
	"testing"
)

func TestChunkLocationsSingleChunk(t *testing.T) {
	locs := []string{"start", "a", "b", "end"}

	chunks := chunkLocations(locs, 25)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	c := chunks[0]
	if c.Origin != "start" || c.Destination != "end" {
		t.Fatalf("chunk endpoints = %q -> %q", c.Origin, c.Destination)
	}
	if len(c.Waypoints) != 2 {
		t.Fatalf("expected 2 waypoints, got %d", len(c.Waypoints))
	}
}

func TestChunkLocationsSeamInvariant(t *testing.T) {
	// 30 stops plus start and end, against a 25 waypoint limit.
	locs := []string{"start"}
	for i := 1; i <= 30; i++ {
		locs = append(locs, fmt.Sprintf("stop-%d", i))
	}
	locs = append(locs, "end")

	chunks := chunkLocations(locs, 25)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if got := len(chunks[0].Waypoints); got != 25 {
		t.Fatalf("first chunk waypoints = %d, want 25", got)
	}

	for k := 0; k+1 < len(chunks); k++ {
		if chunks[k].Destination != chunks[k+1].Origin {
			t.Fatalf(
				"seam broken at chunk %d: destination %q, next origin %q",
				k, chunks[k].Destination, chunks[k+1].Origin,
			)
		}
	}

	// Concatenating chunk legs must walk every location exactly once.
	walked := []string{}
	for k, c := range chunks {
		seq := c.locations()
		if k > 0 {
			seq = seq[1:]
		}
		walked = append(walked, seq...)
	}
	if len(walked) != len(locs) {
		t.Fatalf("walked %d locations, want %d", len(walked), len(locs))
	}
	for i := range locs {
		if walked[i] != locs[i] {
			t.Fatalf("position %d: walked %q, want %q", i, walked[i], locs[i])
		}
	}
}

func TestChunkLocationsExactBoundary(t *testing.T) {
	// 25 stops fit one request exactly: origin + 25 waypoints + destination.
	locs := []string{"start"}
	for i := 1; i <= 25; i++ {
		locs = append(locs, fmt.Sprintf("stop-%d", i))
	}
	locs = append(locs, "end")

	chunks := chunkLocations(locs, 25)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].coordinateCount() != 27 {
		t.Fatalf("coordinate count = %d, want 27", chunks[0].coordinateCount())
	}
}

func TestChunkLocationsDegenerate(t *testing.T) {
	if got := chunkLocations([]string{"only"}, 25); got != nil {
		t.Fatalf("single location should yield no chunks, got %v", got)
	}
	if got := chunkLocations(nil, 25); got != nil {
		t.Fatalf("nil locations should yield no chunks, got %v", got)
	}

	// Start and end with no stops is still one routable chunk.
	chunks := chunkLocations([]string{"start", "end"}, 25)
	if len(chunks) != 1 || len(chunks[0].Waypoints) != 0 {
		t.Fatalf("unexpected chunks: %v", chunks)
	}
}
