package routing

// routeChunk is one request-sized slice of an ordered location list. The
// destination of chunk k is always the origin of chunk k+1; breaking that
// invariant would silently drop or duplicate a leg at the seam.
type routeChunk struct {
	Origin      string
	Waypoints   []string
	Destination string
}

// chunkLocations splits [start, stops..., end] into chunks carrying at most
// maxWaypoints intermediate waypoints each. Fewer than two locations yields
// no chunks.
func chunkLocations(locations []string, maxWaypoints int) []routeChunk {
	if len(locations) < 2 {
		return nil
	}
	if maxWaypoints < 1 {
		maxWaypoints = defaultMaxWaypoints
	}

	last := len(locations) - 1
	chunks := make([]routeChunk, 0, 1+last/(maxWaypoints+1))

	for i := 0; i < last; i += maxWaypoints + 1 {
		destIdx := i + maxWaypoints + 1
		if destIdx > last {
			destIdx = last
		}

		wps := make([]string, destIdx-i-1)
		copy(wps, locations[i+1:destIdx])

		chunks = append(chunks, routeChunk{
			Origin:      locations[i],
			Waypoints:   wps,
			Destination: locations[destIdx],
		})
	}

	return chunks
}

// coordinateCount is the number of points a chunk sends to the directions
// endpoint.
func (c routeChunk) coordinateCount() int { return 2 + len(c.Waypoints) }

// locations returns the chunk's points in visit order.
func (c routeChunk) locations() []string {
	out := make([]string, 0, c.coordinateCount())
	out = append(out, c.Origin)
	out = append(out, c.Waypoints...)
	out = append(out, c.Destination)
	return out
}
