package spatial

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

// Element is the capability required of indexed values: a stable
// identifier and a (mutable) location.
type Element interface {
	ElementID() string
	ElementLocation() model.Coordinate
}

// Default quadtree tuning.
const (
	DefaultMaxElementsPerLeaf = 16
	DefaultMaxDepth           = 8
	// DefaultMinCellSizeDegrees stops subdivision around ~11 meters.
	DefaultMinCellSizeDegrees = 0.0001
)

// ElementDistancePair couples an element with its distance in meters
// from a query point.
type ElementDistancePair[T Element] struct {
	Element        T
	DistanceMeters float64
}

// Statistics is a read-only snapshot of the index shape.
type Statistics struct {
	TotalElements     int
	LeafNodes         int
	InternalNodes     int
	MaxElementsInNode int
	MaxDepth          int
}

// Index is a quadtree over a fixed bounding box. Reads may run
// concurrently; structural mutations take the write lock.
type Index[T Element] struct {
	mu     sync.RWMutex
	bounds BoundingBox
	root   *node[T]

	maxPerLeaf  int
	maxDepth    int
	minCellSize float64
}

// NewIndex creates an index with default tuning over the given bounds.
func NewIndex[T Element](bounds BoundingBox) *Index[T] {
	return NewIndexWithConfig[T](bounds, DefaultMaxElementsPerLeaf, DefaultMaxDepth, DefaultMinCellSizeDegrees)
}

// NewIndexWithConfig creates an index with custom leaf capacity, depth
// bound and minimum cell size (degrees).
func NewIndexWithConfig[T Element](bounds BoundingBox, maxPerLeaf, maxDepth int, minCellSize float64) *Index[T] {
	idx := &Index[T]{
		bounds:      bounds,
		maxPerLeaf:  maxPerLeaf,
		maxDepth:    maxDepth,
		minCellSize: minCellSize,
	}
	idx.root = &node[T]{bounds: bounds, depth: 0, owner: idx}
	return idx
}

// Bounds returns the index's overall bounding box.
func (idx *Index[T]) Bounds() BoundingBox {
	return idx.bounds
}

// Insert places the element in the leaf covering its location. Elements
// outside the index bounds are dropped.
func (idx *Index[T]) Insert(e T) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.root.insert(e)
}

// Remove deletes the element (matched by id) from the index. Returns
// false when the element is absent; idempotent.
func (idx *Index[T]) Remove(e T) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.root.remove(e.ElementID())
}

// Update relocates an element whose location has already been mutated:
// it is removed from its old bucket (found by id) and re-inserted at
// its current location.
func (idx *Index[T]) Update(e T) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.root.remove(e.ElementID())
	idx.root.insert(e)
}

// Clear empties the index but keeps its bounding box.
func (idx *Index[T]) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.root = &node[T]{bounds: idx.bounds, depth: 0, owner: idx}
}

// FindWithinRadius returns all elements within radiusMeters (haversine)
// of the center. Box pruning narrows candidates; an exact distance
// filter decides membership.
func (idx *Index[T]) FindWithinRadius(center model.Coordinate, radiusMeters float64) []T {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bbox := util.RadiusBoundingBox(center.Latitude, center.Longitude, radiusMeters)
	searchBounds := BoundingBox{
		SouthWest: model.Coordinate{Latitude: bbox[0], Longitude: bbox[1]},
		NorthEast: model.Coordinate{Latitude: bbox[2], Longitude: bbox[3]},
	}

	var candidates []T
	idx.root.query(searchBounds, &candidates)

	results := make([]T, 0, len(candidates))
	for _, e := range candidates {
		loc := e.ElementLocation()
		d := util.HaversineDistance(center.Latitude, center.Longitude, loc.Latitude, loc.Longitude)
		if d <= radiusMeters {
			results = append(results, e)
		}
	}
	return results
}

// FindWithinBounds returns all elements whose location is contained in
// the box, edges included.
func (idx *Index[T]) FindWithinBounds(bounds BoundingBox) []T {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var results []T
	idx.root.query(bounds, &results)
	return results
}

// FindKNearest returns up to k elements ordered by ascending distance
// from the point.
func (idx *Index[T]) FindKNearest(point model.Coordinate, k int) []ElementDistancePair[T] {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if k <= 0 {
		return nil
	}
	collector := &kNearestCollector[T]{k: k}
	idx.root.collectKNearest(point, collector)
	return collector.results
}

// FindWithinPolygon returns elements inside the simple polygon given by
// its vertices (either winding direction).
func (idx *Index[T]) FindWithinPolygon(vertices []model.Coordinate) []T {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(vertices) < 3 {
		return nil
	}

	polyBounds := polygonBounds(vertices)
	var candidates []T
	idx.root.query(polyBounds, &candidates)

	ring := make(orb.Ring, 0, len(vertices))
	for _, v := range vertices {
		ring = append(ring, orb.Point{v.Longitude, v.Latitude})
	}
	polygon := orb.Polygon{ring}

	results := make([]T, 0, len(candidates))
	for _, e := range candidates {
		loc := e.ElementLocation()
		if util.PointInPolygon(polygon, orb.Point{loc.Longitude, loc.Latitude}) {
			results = append(results, e)
		}
	}
	return results
}

// GetStatistics walks the tree and returns a snapshot of its shape.
func (idx *Index[T]) GetStatistics() Statistics {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var stats Statistics
	idx.root.collectStatistics(&stats)
	return stats
}

func polygonBounds(vertices []model.Coordinate) BoundingBox {
	minLat, maxLat := vertices[0].Latitude, vertices[0].Latitude
	minLng, maxLng := vertices[0].Longitude, vertices[0].Longitude
	for _, v := range vertices[1:] {
		minLat = min(minLat, v.Latitude)
		maxLat = max(maxLat, v.Latitude)
		minLng = min(minLng, v.Longitude)
		maxLng = max(maxLng, v.Longitude)
	}
	return BoundingBox{
		SouthWest: model.Coordinate{Latitude: minLat, Longitude: minLng},
		NorthEast: model.Coordinate{Latitude: maxLat, Longitude: maxLng},
	}
}

// node is one cell of the quadtree. children == nil marks a leaf.
type node[T Element] struct {
	owner    *Index[T]
	bounds   BoundingBox
	depth    int
	elements []T
	children *[4]*node[T]
}

func (n *node[T]) insert(e T) {
	if !n.bounds.Contains(e.ElementLocation()) {
		return
	}

	if n.children == nil {
		n.elements = append(n.elements, e)
		if len(n.elements) > n.owner.maxPerLeaf && n.depth < n.owner.maxDepth && n.canSubdivide() {
			n.subdivide()
		}
		return
	}

	for _, child := range n.children {
		if child.bounds.Contains(e.ElementLocation()) {
			child.insert(e)
			return
		}
	}
}

func (n *node[T]) remove(id string) bool {
	if n.children == nil {
		for i, e := range n.elements {
			if e.ElementID() == id {
				n.elements = append(n.elements[:i], n.elements[i+1:]...)
				return true
			}
		}
		return false
	}
	for _, child := range n.children {
		if child.remove(id) {
			return true
		}
	}
	return false
}

func (n *node[T]) query(queryBounds BoundingBox, results *[]T) {
	if !n.bounds.Intersects(queryBounds) {
		return
	}

	if n.children == nil {
		for _, e := range n.elements {
			if queryBounds.Contains(e.ElementLocation()) {
				*results = append(*results, e)
			}
		}
		return
	}

	for _, child := range n.children {
		child.query(queryBounds, results)
	}
}

func (n *node[T]) collectKNearest(center model.Coordinate, collector *kNearestCollector[T]) {
	if n.children == nil {
		for _, e := range n.elements {
			loc := e.ElementLocation()
			d := util.HaversineDistance(center.Latitude, center.Longitude, loc.Latitude, loc.Longitude)
			collector.consider(e, d)
		}
		return
	}

	for _, child := range n.children {
		if collector.shouldDescend(child.bounds.MinDistanceTo(center)) {
			child.collectKNearest(center, collector)
		}
	}
}

func (n *node[T]) collectStatistics(stats *Statistics) {
	if n.children == nil {
		stats.LeafNodes++
		stats.TotalElements += len(n.elements)
		stats.MaxElementsInNode = max(stats.MaxElementsInNode, len(n.elements))
		stats.MaxDepth = max(stats.MaxDepth, n.depth)
		return
	}
	stats.InternalNodes++
	for _, child := range n.children {
		child.collectStatistics(stats)
	}
}

func (n *node[T]) canSubdivide() bool {
	latSize := n.bounds.NorthEast.Latitude - n.bounds.SouthWest.Latitude
	lngSize := n.bounds.NorthEast.Longitude - n.bounds.SouthWest.Longitude
	return latSize > n.owner.minCellSize && lngSize > n.owner.minCellSize
}

func (n *node[T]) subdivide() {
	sw, ne := n.bounds.SouthWest, n.bounds.NorthEast
	midLat := (sw.Latitude + ne.Latitude) / 2
	midLng := (sw.Longitude + ne.Longitude) / 2

	quadrants := [4]BoundingBox{
		{SouthWest: sw, NorthEast: model.Coordinate{Latitude: midLat, Longitude: midLng}},
		{SouthWest: model.Coordinate{Latitude: sw.Latitude, Longitude: midLng}, NorthEast: model.Coordinate{Latitude: midLat, Longitude: ne.Longitude}},
		{SouthWest: model.Coordinate{Latitude: midLat, Longitude: sw.Longitude}, NorthEast: model.Coordinate{Latitude: ne.Latitude, Longitude: midLng}},
		{SouthWest: model.Coordinate{Latitude: midLat, Longitude: midLng}, NorthEast: ne},
	}

	children := new([4]*node[T])
	for i, q := range quadrants {
		children[i] = &node[T]{owner: n.owner, bounds: q, depth: n.depth + 1}
	}
	n.children = children

	for _, e := range n.elements {
		for _, child := range n.children {
			if child.bounds.Contains(e.ElementLocation()) {
				child.insert(e)
				break
			}
		}
	}
	n.elements = nil
}

// kNearestCollector keeps the k closest elements seen so far, sorted
// ascending by distance.
type kNearestCollector[T Element] struct {
	k       int
	results []ElementDistancePair[T]
}

func (c *kNearestCollector[T]) consider(e T, distance float64) {
	c.results = append(c.results, ElementDistancePair[T]{Element: e, DistanceMeters: distance})
	sort.Slice(c.results, func(i, j int) bool {
		return c.results[i].DistanceMeters < c.results[j].DistanceMeters
	})
	if len(c.results) > c.k {
		c.results = c.results[:c.k]
	}
}

func (c *kNearestCollector[T]) shouldDescend(minDistance float64) bool {
	return len(c.results) < c.k || minDistance < c.results[len(c.results)-1].DistanceMeters
}
