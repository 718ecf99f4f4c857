package board

// disjointSet groups copper nodes using union-find with union by rank and
// path compression
type disjointSet[K comparable] struct {
	parent map[K]K
	rank   map[K]int
}

func newDisjointSet[K comparable]() *disjointSet[K] {
	return &disjointSet[K]{
		parent: make(map[K]K),
		rank:   make(map[K]int),
	}
}

// Add registers k as its own group if it is not known yet
func (d *disjointSet[K]) Add(k K) {
	if _, ok := d.parent[k]; !ok {
		d.parent[k] = k
		d.rank[k] = 0
	}
}

// Connect merges the groups of a and b
func (d *disjointSet[K]) Connect(a, b K) {
	d.Add(a)
	d.Add(b)
	rootA := d.Find(a)
	rootB := d.Find(b)
	if rootA == rootB {
		return
	}

	// Union by rank
	if d.rank[rootA] < d.rank[rootB] {
		d.parent[rootA] = rootB
	} else if d.rank[rootA] > d.rank[rootB] {
		d.parent[rootB] = rootA
	} else {
		d.parent[rootB] = rootA
		d.rank[rootA]++
	}
}

// Find returns the representative of k's group
func (d *disjointSet[K]) Find(k K) K {
	d.Add(k)
	root := k
	for d.parent[root] != root {
		root = d.parent[root]
	}

	// Path compression
	for k != root {
		next := d.parent[k]
		d.parent[k] = root
		k = next
	}
	return root
}

// Groups returns every group keyed by its representative
func (d *disjointSet[K]) Groups() map[K][]K {
	groups := make(map[K][]K)
	for k := range d.parent {
		root := d.Find(k)
		groups[root] = append(groups[root], k)
	}
	return groups
}
