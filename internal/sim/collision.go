package sim

// Hit reports that one source point removed Count entities from a target
// collection. SourceIndex is -1 for point queries.
type Hit struct {
	SourceIndex int
	TargetIndex int
	Point       Vec3
	Count       int
}

// Resolver prunes target collections around source entities. It only counts;
// scoring and damage belong to the caller.
type Resolver struct {
	HitRadius float64
	// ConsumeSource removes a source entity once it has hit something and
	// stops checking it against the remaining targets
	ConsumeSource bool
	// Broadphase buckets each target into a grid of HitRadius cells before
	// the exact distance checks. Results are identical to the plain scan.
	Broadphase bool
}

// Resolve checks every source entity against every target with a plain
// resolver (source entities are not consumed)
func Resolve(source *Collection, targets []*Collection, hitRadius float64) []Hit {
	return Resolver{HitRadius: hitRadius}.Resolve(source, targets)
}

// ResolvePoint prunes every target around a single point, e.g. the player's
// own position
func ResolvePoint(p Vec3, targets []*Collection, hitRadius float64) []Hit {
	return Resolver{HitRadius: hitRadius}.ResolvePoint(p, targets)
}

// Resolve removes target entities within HitRadius of each source entity and
// reports one Hit per (source, target) pair that removed anything.
// A target that is the source collection itself is skipped.
func (r Resolver) Resolve(source *Collection, targets []*Collection) []Hit {
	if source == nil || source.Len() == 0 {
		return nil
	}
	if r.Broadphase && r.HitRadius > 0 {
		return r.resolveGrid(source, targets)
	}

	var hits []Hit
	var consumed []int

	for i := range source.entities {
		p := source.entities[i].Position
		for j, target := range targets {
			if target == nil || target == source {
				continue
			}
			n := target.RemoveNear(p, r.HitRadius)
			if n == 0 {
				continue
			}
			hits = append(hits, Hit{SourceIndex: i, TargetIndex: j, Point: p, Count: n})
			if r.ConsumeSource {
				consumed = append(consumed, i)
				break
			}
		}
	}

	source.removeIndices(consumed)
	return hits
}

// resolveGrid is Resolve with a per-target grid. Removals are marked during
// the pass and compacted at the end, so indices stay valid while querying.
func (r Resolver) resolveGrid(source *Collection, targets []*Collection) []Hit {
	grids := make([]*grid, len(targets))
	dead := make([][]bool, len(targets))
	for j, target := range targets {
		if target == nil || target == source || target.Len() == 0 {
			continue
		}
		grids[j] = &grid{}
		grids[j].build(target.entities, r.HitRadius)
		dead[j] = make([]bool, target.Len())
	}

	var hits []Hit
	var consumed []int

	for i := range source.entities {
		p := source.entities[i].Position
		for j, g := range grids {
			if g == nil {
				continue
			}
			n := 0
			for _, idx := range g.query(p.X, p.Y, r.HitRadius) {
				if dead[j][idx] || targets[j].entities[idx].Position.Dist(p) >= r.HitRadius {
					continue
				}
				dead[j][idx] = true
				n++
			}
			if n == 0 {
				continue
			}
			hits = append(hits, Hit{SourceIndex: i, TargetIndex: j, Point: p, Count: n})
			if r.ConsumeSource {
				consumed = append(consumed, i)
				break
			}
		}
	}

	for j, marks := range dead {
		if marks == nil {
			continue
		}
		k := -1
		targets[j].removeIf(func(*Entity) bool {
			k++
			return marks[k]
		})
	}
	source.removeIndices(consumed)
	return hits
}

// ResolvePoint removes target entities within HitRadius of p
func (r Resolver) ResolvePoint(p Vec3, targets []*Collection) []Hit {
	var hits []Hit
	for j, target := range targets {
		if target == nil {
			continue
		}
		if n := target.RemoveNear(p, r.HitRadius); n > 0 {
			hits = append(hits, Hit{SourceIndex: -1, TargetIndex: j, Point: p, Count: n})
		}
	}
	return hits
}

// Total sums the counts of a hit list
func Total(hits []Hit) int {
	n := 0
	for _, h := range hits {
		n += h.Count
	}
	return n
}
