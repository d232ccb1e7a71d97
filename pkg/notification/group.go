package notification

// GroupKey identifies a homogeneous batch partition.
type GroupKey struct {
	Channel Channel
	Kind    Kind
}

// Group partitions a batch of requests by (channel, kind).
//
// The partitioning is pure: it never mutates or filters the input. Iteration
// order over the returned map is unspecified, but within each group the
// requests keep their original relative order, which callers rely on when
// reporting per-item results.
func Group(requests []Request) map[GroupKey][]Request {
	groups := make(map[GroupKey][]Request)
	for _, req := range requests {
		key := GroupKey{Channel: req.Channel, Kind: req.Kind}
		groups[key] = append(groups[key], req)
	}
	return groups
}
