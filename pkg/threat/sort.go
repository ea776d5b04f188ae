package threat

import (
	"sort"

	"github.com/rayen-mansouri/packet-analyzer/pkg/data"
)

func sortPairs(pairs []data.HostPair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Less(pairs[j]) })
}

// serviceKey groups findings by a host pair and a port or service name
type serviceKey struct {
	pair    data.HostPair
	port    int
	service string
}

func (k serviceKey) less(o serviceKey) bool {
	if k.pair != o.pair {
		return k.pair.Less(o.pair)
	}
	if k.port != o.port {
		return k.port < o.port
	}
	return k.service < o.service
}

func sortServiceKeys(keys []serviceKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
}
