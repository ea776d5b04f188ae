package data

// HostPair is a directed (source, destination) address pair
type HostPair struct {
	Src string
	Dst string
}

// Less orders pairs by source then destination
func (p HostPair) Less(o HostPair) bool {
	if p.Src != o.Src {
		return p.Src < o.Src
	}
	return p.Dst < o.Dst
}

// Reverse swaps the direction of the pair
func (p HostPair) Reverse() HostPair {
	return HostPair{Src: p.Dst, Dst: p.Src}
}
