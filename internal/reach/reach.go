// Package reach answers whether a signal can travel between two devices given
// the current link states, and builds ping reports on top of that.
//
// A cable is traversable only when both of its endpoint interfaces are
// administratively up and connected. This models Layer 1/2 link state; there
// is no routing.
package reach

import (
	"netsim/internal/domain"
)

// Graph is the read-only view of a topology the engine needs
type Graph interface {
	Devices() []*domain.Device
	Cables() []domain.Cable
	Device(id int) *domain.Device
}

// Traversable reports whether traffic can cross cable c
func Traversable(g Graph, c domain.Cable) bool {
	from, to := g.Device(c.From), g.Device(c.To)
	if from == nil || to == nil {
		return false
	}
	a, b := from.Interface(c.FromPort), to.Interface(c.ToPort)
	if a == nil || b == nil {
		return false
	}
	return a.Up() && b.Up()
}

// Neighbors returns the devices one traversable hop away from id, in cable
// order without duplicates.
func Neighbors(g Graph, id int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, c := range g.Cables() {
		if !c.Involves(id) || !Traversable(g, c) {
			continue
		}
		other, _ := c.OtherEnd(id)
		if other == id || seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, other)
	}
	return out
}

// FindPath reports whether dst can be reached from src over traversable
// cables. A device always reaches itself.
func FindPath(g Graph, src, dst int) bool {
	if src == dst {
		return true
	}

	cables := g.Cables()
	visited := map[int]bool{src: true}
	queue := []int{src}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, c := range cables {
			if !c.Involves(current) {
				continue
			}
			next, _ := c.OtherEnd(current)
			if visited[next] || !Traversable(g, c) {
				continue
			}
			if next == dst {
				return true
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}
	return false
}

// Owner finds the first device and interface index carrying ip
func Owner(g Graph, ip string) (*domain.Device, int) {
	for _, d := range g.Devices() {
		for i := range d.Interfaces {
			if d.Interfaces[i].IP == ip {
				return d, i
			}
		}
	}
	return nil, -1
}
