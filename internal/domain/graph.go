package domain

import "fmt"

// Graph is the derived view handed to the canvas renderer
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode represents a device in the visualization
type GraphNode struct {
	ID       int      `json:"id"`
	Label    string   `json:"label"`
	Group    string   `json:"group"` // device kind
	Title    string   `json:"title"` // Tooltip content
	Position Position `json:"position"`
}

// GraphEdge represents a cable in the visualization. FromUp and ToUp drive the
// link lights drawn at each end.
type GraphEdge struct {
	Index  int    `json:"index"`
	From   int    `json:"from"`
	To     int    `json:"to"`
	Label  string `json:"label"`
	FromUp bool   `json:"from_up"`
	ToUp   bool   `json:"to_up"`
}

// DeriveGraph converts a Snapshot to a renderer friendly Graph
func DeriveGraph(s *Snapshot) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, len(s.Devices)),
		Edges: make([]GraphEdge, 0, len(s.Cables)),
	}

	for i := range s.Devices {
		d := &s.Devices[i]
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:       d.ID,
			Label:    d.Name,
			Group:    string(d.Kind),
			Title:    buildTooltip(d),
			Position: d.Position(),
		})
	}

	for i, c := range s.Cables {
		edge := GraphEdge{
			Index: i,
			From:  c.From,
			To:    c.To,
			Label: string(c.Kind),
		}
		if d := s.Device(c.From); d != nil {
			if iface := d.Interface(c.FromPort); iface != nil {
				edge.FromUp = iface.Up()
				edge.Label = fmt.Sprintf("%s %s", c.Kind, iface.Name)
			}
		}
		if d := s.Device(c.To); d != nil {
			if iface := d.Interface(c.ToPort); iface != nil {
				edge.ToUp = iface.Up()
			}
		}
		graph.Edges = append(graph.Edges, edge)
	}

	return graph
}

func buildTooltip(d *Device) string {
	tooltip := fmt.Sprintf("%s\n%s", d.Name, d.Kind)
	for _, iface := range d.Interfaces {
		if iface.IP != "" {
			tooltip += fmt.Sprintf("\n%s %s/%s", iface.Name, iface.IP, iface.Mask)
		}
	}
	return tooltip
}
