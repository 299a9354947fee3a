package network

// Order is a topological order of a network's events. Forward runs from the
// start event to the end event; Reverse is the same sequence back to front
// and drives the backward pass.
type Order struct {
	Forward []EventID
	Reverse []EventID
}

// TopologicalOrder runs Kahn's algorithm. Ready events are dequeued in the
// order they became ready (FIFO); events that start out ready are seeded in
// id order and outgoing arcs are relaxed in insertion order, so the result
// only depends on how the network was assembled. Reverse is filled during
// the same pass.
//
// If some events are never released the network has a cycle and a
// *CycleError listing those events is returned.
func (n *Network) TopologicalOrder() (Order, error) {
	inDegree := make([]int, len(n.events))
	var queue []EventID
	for _, e := range n.events {
		inDegree[e.ID] = len(e.In)
		if inDegree[e.ID] == 0 {
			queue = append(queue, e.ID)
		}
	}

	order := Order{
		Forward: make([]EventID, 0, len(n.events)),
		Reverse: make([]EventID, len(n.events)),
	}
	back := len(n.events)
	for len(queue) > 0 {
		// Pop front
		node := queue[0]
		queue = queue[1:]
		order.Forward = append(order.Forward, node)
		back--
		order.Reverse[back] = node

		for _, aid := range n.events[node].Out {
			head := n.activities[aid].Head
			inDegree[head]--
			if inDegree[head] == 0 {
				queue = append(queue, head)
			}
		}
	}

	if len(order.Forward) != len(n.events) {
		return Order{}, n.stuckEvents(inDegree)
	}
	return order, nil
}

// stuckEvents reports the events Kahn's algorithm could not release,
// preferring an actual cycle through them when one can be traced.
func (n *Network) stuckEvents(inDegree []int) error {
	if cycle := n.DetectCycle(); cycle != nil {
		return cycle
	}
	c := &CycleError{}
	for id, deg := range inDegree {
		if deg > 0 {
			c.Events = append(c.Events, EventID(id))
		}
	}
	return c
}
