package network

// Validate checks the structural invariants: the network is acyclic, the
// start event is the only event without incoming arcs, the end event is the
// only event without outgoing arcs, every event is reachable from the start
// and the end is reachable from every event.
func (n *Network) Validate() error {
	if cycle := n.DetectCycle(); cycle != nil {
		return cycle
	}
	if !n.hasEvent(n.start) {
		return invalid("start event not set")
	}
	if !n.hasEvent(n.end) {
		return invalid("end event not set")
	}

	for _, e := range n.events {
		if len(e.In) == 0 && e.ID != n.start {
			return invalid("event e%d has no incoming arcs but is not the start event", e.ID)
		}
		if len(e.Out) == 0 && e.ID != n.end {
			return invalid("event e%d has no outgoing arcs but is not the end event", e.ID)
		}
	}
	if len(n.events[n.start].In) != 0 {
		return invalid("start event e%d has incoming arcs", n.start)
	}
	if len(n.events[n.end].Out) != 0 {
		return invalid("end event e%d has outgoing arcs", n.end)
	}

	forward := n.reach(n.start, func(a Activity) EventID { return a.Head }, func(e Event) []ActivityID { return e.Out })
	backward := n.reach(n.end, func(a Activity) EventID { return a.Tail }, func(e Event) []ActivityID { return e.In })
	for _, e := range n.events {
		if !forward[e.ID] {
			return invalid("event e%d is not reachable from the start event", e.ID)
		}
		if !backward[e.ID] {
			return invalid("end event is not reachable from e%d", e.ID)
		}
	}
	return nil
}

func (n *Network) reach(from EventID, other func(Activity) EventID, arcs func(Event) []ActivityID) map[EventID]bool {
	seen := map[EventID]bool{from: true}
	stack := []EventID{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, aid := range arcs(n.events[cur]) {
			next := other(n.activities[aid])
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return seen
}

// DetectCycle returns the cycle if one exists, or nil if the network is
// acyclic. The walk starts at the start event and then covers any event it
// did not reach, so cycles cut off from the start are found too.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (n *Network) DetectCycle() *CycleError {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(n.events))
	parent := make([]ActivityID, len(n.events))

	var dfs func(node EventID) *CycleError
	dfs = func(node EventID) *CycleError {
		color[node] = gray
		for _, aid := range n.events[node].Out {
			next := n.activities[aid].Head
			if color[next] == gray {
				// back edge aid closes next -> ... -> node -> next
				arcs := []ActivityID{aid}
				for cur := node; cur != next; {
					in := parent[cur]
					arcs = append(arcs, in)
					cur = n.activities[in].Tail
				}
				return n.cycleFromArcs(arcs)
			}
			if color[next] == white {
				parent[next] = aid
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	if n.hasEvent(n.start) {
		if cycle := dfs(n.start); cycle != nil {
			return cycle
		}
	}
	for id := range n.events {
		if color[id] == white {
			if cycle := dfs(EventID(id)); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// cycleFromArcs turns arcs collected back to front into a CycleError in
// forward order.
func (n *Network) cycleFromArcs(arcs []ActivityID) *CycleError {
	for i, j := 0, len(arcs)-1; i < j; i, j = i+1, j-1 {
		arcs[i], arcs[j] = arcs[j], arcs[i]
	}
	c := &CycleError{Events: []EventID{n.activities[arcs[0]].Tail}}
	for _, aid := range arcs {
		a := n.activities[aid]
		c.Events = append(c.Events, a.Head)
		if !a.Dummy {
			c.Tasks = append(c.Tasks, a.Name)
		}
	}
	return c
}
