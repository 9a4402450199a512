package graph

import "sort"

// CycleGroups returns the strongly connected components with more than one
// member, plus single documents that reference themselves. The traversal is
// iterative (explicit stack), so arbitrarily deep cycles terminate.
func (g *Graph) CycleGroups() [][]string {
	index := 0
	indices := make(map[string]int)
	lowlinks := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var groups [][]string

	type frame struct {
		node string
		next int
	}

	var visit func(root string)
	visit = func(root string) {
		frames := []frame{{node: root}}
		indices[root] = index
		lowlinks[root] = index
		index++
		stack = append(stack, root)
		onStack[root] = true

		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			targets := g.Adjacency[f.node]

			if f.next < len(targets) {
				child := targets[f.next]
				f.next++
				if _, seen := indices[child]; !seen {
					indices[child] = index
					lowlinks[child] = index
					index++
					stack = append(stack, child)
					onStack[child] = true
					frames = append(frames, frame{node: child})
				} else if onStack[child] {
					if indices[child] < lowlinks[f.node] {
						lowlinks[f.node] = indices[child]
					}
				}
				continue
			}

			// node finished: pop SCC if it is a root
			if lowlinks[f.node] == indices[f.node] {
				var group []string
				for {
					top := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[top] = false
					group = append(group, top)
					if top == f.node {
						break
					}
				}
				if len(group) > 1 || g.selfReferencing(f.node) {
					sort.Strings(group)
					groups = append(groups, group)
				}
			}

			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				parent := &frames[len(frames)-1]
				if lowlinks[f.node] < lowlinks[parent.node] {
					lowlinks[parent.node] = lowlinks[f.node]
				}
			}
		}
	}

	for _, node := range g.Files() {
		if _, seen := indices[node]; !seen {
			visit(node)
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})
	return groups
}

func (g *Graph) selfReferencing(node string) bool {
	for _, target := range g.Adjacency[node] {
		if target == node {
			return true
		}
	}
	return false
}
