// Package bfs computes breadth-first distances, in parallel, into a shared
// buffer that workers write without locks.
//
// Each node is claimed by exactly one worker through an atomic visited
// flag, so every index of the distance buffer is written once per run by a
// single goroutine: the value tier contract of package par holds without
// any synchronization on the buffer itself.
package bfs

import "fmt"

// Graph is a directed graph over nodes 0..NumNodes()-1.
//
// Successors must return valid node indices and must be safe for
// concurrent calls. Callers must not modify the returned slice.
type Graph interface {
	NumNodes() int
	Successors(node int) []int
}

// Tree is a complete binary tree. Node i has children 2i+1 and 2i+2, so
// the nodes at depth d are exactly 2^d-1 .. 2^(d+1)-2.
type Tree struct {
	nodes    int
	children []int
}

// NewTree returns a complete binary tree with the given number of levels.
// A single level is just the root.
func NewTree(levels int) (*Tree, error) {
	if levels < 1 || levels > 30 {
		return nil, fmt.Errorf("bfs: tree levels %d out of range [1, 30]", levels)
	}
	nodes := 1<<levels - 1
	internal := nodes / 2

	children := make([]int, 2*internal)
	for i := range children {
		children[i] = i + 1
	}
	return &Tree{nodes: nodes, children: children}, nil
}

// NumNodes returns 2^levels - 1.
func (t *Tree) NumNodes() int {
	return t.nodes
}

// Successors returns the children of node, empty for leaves.
func (t *Tree) Successors(node int) []int {
	if 2*node+2 > len(t.children) {
		return nil
	}
	return t.children[2*node : 2*node+2 : 2*node+2]
}

// AdjList is a graph given by its successor lists.
type AdjList [][]int

// NumNodes returns len(a).
func (a AdjList) NumNodes() int {
	return len(a)
}

// Successors returns a[node].
func (a AdjList) Successors(node int) []int {
	return a[node]
}
