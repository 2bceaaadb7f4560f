/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package imports

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCircularImport is returned when sorting a graph with a cycle.
var ErrCircularImport = errors.New("circular import")

// Graph is a directed graph of files and the files they import.
type Graph struct {
	dependencies map[string][]string
	dependents   map[string][]string
	nodes        map[string]bool
}

// BuildGraph builds a dependency graph from collected files. Only
// imports that resolved to a file become edges.
func BuildGraph(files []*File) *Graph {
	graph := &Graph{
		dependencies: make(map[string][]string),
		dependents:   make(map[string][]string),
		nodes:        make(map[string]bool),
	}

	for _, f := range files {
		graph.nodes[f.Path] = true
	}

	for _, f := range files {
		for _, dep := range f.Dependencies() {
			graph.nodes[dep] = true
			if slices.Contains(graph.dependencies[f.Path], dep) {
				continue
			}
			graph.dependencies[f.Path] = append(graph.dependencies[f.Path], dep)
			graph.dependents[dep] = append(graph.dependents[dep], f.Path)
		}
	}

	return graph
}

// Nodes returns every file in the graph, sorted.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.nodes))
	for n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	return nodes
}

// Dependencies returns the files that the given file imports.
func (g *Graph) Dependencies(file string) []string {
	if deps, ok := g.dependencies[file]; ok {
		return deps
	}
	return []string{}
}

// Dependents returns the files that import the given file.
func (g *Graph) Dependents(file string) []string {
	if deps, ok := g.dependents[file]; ok {
		return deps
	}
	return []string{}
}

// HasCycle returns true if the graph contains a circular import.
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns the cycle path if one exists, or nil if no cycle.
// The first and last elements are the same file.
func (g *Graph) FindCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := []string{}

	for _, node := range g.Nodes() {
		if cycle := g.findCycleDFS(node, visited, recStack, path); cycle != nil {
			return cycle
		}
	}
	return nil
}

func (g *Graph) findCycleDFS(node string, visited, recStack map[string]bool, path []string) []string {
	if recStack[node] {
		cycleStart := slices.Index(path, node)
		if cycleStart == -1 {
			panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
		}
		return append(slices.Clone(path[cycleStart:]), node)
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.dependencies[node] {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}

// TopologicalSort returns files in dependency order (dependencies first).
// Returns error if graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, fmt.Errorf("%w: %v", ErrCircularImport, cycle)
	}

	visited := make(map[string]bool)
	result := []string{}

	for _, node := range g.Nodes() {
		if !visited[node] {
			g.topologicalSortDFS(node, visited, &result)
		}
	}

	return result, nil
}

func (g *Graph) topologicalSortDFS(node string, visited map[string]bool, stack *[]string) {
	visited[node] = true

	for _, dep := range g.dependencies[node] {
		if !visited[dep] {
			g.topologicalSortDFS(dep, visited, stack)
		}
	}

	*stack = append(*stack, node)
}
