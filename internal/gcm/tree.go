package gcm

import (
	"fmt"

	gcmtypes "github.com/ossyrian/gcmtool/internal/types"
)

// BuildTree turns the flat, pre-order directory table into a tree.
// A directory with id i owns the ids in (i, NextID); every next id is
// checked against the enclosing scope so a corrupt table fails with
// ErrMalformedTable instead of running off the end.
func BuildTree(entries []DirectoryEntry) (*gcmtypes.DirNode, error) {
	root := &gcmtypes.DirNode{ID: 0}

	end := len(entries) + 1
	children, next, err := buildDir(entries, 1, end)
	if err != nil {
		return nil, err
	}
	if next != end {
		return nil, fmt.Errorf("%w: stopped at id %d of %d", ErrMalformedTable, next, end)
	}
	root.Children = children
	return root, nil
}

// buildDir decodes the entries with ids in [start, end) and returns them
// as nodes together with the first id it did not consume.
func buildDir(entries []DirectoryEntry, start, end int) ([]gcmtypes.Node, int, error) {
	var nodes []gcmtypes.Node

	id := start
	for id < end {
		e := &entries[id-1]

		if !e.IsDirectory() {
			nodes = append(nodes, &gcmtypes.FileNode{Name: e.Name, ID: id})
			id++
			continue
		}

		next := int(e.NextID())
		if next <= id || next > end {
			return nil, 0, fmt.Errorf("%w: directory %q (id %d) has next id %d outside (%d, %d]",
				ErrMalformedTable, e.Name, id, next, id, end)
		}

		children, consumed, err := buildDir(entries, id+1, next)
		if err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, &gcmtypes.DirNode{Name: e.Name, ID: id, Children: children})
		id = consumed
	}

	return nodes, id, nil
}
