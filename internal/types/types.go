package gcmtypes

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Find when no node matches a path.
var ErrNotFound = errors.New("no such file or directory")

// Node is a node of the decoded filesystem tree: either a *DirNode or a *FileNode.
// Nodes refer to directory table entries by id; they never copy entry data.
type Node interface {
	GetName() string
	GetKind() NodeKind
	GetID() int
}

// NodeKind tells directories and files apart.
type NodeKind int

const (
	KindDirectory NodeKind = iota
	KindFile
)

func (k NodeKind) String() string {
	switch k {
	case KindDirectory:
		return "Directory"
	case KindFile:
		return "File"
	default:
		return "Unknown"
	}
}

// DirNode is a directory and its children in table order.
// The root has ID 0 and an empty name.
type DirNode struct {
	Name     string
	ID       int
	Children []Node
}

func (n *DirNode) GetName() string   { return n.Name }
func (n *DirNode) GetKind() NodeKind { return KindDirectory }
func (n *DirNode) GetID() int        { return n.ID }

// Child returns the direct child called name.
func (n *DirNode) Child(name string) (Node, bool) {
	for _, c := range n.Children {
		if c.GetName() == name {
			return c, true
		}
	}
	return nil, false
}

// FileNode is a leaf referring to a file entry.
type FileNode struct {
	Name string
	ID   int
}

func (n *FileNode) GetName() string   { return n.Name }
func (n *FileNode) GetKind() NodeKind { return KindFile }
func (n *FileNode) GetID() int        { return n.ID }

// Find resolves a slash separated path such as "/audio/bgm.adp" from root.
// "", "." and "/" return root itself.
func Find(root *DirNode, p string) (Node, error) {
	clean := strings.Trim(path.Clean("/"+p), "/")
	if clean == "" {
		return root, nil
	}

	var cur Node = root
	for _, part := range strings.Split(clean, "/") {
		dir, ok := cur.(*DirNode)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, cur.GetName())
		}
		next, ok := dir.Child(part)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		cur = next
	}
	return cur, nil
}

// WalkFunc is called for every node visited by Walk. p is the node's
// slash separated path from the root ("/" for the root itself).
type WalkFunc func(p string, n Node) error

// Walk visits n and its descendants in pre-order, which matches the order
// of the directory table.
func Walk(n Node, fn WalkFunc) error {
	return walk("/", n, fn)
}

func walk(p string, n Node, fn WalkFunc) error {
	if err := fn(p, n); err != nil {
		return err
	}
	dir, ok := n.(*DirNode)
	if !ok {
		return nil
	}
	for _, c := range dir.Children {
		if err := walk(path.Join(p, c.GetName()), c, fn); err != nil {
			return err
		}
	}
	return nil
}
