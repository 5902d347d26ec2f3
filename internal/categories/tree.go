package categories

import (
	"sort"

	"github.com/google/uuid"

	"github.com/aquaticpose/aquaticpose-backend/pkg/db/models"
	pkgerrors "github.com/aquaticpose/aquaticpose-backend/pkg/errors"
)

// maxTreeDepth caps traversal so a corrupt parent graph cannot recurse
// unbounded. Real catalogs sit well below this.
const maxTreeDepth = 32

// TreeNode is one category with its ordered children.
type TreeNode struct {
	Category models.Category
	Children []*TreeNode
}

// BuildTree assembles the category forest (or the subtree rooted at rootID)
// from a flat listing. Nodes whose parent is missing are treated as roots.
// A parent cycle is reported as a corrupt-hierarchy conflict instead of
// looping.
func BuildTree(flat []models.Category, rootID *uuid.UUID) ([]*TreeNode, error) {
	byID := make(map[uuid.UUID]models.Category, len(flat))
	childIDs := make(map[uuid.UUID][]uuid.UUID, len(flat))
	for _, cat := range flat {
		byID[cat.ID] = cat
	}

	var rootIDs []uuid.UUID
	for _, cat := range flat {
		if cat.ParentID == nil {
			rootIDs = append(rootIDs, cat.ID)
			continue
		}
		if _, ok := byID[*cat.ParentID]; !ok {
			// Dangling parent reference: surface the node as a root so it
			// is not silently dropped from the forest.
			rootIDs = append(rootIDs, cat.ID)
			continue
		}
		childIDs[*cat.ParentID] = append(childIDs[*cat.ParentID], cat.ID)
	}

	visited := make(map[uuid.UUID]bool, len(flat))

	var build func(id uuid.UUID, depth int) (*TreeNode, error)
	build = func(id uuid.UUID, depth int) (*TreeNode, error) {
		if depth > maxTreeDepth {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy exceeds maximum depth")
		}
		if visited[id] {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category hierarchy contains a cycle")
		}
		visited[id] = true

		node := &TreeNode{Category: byID[id]}
		for _, childID := range childIDs[id] {
			child, err := build(childID, depth+1)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		}
		sortSiblings(node.Children)
		return node, nil
	}

	if rootID != nil {
		if _, ok := byID[*rootID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		root, err := build(*rootID, 0)
		if err != nil {
			return nil, err
		}
		return []*TreeNode{root}, nil
	}

	forest := make([]*TreeNode, 0, len(rootIDs))
	for _, id := range rootIDs {
		node, err := build(id, 0)
		if err != nil {
			return nil, err
		}
		forest = append(forest, node)
	}
	sortSiblings(forest)
	return forest, nil
}

// Flatten walks the forest depth-first and returns every category in order.
func Flatten(forest []*TreeNode) []models.Category {
	var out []models.Category
	var walk func(node *TreeNode)
	walk = func(node *TreeNode) {
		out = append(out, node.Category)
		for _, child := range node.Children {
			walk(child)
		}
	}
	for _, node := range forest {
		walk(node)
	}
	return out
}

// Siblings order by display order, then creation time, then id for stability.
func sortSiblings(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Category, nodes[j].Category
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
