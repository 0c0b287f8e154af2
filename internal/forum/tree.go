package forum

import (
	"sort"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// MaxReplyDepth is the deepest level (0 = top-level) that still offers a
// reply affordance. Deeper comments exist and render; they just can't be
// replied to from the thread view.
const MaxReplyDepth = 6

// Node is one comment placed in a thread.
type Node struct {
	Comment  models.Comment
	Depth    int
	CanReply bool
	// Orphan marks a comment whose parent is not in the set and was
	// promoted to top level.
	Orphan  bool
	Replies []*Node

	order int
}

// BuildTree turns the flat, creation-ordered comments of one post into a
// forest. Every input comment appears exactly once. Siblings keep input
// order. Comments whose parent is missing, themselves, or part of a parent
// cycle are promoted to top level rather than dropped.
func BuildTree(comments []models.Comment) []*Node {
	nodes := make([]*Node, len(comments))
	byID := make(map[int]*Node, len(comments))
	for i := range comments {
		n := &Node{Comment: comments[i], order: i}
		nodes[i] = n
		if _, dup := byID[n.Comment.ID]; !dup {
			byID[n.Comment.ID] = n
		}
	}

	roots := make([]*Node, 0)
	parentOf := make(map[*Node]*Node, len(nodes))
	for _, n := range nodes {
		pid := n.Comment.ParentCommentID
		if pid == nil {
			roots = append(roots, n)
			continue
		}
		parent, ok := byID[*pid]
		if !ok || parent == n {
			n.Orphan = true
			roots = append(roots, n)
			continue
		}
		parent.Replies = append(parent.Replies, n)
		parentOf[n] = parent
	}

	placed := make(map[*Node]bool, len(nodes))
	var place func(n *Node, depth int)
	place = func(n *Node, depth int) {
		placed[n] = true
		n.Depth = depth
		n.CanReply = depth < MaxReplyDepth
		for _, r := range n.Replies {
			place(r, depth+1)
		}
	}
	for _, r := range roots {
		place(r, 0)
	}

	// Anything still unplaced hangs off a parent cycle. Cut the cycle at its
	// earliest comment.
	for _, n := range nodes {
		if placed[n] {
			continue
		}
		detach(parentOf[n], n)
		n.Orphan = true
		roots = append(roots, n)
		place(n, 0)
	}

	sort.SliceStable(roots, func(i, j int) bool { return roots[i].order < roots[j].order })
	return roots
}

func detach(parent, child *Node) {
	if parent == nil {
		return
	}
	for i, r := range parent.Replies {
		if r == child {
			parent.Replies = append(parent.Replies[:i], parent.Replies[i+1:]...)
			return
		}
	}
}

// flatten returns the forest in render order (pre-order, siblings in order).
func flatten(forest []*Node) []*Node {
	var out []*Node
	var walk func(ns []*Node)
	walk = func(ns []*Node) {
		for _, n := range ns {
			out = append(out, n)
			walk(n.Replies)
		}
	}
	walk(forest)
	return out
}

// Count returns the number of nodes in the forest.
func Count(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + Count(n.Replies)
	}
	return total
}
