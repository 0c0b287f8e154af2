package handlers

import (
	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

// postView is a post as clients see it: author summary, net score and the
// caller's own vote (0 when anonymous or not voted).
type postView struct {
	models.Post
	Author   models.UserSummary `json:"author"`
	Score    int                `json:"score"`
	UserVote int                `json:"userVote"`
}

func newPostView(p models.Post, viewer int) postView {
	if p.Votes == nil {
		p.Votes = []models.PostVote{}
	}
	return postView{
		Post:     p,
		Author:   p.Author.Summary(),
		Score:    forum.NetScore(p.Votes),
		UserVote: forum.OwnVote(p.Votes, viewer),
	}
}

type commentView struct {
	models.Comment
	Author   models.UserSummary `json:"author"`
	Score    int                `json:"score"`
	UserVote int                `json:"userVote"`
}

func newCommentView(c models.Comment, viewer int) commentView {
	if c.Votes == nil {
		c.Votes = []models.CommentVote{}
	}
	return commentView{
		Comment:  c,
		Author:   c.Author.Summary(),
		Score:    forum.NetScore(c.Votes),
		UserVote: forum.OwnVote(c.Votes, viewer),
	}
}

type commentNodeView struct {
	commentView
	Depth    int               `json:"depth"`
	CanReply bool              `json:"canReply"`
	Orphan   bool              `json:"orphan,omitempty"`
	Replies  []commentNodeView `json:"replies"`
}

func newThreadView(forest []*forum.Node, viewer int) []commentNodeView {
	out := make([]commentNodeView, 0, len(forest))
	for _, n := range forest {
		out = append(out, commentNodeView{
			commentView: newCommentView(n.Comment, viewer),
			Depth:       n.Depth,
			CanReply:    n.CanReply,
			Orphan:      n.Orphan,
			Replies:     newThreadView(n.Replies, viewer),
		})
	}
	return out
}
