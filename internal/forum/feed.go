package forum

import (
	"sort"
	"strings"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

// Sort is a feed ordering policy.
type Sort string

const (
	SortHot Sort = "hot"
	SortNew Sort = "new"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ParseSort maps a query value onto a policy; anything unknown is hot.
func ParseSort(s string) Sort {
	if Sort(strings.ToLower(strings.TrimSpace(s))) == SortNew {
		return SortNew
	}
	return SortHot
}

// Page is one slice of a ranked feed.
type Page struct {
	Posts      []models.Post
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

// Rank orders posts by policy and returns the requested 1-indexed page.
//
// The whole collection is scored and sorted before slicing, so callers must
// hand in every candidate post. That is fine for a small forum and does not
// scale; a large feed needs the ordering pushed into the query.
func Rank(posts []models.Post, policy Sort, page, pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	ranked := make([]models.Post, len(posts))
	copy(ranked, posts)

	switch policy {
	case SortNew:
		sort.SliceStable(ranked, func(i, j int) bool { return newer(ranked[i], ranked[j]) })
	default:
		scores := make(map[int]int, len(ranked))
		for _, p := range ranked {
			scores[p.ID] = NetScore(p.Votes)
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			si, sj := scores[ranked[i].ID], scores[ranked[j].ID]
			if si != sj {
				return si > sj
			}
			return newer(ranked[i], ranked[j])
		})
	}

	total := len(ranked)
	result := Page{
		Posts:      []models.Post{},
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	if page < 1 || page > result.TotalPages {
		return result
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	result.Posts = ranked[start:end]
	return result
}

func newer(a, b models.Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
