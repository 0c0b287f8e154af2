// Package forum holds the pure discussion logic: vote transitions and
// scoring, comment threading, and feed ordering. Nothing here touches the
// store; callers load records, hand them in, and persist the outcome.
package forum

import "github.com/emilythestrangee/forum/backend/internal/models"

const (
	Upvote   = 1
	Downvote = -1
)

// Ballot is a single recorded vote, whatever its target.
type Ballot interface {
	VoterID() int
	VoteValue() int
}

// Action is the effect a vote request has on the caller's vote row.
type Action int

const (
	VoteCreated Action = iota + 1
	VoteRemoved
	VoteFlipped
)

func (a Action) String() string {
	switch a {
	case VoteCreated:
		return "created"
	case VoteRemoved:
		return "removed"
	case VoteFlipped:
		return "flipped"
	default:
		return "unknown"
	}
}

// ValidateVote accepts exactly +1 and -1.
func ValidateVote(value int) error {
	if value != Upvote && value != Downvote {
		return models.NewValidationError("Vote value must be 1 (like) or -1 (dislike)")
	}
	return nil
}

// Decide returns the transition for a vote of value given the caller's
// current vote (nil when there is none).
func Decide(current *int, value int) Action {
	switch {
	case current == nil:
		return VoteCreated
	case *current == value:
		return VoteRemoved
	default:
		return VoteFlipped
	}
}

// NetScore is the sum of all vote values. It is always derived from the full
// set so it cannot drift from the rows it summarises.
func NetScore[B Ballot](votes []B) int {
	score := 0
	for _, v := range votes {
		score += v.VoteValue()
	}
	return score
}

// OwnVote returns userID's vote value in votes, or 0 if the user has not
// voted (or is anonymous, userID 0).
func OwnVote[B Ballot](votes []B, userID int) int {
	if userID == 0 {
		return 0
	}
	for _, v := range votes {
		if v.VoterID() == userID {
			return v.VoteValue()
		}
	}
	return 0
}

// Vote is an in-memory ballot used when applying transitions without a store.
type Vote struct {
	UserID int `json:"userId"`
	Value  int `json:"value"`
}

func (v Vote) VoterID() int   { return v.UserID }
func (v Vote) VoteValue() int { return v.Value }

// ApplyVote applies one vote by userID to a target's vote set and returns the
// new set. Exactly one entry is added, changed or removed; the input slice is
// not modified.
func ApplyVote(votes []Vote, userID, value int) ([]Vote, Action, error) {
	if err := ValidateVote(value); err != nil {
		return nil, 0, err
	}

	idx := -1
	var current *int
	for i := range votes {
		if votes[i].UserID == userID {
			idx = i
			current = &votes[i].Value
			break
		}
	}

	action := Decide(current, value)
	out := make([]Vote, 0, len(votes)+1)
	switch action {
	case VoteCreated:
		out = append(out, votes...)
		out = append(out, Vote{UserID: userID, Value: value})
	case VoteRemoved:
		out = append(out, votes[:idx]...)
		out = append(out, votes[idx+1:]...)
	case VoteFlipped:
		out = append(out, votes...)
		out[idx].Value = value
	}
	return out, action, nil
}
