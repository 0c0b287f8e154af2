package forum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

func intPtr(v int) *int { return &v }

func TestValidateVote(t *testing.T) {
	assert.NoError(t, ValidateVote(1))
	assert.NoError(t, ValidateVote(-1))
	for _, v := range []int{0, 2, -2, 100} {
		err := ValidateVote(v)
		require.Error(t, err)
		assert.True(t, models.IsKind(err, models.KindValidation))
	}
}

func TestDecide(t *testing.T) {
	assert.Equal(t, VoteCreated, Decide(nil, Upvote))
	assert.Equal(t, VoteRemoved, Decide(intPtr(Upvote), Upvote))
	assert.Equal(t, VoteRemoved, Decide(intPtr(Downvote), Downvote))
	assert.Equal(t, VoteFlipped, Decide(intPtr(Upvote), Downvote))
	assert.Equal(t, VoteFlipped, Decide(intPtr(Downvote), Upvote))
}

func TestApplyVote_CreateToggleFlip(t *testing.T) {
	var votes []Vote

	votes, action, err := ApplyVote(votes, 1, Upvote)
	require.NoError(t, err)
	assert.Equal(t, VoteCreated, action)
	assert.Equal(t, 1, NetScore(votes))

	votes, action, err = ApplyVote(votes, 1, Upvote)
	require.NoError(t, err)
	assert.Equal(t, VoteRemoved, action)
	assert.Empty(t, votes)
	assert.Equal(t, 0, NetScore(votes))

	votes, action, err = ApplyVote(votes, 1, Downvote)
	require.NoError(t, err)
	assert.Equal(t, VoteCreated, action)
	assert.Equal(t, -1, NetScore(votes))

	votes, action, err = ApplyVote(votes, 1, Upvote)
	require.NoError(t, err)
	assert.Equal(t, VoteFlipped, action)
	require.Len(t, votes, 1)
	assert.Equal(t, Upvote, votes[0].Value)
}

func TestApplyVote_RejectsInvalidValue(t *testing.T) {
	before := []Vote{{UserID: 1, Value: 1}}
	after, _, err := ApplyVote(before, 2, 0)
	require.Error(t, err)
	assert.Nil(t, after)
	assert.Len(t, before, 1)
}

func TestApplyVote_DoesNotMutateInput(t *testing.T) {
	before := []Vote{{UserID: 1, Value: 1}, {UserID: 2, Value: -1}}
	_, _, err := ApplyVote(before, 1, Downvote)
	require.NoError(t, err)
	assert.Equal(t, 1, before[0].Value)
}

// Replays deterministic vote sequences across several users and checks the
// score always equals the sum of what is present, with at most one vote per user.
func TestApplyVote_SequenceInvariants(t *testing.T) {
	sequence := []struct{ user, value int }{
		{1, 1}, {2, 1}, {3, -1}, {1, 1}, {2, -1}, {3, -1}, {1, -1}, {4, 1}, {2, -1}, {4, 1}, {4, -1},
	}
	var votes []Vote
	want := map[int]int{}
	for _, step := range sequence {
		var err error
		votes, _, err = ApplyVote(votes, step.user, step.value)
		require.NoError(t, err)

		switch want[step.user] {
		case 0:
			want[step.user] = step.value
		case step.value:
			delete(want, step.user)
		default:
			want[step.user] = step.value
		}

		seen := map[int]bool{}
		sum := 0
		for _, v := range votes {
			assert.False(t, seen[v.UserID], "duplicate vote for user %d", v.UserID)
			seen[v.UserID] = true
			assert.Equal(t, want[v.UserID], v.Value)
			sum += v.Value
		}
		assert.Len(t, votes, len(want))
		assert.Equal(t, sum, NetScore(votes))
	}
}

func TestOwnVote(t *testing.T) {
	votes := []models.CommentVote{{UserID: 1, Value: 1}, {UserID: 2, Value: -1}}
	assert.Equal(t, 1, OwnVote(votes, 1))
	assert.Equal(t, -1, OwnVote(votes, 2))
	assert.Equal(t, 0, OwnVote(votes, 3))
	assert.Equal(t, 0, OwnVote(votes, 0))
	assert.Equal(t, 0, NetScore(votes))
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "created", VoteCreated.String())
	assert.Equal(t, "removed", VoteRemoved.String())
	assert.Equal(t, "flipped", VoteFlipped.String())
	assert.Equal(t, "unknown", Action(0).String())
}
