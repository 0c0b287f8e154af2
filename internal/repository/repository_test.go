package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/forum"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/testutil"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func seedPost(t *testing.T, db *gorm.DB, author int, title string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: "body", AuthorID: author, CreatedAt: at}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func seedComment(t *testing.T, db *gorm.DB, post, author int, parent *int, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{Content: "c", PostID: post, AuthorID: author, ParentCommentID: parent, CreatedAt: at}
	require.NoError(t, NewCommentRepository(db).Create(context.Background(), c))
	return c
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "  Alice@Example.com ")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotZero(t, u.ID)

	err := repo.Create(ctx, &models.User{Email: "alice@example.com", PasswordHash: "y"})
	require.Error(t, err)
	assert.True(t, models.IsKind(err, models.KindValidation))
	assert.Equal(t, "Email is already registered", err.Error())

	found, err := repo.FindByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	found, err = repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", found.Email)

	_, err = repo.FindByID(ctx, 999)
	assert.True(t, models.IsKind(err, models.KindNotFound))
	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestPostRepository_ListAllAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "a@example.com")
	p1 := seedPost(t, db, u.ID, "first", t0)
	p2 := seedPost(t, db, u.ID, "second", t0.Add(time.Hour))
	c := seedComment(t, db, p1.ID, u.ID, nil, t0)
	seedComment(t, db, p1.ID, u.ID, &c.ID, t0.Add(time.Minute))

	posts, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, p2.ID, posts[0].ID)
	assert.Equal(t, 0, posts[0].CommentCount)
	assert.Equal(t, p1.ID, posts[1].ID)
	assert.Equal(t, 2, posts[1].CommentCount)
	assert.Equal(t, "a@example.com", posts[1].Author.Email)

	got, err := repo.GetByID(ctx, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
	assert.Equal(t, 2, got.CommentCount)
	assert.Equal(t, u.ID, got.Author.ID)

	ok, err := repo.Exists(ctx, p2.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, 12345)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetByID(ctx, 12345)
	require.Error(t, err)
	assert.Equal(t, "Post not found", err.Error())
}

func TestPostRepository_ListAllEmpty(t *testing.T) {
	posts, err := NewPostRepository(testutil.NewDB(t)).ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestCommentRepository_ListByPost(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "a@example.com")
	p := seedPost(t, db, u.ID, "post", t0)
	other := seedPost(t, db, u.ID, "other", t0)
	late := seedComment(t, db, p.ID, u.ID, nil, t0.Add(2*time.Minute))
	early := seedComment(t, db, p.ID, u.ID, nil, t0.Add(time.Minute))
	seedComment(t, db, other.ID, u.ID, nil, t0)

	comments, err := repo.ListByPost(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, early.ID, comments[0].ID)
	assert.Equal(t, late.ID, comments[1].ID)

	got, err := repo.GetByID(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.PostID)

	_, err = repo.GetByID(ctx, 999)
	assert.True(t, models.IsKind(err, models.KindNotFound))
}

func TestVoteRepository_PostTransitions(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")
	p := seedPost(t, db, alice.ID, "post", t0)

	steps := []struct {
		name   string
		user   int
		value  int
		action forum.Action
		score  int
		count  int
	}{
		{"alice upvotes", alice.ID, 1, forum.VoteCreated, 1, 1},
		{"bob downvotes", bob.ID, -1, forum.VoteCreated, 0, 2},
		{"alice repeats to remove", alice.ID, 1, forum.VoteRemoved, -1, 1},
		{"bob flips", bob.ID, 1, forum.VoteFlipped, 1, 1},
		{"alice downvotes", alice.ID, -1, forum.VoteCreated, 0, 2},
	}
	for _, s := range steps {
		action, votes, err := repo.VotePost(ctx, p.ID, s.user, s.value)
		require.NoError(t, err, s.name)
		assert.Equal(t, s.action, action, s.name)
		assert.Equal(t, s.score, forum.NetScore(votes), s.name)
		assert.Len(t, votes, s.count, s.name)
	}

	var rows int64
	require.NoError(t, db.Model(&models.PostVote{}).Where("post_id = ? AND user_id = ?", p.ID, bob.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestVoteRepository_Errors(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "a@example.com")
	p := seedPost(t, db, u.ID, "post", t0)

	_, _, err := repo.VotePost(ctx, p.ID, u.ID, 2)
	assert.True(t, models.IsKind(err, models.KindValidation))

	_, _, err = repo.VotePost(ctx, 999, u.ID, 1)
	assert.True(t, models.IsKind(err, models.KindNotFound))

	_, _, err = repo.VoteComment(ctx, 999, u.ID, 1)
	require.Error(t, err)
	assert.Equal(t, "Comment not found", err.Error())

	var n int64
	require.NoError(t, db.Model(&models.PostVote{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestVoteRepository_Comment(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "a@example.com")
	p := seedPost(t, db, u.ID, "post", t0)
	c := seedComment(t, db, p.ID, u.ID, nil, t0)

	action, votes, err := repo.VoteComment(ctx, c.ID, u.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, forum.VoteCreated, action)
	assert.Equal(t, -1, forum.NetScore(votes))
	assert.Equal(t, -1, forum.OwnVote(votes, u.ID))

	action, votes, err = repo.VoteComment(ctx, c.ID, u.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, forum.VoteRemoved, action)
	assert.Empty(t, votes)
}

func TestSessionRepository(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "a@example.com")
	s := &models.Session{Token: "abc", UserID: u.ID, ExpiresAt: t0.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.Lookup(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(t0.Add(time.Hour)))

	missing, err := repo.Lookup(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, "abc"))
	require.NoError(t, repo.Delete(ctx, "abc"))
	got, err = repo.Lookup(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// setupMockDB creates a GORM *gorm.DB backed by sqlmock using the postgres
// dialect.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestUserRepository_FindByEmail_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
		AddRow(7, "alice@example.com", "digest", t0)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WillReturnRows(rows)

	u, err := NewUserRepository(db).FindByEmail(context.Background(), "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, "digest", u.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "sessions" WHERE token = $1`)).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewSessionRepository(db).Delete(context.Background(), "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
