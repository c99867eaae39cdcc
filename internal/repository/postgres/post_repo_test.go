package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ne3mer/retro/internal/repository"
	"github.com/ne3mer/retro/internal/repository/postgres"
	"github.com/ne3mer/retro/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_GetByID(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	t.Run("preloads the author", func(t *testing.T) {
		author, _ := testutil.NewUserBuilder().WithUsername("post_author").Build(t, testDB.DB)
		created := testutil.NewPostBuilder().WithAuthor(author).Build(t, testDB.DB)

		post, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, post.Author)
		assert.Equal(t, "post_author", post.Author.Username)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestPostRepository_List(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	for i := 0; i < 3; i++ {
		testutil.NewPostBuilder().
			WithAuthor(author).
			WithCategory("reviews").
			WithTags([]string{"noir"}).
			Build(t, testDB.DB)
		// created_at ordering needs distinct timestamps
		time.Sleep(5 * time.Millisecond)
	}
	newest := testutil.NewPostBuilder().
		WithAuthor(author).
		WithTitle("Midnight screening notes").
		WithCategory("news").
		WithTags([]string{"festival"}).
		Build(t, testDB.DB)

	t.Run("newest first with total count", func(t *testing.T) {
		posts, total, err := repo.List(ctx, repository.PostFilter{Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, posts, 4)
		assert.Equal(t, newest.ID, posts[0].ID)
	})

	t.Run("pagination offsets", func(t *testing.T) {
		posts, total, err := repo.List(ctx, repository.PostFilter{Page: 2, Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, posts, 1)
	})

	t.Run("category filter", func(t *testing.T) {
		posts, total, err := repo.List(ctx, repository.PostFilter{Category: "reviews", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, posts, 3)
	})

	t.Run("tag filter matches whole tags only", func(t *testing.T) {
		posts, total, err := repo.List(ctx, repository.PostFilter{Tag: "festival", Page: 1, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, posts, 1)
		assert.Equal(t, newest.ID, posts[0].ID)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		posts, _, err := repo.List(ctx, repository.PostFilter{Search: "MIDNIGHT", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, newest.ID, posts[0].ID)
	})
}

func TestPostRepository_ListByAuthor(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	author, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	testutil.NewPostBuilder().WithAuthor(author).Build(t, testDB.DB)
	testutil.NewPostBuilder().WithAuthor(author).Build(t, testDB.DB)
	testutil.NewPostBuilder().WithAuthor(other).Build(t, testDB.DB)

	posts, err := repo.ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Equal(t, author.ID, p.AuthorID)
	}
}

func TestPostRepository_UpdateAndDelete(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewPostRepository(testDB.DB)
	ctx := context.Background()

	post := testutil.NewPostBuilder().WithTitle("before").Build(t, testDB.DB)

	post.Title = "after"
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
