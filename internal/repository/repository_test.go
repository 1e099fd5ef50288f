package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB("sqlite", ":memory:", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

type fixture struct {
	repos  *Repositories
	alice  *model.User
	bob    *model.User
	movie  *model.Category
	drama  *model.Genre
	comedy *model.Genre
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := NewRepositories(setupTestDB(t))

	f := &fixture{
		repos:  repos,
		alice:  &model.User{Username: "alice", Email: "alice@example.com"},
		bob:    &model.User{Username: "bob", Email: "bob@example.com"},
		movie:  &model.Category{Taxon: model.Taxon{Name: "Movie", Slug: "movie"}},
		drama:  &model.Genre{Taxon: model.Taxon{Name: "Drama", Slug: "drama"}},
		comedy: &model.Genre{Taxon: model.Taxon{Name: "Comedy", Slug: "comedy"}},
	}
	require.NoError(t, repos.User.Create(ctx, f.alice))
	require.NoError(t, repos.User.Create(ctx, f.bob))
	require.NoError(t, repos.Category.Create(ctx, f.movie))
	require.NoError(t, repos.Genre.Create(ctx, f.drama))
	require.NoError(t, repos.Genre.Create(ctx, f.comedy))
	return f
}

func (f *fixture) title(t *testing.T, name string, year int, genres ...model.Genre) *model.Title {
	t.Helper()
	title := &model.Title{Name: name, Year: year, CategoryID: &f.movie.ID, Genres: genres}
	require.NoError(t, f.repos.Title.Create(context.Background(), title))
	return title
}

func TestUserRepository_FindReturnsNilWhenMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.repos.User.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = f.repos.User.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.RoleUser, u.Role)
}

func TestUserRepository_DuplicateIsTranslated(t *testing.T) {
	f := newFixture(t)
	err := f.repos.User.Create(context.Background(), &model.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_ListSearch(t *testing.T) {
	f := newFixture(t)
	users, total, err := f.repos.User.List(context.Background(), "ALI", Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
}

func TestTitleRepository_CreateAndFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.title(t, "Zodiac", 2007, *f.drama)
	f.title(t, "Airplane!", 1980, *f.comedy)

	got, err := f.repos.Title.FindByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Category)
	assert.Equal(t, "movie", got.Category.Slug)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "drama", got.Genres[0].Slug)

	tests := []struct {
		name   string
		filter TitleFilter
		want   []string
	}{
		{name: "all ordered by name", want: []string{"Airplane!", "Zodiac"}},
		{name: "by genre", filter: TitleFilter{Genre: "comedy"}, want: []string{"Airplane!"}},
		{name: "by category", filter: TitleFilter{Category: "movie"}, want: []string{"Airplane!", "Zodiac"}},
		{name: "unknown category", filter: TitleFilter{Category: "book"}, want: []string{}},
		{name: "name icontains", filter: TitleFilter{Name: "odi"}, want: []string{"Zodiac"}},
		{name: "year", filter: TitleFilter{Year: 1980}, want: []string{"Airplane!"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			titles, total, err := f.repos.Title.List(ctx, tt.filter, Page{Number: 1, Size: 10})
			require.NoError(t, err)
			names := make([]string, 0, len(titles))
			for _, title := range titles {
				names = append(names, title.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestTitleRepository_ReplaceGenres(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Fargo", 1996, *f.drama)

	require.NoError(t, f.repos.Title.Update(ctx, title, []model.Genre{*f.comedy}, true))

	got, err := f.repos.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.Len(t, got.Genres, 1)
	assert.Equal(t, "comedy", got.Genres[0].Slug)
}

func TestCategoryDelete_NullsTitleCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Heat", 1995)

	require.NoError(t, f.repos.Category.Delete(ctx, f.movie))

	got, err := f.repos.Title.FindByID(ctx, title.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.CategoryID)
	assert.Nil(t, got.Category)
}

func TestReviewRepository_UniquePerAuthorAndTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Alien", 1979)

	require.NoError(t, f.repos.Review.Create(ctx, &model.Review{TitleID: title.ID, AuthorID: f.alice.ID, Text: "ok", Score: 7}))

	exists, err := f.repos.Review.Exists(ctx, f.alice.ID, title.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = f.repos.Review.Create(ctx, &model.Review{TitleID: title.ID, AuthorID: f.alice.ID, Text: "again", Score: 8})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestReviewRepository_AverageScores(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.title(t, "A", 2000)
	b := f.title(t, "B", 2001)

	require.NoError(t, f.repos.Review.Create(ctx, &model.Review{TitleID: a.ID, AuthorID: f.alice.ID, Text: "x", Score: 7}))
	require.NoError(t, f.repos.Review.Create(ctx, &model.Review{TitleID: a.ID, AuthorID: f.bob.ID, Text: "y", Score: 8}))

	avg, err := f.repos.Review.AverageScores(ctx, []int{a.ID, b.ID})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, avg[a.ID], 0.0001)
	_, ok := avg[b.ID]
	assert.False(t, ok)
}

func TestTitleDelete_CascadesToReviewsAndComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Jaws", 1975, *f.drama)

	review := &model.Review{TitleID: title.ID, AuthorID: f.alice.ID, Text: "great", Score: 9}
	require.NoError(t, f.repos.Review.Create(ctx, review))
	require.NoError(t, f.repos.Comment.Create(ctx, &model.Comment{ReviewID: review.ID, AuthorID: f.bob.ID, Text: "agree"}))

	require.NoError(t, f.repos.Title.Delete(ctx, title.ID))

	var reviews, comments, links int64
	db := f.repos.DB()
	require.NoError(t, db.Model(&model.Review{}).Count(&reviews).Error)
	require.NoError(t, db.Model(&model.Comment{}).Count(&comments).Error)
	require.NoError(t, db.Model(&model.GenreTitle{}).Count(&links).Error)
	assert.Zero(t, reviews)
	assert.Zero(t, comments)
	assert.Zero(t, links)
}

func TestUserDelete_CascadesToAuthoredContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := f.title(t, "Rocky", 1976)

	review := &model.Review{TitleID: title.ID, AuthorID: f.alice.ID, Text: "fine", Score: 6}
	require.NoError(t, f.repos.Review.Create(ctx, review))
	require.NoError(t, f.repos.Comment.Create(ctx, &model.Comment{ReviewID: review.ID, AuthorID: f.bob.ID, Text: "meh"}))

	require.NoError(t, f.repos.User.Delete(ctx, f.alice.ID))

	var comments int64
	require.NoError(t, f.repos.DB().Model(&model.Comment{}).Count(&comments).Error)
	assert.Zero(t, comments)

	u, err := f.repos.User.FindByID(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestTransaction_RollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.repos.Transaction(ctx, func(tx *Repositories) error {
		if err := tx.User.Create(ctx, &model.User{Username: "carol", Email: "carol@example.com"}); err != nil {
			return err
		}
		return tx.User.Create(ctx, &model.User{Username: "alice", Email: "dup@example.com"})
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	u, err := f.repos.User.FindByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 3, Size: MaxPageSize}, Page{Number: 3, Size: 1000}.Normalize())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.Offset())
}
