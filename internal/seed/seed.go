// Package seed 为开发环境生成演示数据，不用于生产。
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

// Options 生成规模
type Options struct {
	Users             int
	Titles            int
	ReviewsPerTitle   int
	CommentsPerReview int
	// Seed 为 0 时使用当前时间
	Seed int64
}

// DefaultOptions 默认规模
func DefaultOptions() Options {
	return Options{Users: 20, Titles: 30, ReviewsPerTitle: 5, CommentsPerReview: 2}
}

// Summary 实际写入的数量
type Summary struct {
	Users      int
	Categories int
	Genres     int
	Titles     int
	Reviews    int
	Comments   int
}

var categories = []model.Category{
	{Taxon: model.Taxon{Name: "Фильм", Slug: "movie"}},
	{Taxon: model.Taxon{Name: "Книга", Slug: "book"}},
	{Taxon: model.Taxon{Name: "Музыка", Slug: "music"}},
}

var genres = []model.Genre{
	{Taxon: model.Taxon{Name: "Драма", Slug: "drama"}},
	{Taxon: model.Taxon{Name: "Комедия", Slug: "comedy"}},
	{Taxon: model.Taxon{Name: "Триллер", Slug: "thriller"}},
	{Taxon: model.Taxon{Name: "Фантастика", Slug: "sci-fi"}},
	{Taxon: model.Taxon{Name: "Рок", Slug: "rock"}},
	{Taxon: model.Taxon{Name: "Детектив", Slug: "detective"}},
}

// Run 在一个事务中写入演示数据
func Run(ctx context.Context, repos *repository.Repositories, opts Options, log *zap.Logger) (Summary, error) {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	gofakeit.Seed(opts.Seed)
	r := rand.New(rand.NewSource(opts.Seed))

	var sum Summary
	err := repos.Transaction(ctx, func(tx *repository.Repositories) error {
		users, err := createUsers(ctx, tx, opts.Users)
		if err != nil {
			return err
		}
		sum.Users = len(users)

		cats := make([]model.Category, len(categories))
		for i := range categories {
			cats[i] = categories[i]
			if err := tx.Category.Create(ctx, &cats[i]); err != nil {
				return fmt.Errorf("创建分类失败: %w", err)
			}
		}
		sum.Categories = len(cats)

		gens := make([]model.Genre, len(genres))
		for i := range genres {
			gens[i] = genres[i]
			if err := tx.Genre.Create(ctx, &gens[i]); err != nil {
				return fmt.Errorf("创建类型失败: %w", err)
			}
		}
		sum.Genres = len(gens)

		for i := 0; i < opts.Titles; i++ {
			title := buildTitle(r, cats, gens)
			if err := tx.Title.Create(ctx, title); err != nil {
				return fmt.Errorf("创建作品失败: %w", err)
			}
			sum.Titles++

			reviews, comments, err := createReviews(ctx, tx, r, title.ID, users, opts)
			if err != nil {
				return err
			}
			sum.Reviews += reviews
			sum.Comments += comments
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	log.Info("演示数据已生成",
		zap.Int("users", sum.Users),
		zap.Int("titles", sum.Titles),
		zap.Int("reviews", sum.Reviews),
		zap.Int("comments", sum.Comments))
	return sum, nil
}

func createUsers(ctx context.Context, tx *repository.Repositories, n int) ([]model.User, error) {
	users := make([]model.User, n)
	for i := range users {
		// 序号保证用户名和邮箱唯一
		users[i] = model.User{
			Username:  fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:     fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Role:      model.RoleUser,
			FirstName: gofakeit.FirstName(),
			LastName:  gofakeit.LastName(),
			Bio:       gofakeit.Sentence(8),
		}
		if i%10 == 1 {
			users[i].Role = model.RoleModerator
		}
		if err := tx.User.Create(ctx, &users[i]); err != nil {
			return nil, fmt.Errorf("创建用户失败: %w", err)
		}
	}
	return users, nil
}

func buildTitle(r *rand.Rand, cats []model.Category, gens []model.Genre) *model.Title {
	category := cats[r.Intn(len(cats))]
	title := &model.Title{
		Name:       gofakeit.Sentence(3),
		Year:       gofakeit.Number(1950, time.Now().Year()),
		CategoryID: &category.ID,
	}
	if r.Intn(3) > 0 {
		d := gofakeit.Paragraph(1, 3, 12, " ")
		title.Description = &d
	}
	for _, i := range r.Perm(len(gens))[:1+r.Intn(2)] {
		title.Genres = append(title.Genres, gens[i])
	}
	return title
}

// createReviews 每个作者对同一作品只评价一次
func createReviews(ctx context.Context, tx *repository.Repositories, r *rand.Rand, titleID int, users []model.User, opts Options) (int, int, error) {
	n := min(opts.ReviewsPerTitle, len(users))
	var reviews, comments int
	for _, idx := range r.Perm(len(users))[:n] {
		review := &model.Review{
			TitleID:  titleID,
			AuthorID: users[idx].ID,
			Text:     gofakeit.Paragraph(1, 2, 10, " "),
			Score:    1 + r.Intn(10),
		}
		if err := tx.Review.Create(ctx, review); err != nil {
			return 0, 0, fmt.Errorf("创建评价失败: %w", err)
		}
		reviews++

		for j := 0; j < opts.CommentsPerReview && len(users) > 0; j++ {
			comment := &model.Comment{
				ReviewID: review.ID,
				AuthorID: users[r.Intn(len(users))].ID,
				Text:     gofakeit.Sentence(10),
			}
			if err := tx.Comment.Create(ctx, comment); err != nil {
				return 0, 0, fmt.Errorf("创建评论失败: %w", err)
			}
			comments++
		}
	}
	return reviews, comments, nil
}
