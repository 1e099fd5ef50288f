// Package csvload 从 CSV 目录批量导入初始数据。
package csvload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/user/yamdb/internal/model"
	"github.com/user/yamdb/internal/repository"
)

const defaultBatchSize = 500

// Result 单个文件的导入结果
type Result struct {
	File  string
	Table string
	Rows  int
}

// Loader CSV 导入器
type Loader struct {
	db        *gorm.DB
	log       *zap.Logger
	batchSize int
}

func New(db *gorm.DB, log *zap.Logger) *Loader {
	return &Loader{db: db, log: log.Named("csvload"), batchSize: defaultBatchSize}
}

// source 一个 CSV 文件及其目标表，按外键依赖顺序排列
type source struct {
	file  string
	table string
	// serial 表示主键自增，导入后需要重置序列
	serial bool
	load   func(tx *gorm.DB, rows []record, batch int) error
}

var sources = []source{
	{"users.csv", "users", true, loadUsers},
	{"category.csv", "categories", true, loadTaxa[model.Category]},
	{"genre.csv", "genres", true, loadTaxa[model.Genre]},
	{"titles.csv", "titles", true, loadTitles},
	{"genre_title.csv", "genre_titles", false, loadGenreTitles},
	{"review.csv", "reviews", true, loadReviews},
	{"comments.csv", "comments", true, loadComments},
}

// columnAliases 原始数据中的外键列名
var columnAliases = map[string]string{
	"category": "category_id",
	"author":   "author_id",
	"title":    "title_id",
	"review":   "review_id",
	"genre":    "genre_id",
}

// LoadDir 在一个事务中导入目录下的全部文件，缺失的文件跳过
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]Result, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("读取数据目录失败: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s 不是目录", dir)
	}

	var results []Result
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var serial []string
		for _, src := range sources {
			path := filepath.Join(dir, src.file)
			rows, err := readFile(path)
			if errors.Is(err, os.ErrNotExist) {
				l.log.Warn("文件不存在，跳过", zap.String("file", src.file))
				continue
			}
			if err != nil {
				return err
			}
			if err := src.load(tx, rows, l.batchSize); err != nil {
				return fmt.Errorf("导入 %s 失败: %w", src.file, err)
			}
			results = append(results, Result{File: src.file, Table: src.table, Rows: len(rows)})
			if src.serial && len(rows) > 0 {
				serial = append(serial, src.table)
			}
			l.log.Info("导入完成", zap.String("file", src.file), zap.Int("rows", len(rows)))
		}
		return resetSequences(tx, serial)
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// resetSequences 显式写入主键后，postgres 需要把序列推进到当前最大值
func resetSequences(tx *gorm.DB, tables []string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range tables {
		q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence(?, 'id'), COALESCE(MAX(id), 1)) FROM %s", pq.QuoteIdentifier(table))
		if err := tx.Exec(q, table).Error; err != nil {
			return fmt.Errorf("重置 %s 序列失败: %w", table, err)
		}
	}
	return nil
}

// record 一行数据，键为规范化后的列名
type record struct {
	line   int
	values map[string]string
}

func readFile(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f, filepath.Base(path))
}

func parse(r io.Reader, name string) ([]record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: 读取表头失败: %w", name, err)
	}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := columnAliases[h]; ok {
			h = alias
		}
		header[i] = h
	}

	var rows []record
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		rec := record{line: line, values: make(map[string]string, len(header))}
		for i, h := range header {
			if i < len(fields) {
				rec.values[h] = fields[i]
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func (r record) str(key string) string {
	return r.values[key]
}

func (r record) integer(key string) (int, error) {
	v := strings.TrimSpace(r.values[key])
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("第 %d 行 %s=%q 不是整数", r.line, key, v)
	}
	return n, nil
}

// optInt 空值返回 nil
func (r record) optInt(key string) (*int, error) {
	if strings.TrimSpace(r.values[key]) == "" {
		return nil, nil
	}
	n, err := r.integer(key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// timestamp 空值使用当前时间
func (r record) timestamp(key string) (time.Time, error) {
	v := strings.TrimSpace(r.values[key])
	if v == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("第 %d 行 %s=%q 不是有效时间", r.line, key, v)
	}
	return t, nil
}

func loadUsers(tx *gorm.DB, rows []record, batch int) error {
	users := make([]model.User, 0, len(rows))
	for _, r := range rows {
		id, err := r.integer("id")
		if err != nil {
			return err
		}
		role := model.Role(strings.TrimSpace(r.str("role")))
		if role == "" {
			role = model.RoleUser
		}
		if !role.Valid() {
			return fmt.Errorf("第 %d 行角色 %q 无效", r.line, role)
		}
		users = append(users, model.User{
			ID:        id,
			Username:  r.str("username"),
			Email:     r.str("email"),
			Role:      role,
			Bio:       r.str("bio"),
			FirstName: r.str("first_name"),
			LastName:  r.str("last_name"),
		})
	}
	return createInBatches(tx, users, batch)
}

// loadTaxa 分类与类型结构相同
func loadTaxa[T any, PT repository.TaxonPtr[T]](tx *gorm.DB, rows []record, batch int) error {
	items := make([]T, len(rows))
	for i, r := range rows {
		id, err := r.integer("id")
		if err != nil {
			return err
		}
		base := PT(&items[i]).Base()
		base.ID, base.Name, base.Slug = id, r.str("name"), r.str("slug")
	}
	return createInBatches(tx, items, batch)
}

func loadTitles(tx *gorm.DB, rows []record, batch int) error {
	titles := make([]model.Title, 0, len(rows))
	for _, r := range rows {
		id, err := r.integer("id")
		if err != nil {
			return err
		}
		year, err := r.integer("year")
		if err != nil {
			return err
		}
		category, err := r.optInt("category_id")
		if err != nil {
			return err
		}
		t := model.Title{ID: id, Name: r.str("name"), Year: year, CategoryID: category}
		if d := r.str("description"); d != "" {
			t.Description = &d
		}
		titles = append(titles, t)
	}
	return createInBatches(tx.Omit("Category", "Genres"), titles, batch)
}

func loadGenreTitles(tx *gorm.DB, rows []record, batch int) error {
	links := make([]model.GenreTitle, 0, len(rows))
	for _, r := range rows {
		titleID, err := r.integer("title_id")
		if err != nil {
			return err
		}
		genreID, err := r.integer("genre_id")
		if err != nil {
			return err
		}
		links = append(links, model.GenreTitle{TitleID: titleID, GenreID: genreID})
	}
	return createInBatches(tx, links, batch)
}

func loadReviews(tx *gorm.DB, rows []record, batch int) error {
	reviews := make([]model.Review, 0, len(rows))
	for _, r := range rows {
		var rv model.Review
		var err error
		if rv.ID, err = r.integer("id"); err != nil {
			return err
		}
		if rv.TitleID, err = r.integer("title_id"); err != nil {
			return err
		}
		if rv.AuthorID, err = r.integer("author_id"); err != nil {
			return err
		}
		if rv.Score, err = r.integer("score"); err != nil {
			return err
		}
		if rv.PubDate, err = r.timestamp("pub_date"); err != nil {
			return err
		}
		rv.Text = r.str("text")
		reviews = append(reviews, rv)
	}
	return createInBatches(tx.Omit("Title", "Author"), reviews, batch)
}

func loadComments(tx *gorm.DB, rows []record, batch int) error {
	comments := make([]model.Comment, 0, len(rows))
	for _, r := range rows {
		var c model.Comment
		var err error
		if c.ID, err = r.integer("id"); err != nil {
			return err
		}
		if c.ReviewID, err = r.integer("review_id"); err != nil {
			return err
		}
		if c.AuthorID, err = r.integer("author_id"); err != nil {
			return err
		}
		if c.PubDate, err = r.timestamp("pub_date"); err != nil {
			return err
		}
		c.Text = r.str("text")
		comments = append(comments, c)
	}
	return createInBatches(tx.Omit("Review", "Author"), comments, batch)
}

func createInBatches[T any](tx *gorm.DB, items []T, batch int) error {
	if len(items) == 0 {
		return nil
	}
	return tx.CreateInBatches(&items, batch).Error
}
