package service

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/yamdb/internal/metrics"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/utils"
)

// RatingService 计算作品评分，带 LRU 缓存
type RatingService struct {
	reviews repository.ReviewRepository
	cache   *utils.LRU[int, *float64]
	group   singleflight.Group

	// gens 每次 Invalidate 递增，查询期间发生变化的结果不写回缓存
	mu   sync.Mutex
	gens map[int]uint64
}

// NewRatingService ttl 为 0 时不缓存
func NewRatingService(reviews repository.ReviewRepository, ttl time.Duration) *RatingService {
	s := &RatingService{reviews: reviews, gens: make(map[int]uint64)}
	if ttl > 0 {
		s.cache = utils.NewLRU[int, *float64](4096, ttl)
	}
	return s
}

// RoundRating 保留一位小数
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// Ratings 返回每个作品的评分，没有评价的作品为 nil
func (s *RatingService) Ratings(ctx context.Context, titleIDs []int) (map[int]*float64, error) {
	result := make(map[int]*float64, len(titleIDs))
	missing := make([]int, 0, len(titleIDs))
	for _, id := range titleIDs {
		if s.cache != nil {
			if r, ok := s.cache.Get(id); ok {
				metrics.RatingCache.WithLabelValues("hit").Inc()
				result[id] = r
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result, nil
	}
	metrics.RatingCache.WithLabelValues("miss").Add(float64(len(missing)))

	// 相同的一组作品在同一代缓存下并发未命中时只查一次
	snapshot := s.generations(missing)
	v, err, _ := s.group.Do(groupKey(missing, snapshot), func() (interface{}, error) {
		// 共享查询不随发起者的请求取消
		averages, err := s.reviews.AverageScores(context.WithoutCancel(ctx), missing)
		if err != nil {
			return nil, err
		}
		ratings := make(map[int]*float64, len(missing))
		for _, id := range missing {
			if avg, ok := averages[id]; ok {
				rounded := RoundRating(avg)
				ratings[id] = &rounded
			} else {
				ratings[id] = nil
			}
		}
		s.store(missing, snapshot, ratings)
		return ratings, nil
	})
	if err != nil {
		return nil, err
	}

	for id, r := range v.(map[int]*float64) {
		result[id] = r
	}
	return result, nil
}

func (s *RatingService) generations(ids []int) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	gens := make([]uint64, len(ids))
	for i, id := range ids {
		gens[i] = s.gens[id]
	}
	return gens
}

// store 只写回查询开始后未被 Invalidate 的作品
func (s *RatingService) store(ids []int, snapshot []uint64, ratings map[int]*float64) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		if s.gens[id] == snapshot[i] {
			s.cache.Set(id, ratings[id])
		}
	}
}

// Rating 单个作品评分
func (s *RatingService) Rating(ctx context.Context, titleID int) (*float64, error) {
	m, err := s.Ratings(ctx, []int{titleID})
	if err != nil {
		return nil, err
	}
	return m[titleID], nil
}

// Invalidate 评价变化后清除缓存
func (s *RatingService) Invalidate(titleID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[titleID]++
	if s.cache != nil {
		s.cache.Delete(titleID)
	}
}

func groupKey(ids []int, gens []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id) + "@" + strconv.FormatUint(gens[i], 10)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
