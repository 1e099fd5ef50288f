package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests 按方法、路由和状态码统计请求数
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yamdb_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPLatency 请求耗时
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yamdb_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AuthEvents 注册与换取令牌的结果
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yamdb_auth_events_total",
		Help: "Signup and token exchange outcomes",
	}, []string{"event", "outcome"})

	// RatingCache 评分缓存命中情况
	RatingCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yamdb_rating_cache_total",
		Help: "Rating cache lookups by result",
	}, []string{"result"})

	// RateLimited 被限流拒绝的请求数
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yamdb_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
