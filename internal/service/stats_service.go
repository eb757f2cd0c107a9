package service

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
)

const (
	statsCacheKey = "stats"
	statsCacheTTL = time.Minute
	recentLimit   = 5
)

type GroupCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// RecentProperty is a compact row for the dashboard's newest listings.
type RecentProperty struct {
	ID           uint                 `json:"id"`
	Title        string               `json:"title"`
	Slug         string               `json:"slug"`
	Status       model.PropertyStatus `json:"status"`
	PropertyType model.PropertyType   `json:"property_type"`
	Price        float64              `json:"price"`
	OwnerName    string               `json:"owner_name"`
	City         string               `json:"city"`
	Locality     string               `json:"locality"`
	CreatedAt    time.Time            `json:"created_at"`
}

type Stats struct {
	Total     int64            `json:"total"`
	Published int64            `json:"published"`
	Featured  int64            `json:"featured"`
	Verified  int64            `json:"verified"`
	ByStatus  []GroupCount     `json:"by_status"`
	ByType    []GroupCount     `json:"by_type"`
	Recent    []RecentProperty `json:"recent"`
}

type StatsService struct {
	db    *gorm.DB
	cache ResultCache
	log   *log.Logger
}

func NewStatsService(db *gorm.DB, c ResultCache, logger *log.Logger) *StatsService {
	if logger == nil {
		logger = log.Default()
	}
	return &StatsService{db: db, cache: orDisabled(c), log: logger}
}

// GetStats returns dashboard counters, from the cache when possible.
func (s *StatsService) GetStats(ctx context.Context) (*Stats, error) {
	var cached Stats
	if s.cache.GetJSON(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}

	stats, err := s.compute(ctx)
	if err != nil {
		s.log.Printf("stats query failed: %v", err)
		return nil, newInternalError("could not compute stats", err)
	}

	s.cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL)
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{
		ByStatus: []GroupCount{},
		ByType:   []GroupCount{},
		Recent:   []RecentProperty{},
	}

	counters := []struct {
		dst   *int64
		query string
		args  []interface{}
	}{
		{&stats.Total, "", nil},
		{&stats.Published, "status = ?", []interface{}{model.PropertyStatusPublished}},
		{&stats.Featured, "is_featured = ?", []interface{}{true}},
		{&stats.Verified, "is_verified = ?", []interface{}{true}},
	}
	for _, c := range counters {
		q := db.Model(&model.Property{})
		if c.query != "" {
			q = q.Where(c.query, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	if err := db.Model(&model.Property{}).
		Select("status AS label, COUNT(*) AS count").
		Group("status").
		Order("count DESC, label ASC").
		Scan(&stats.ByStatus).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Property{}).
		Select("property_type AS label, COUNT(*) AS count").
		Group("property_type").
		Order("count DESC, label ASC").
		Scan(&stats.ByType).Error; err != nil {
		return nil, err
	}

	if err := db.Table("properties").
		Select(`properties.id, properties.title, properties.slug, properties.status,
			properties.property_type, properties.price, properties.created_at,
			COALESCE(users.name, '') AS owner_name,
			COALESCE(locations.city, '') AS city,
			COALESCE(locations.locality, '') AS locality`).
		Joins("LEFT JOIN users ON users.id = properties.owner_id").
		Joins("LEFT JOIN locations ON locations.property_id = properties.id").
		Order("properties.created_at DESC, properties.id DESC").
		Limit(recentLimit).
		Scan(&stats.Recent).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
