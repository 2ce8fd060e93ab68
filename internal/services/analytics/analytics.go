// Package analytics собирает агрегаты для страницы аналитики и кэширует их в Redis.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/subscription-backoffice/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-backoffice/internal/models"
)

const (
	// CacheKey ключ снимка аналитики в Redis
	CacheKey = "analytics:summary"
	// Window глубина дневных рядов
	Window = 30 * 24 * time.Hour
	// LabelLayout формат подписи дня в рядах
	LabelLayout = "Jan 02"
	// FreeTrialLabel подпись профилей без названия пакета
	FreeTrialLabel = "Free Trial"
)

// Repository агрегирующие запросы к хранилищу
type Repository interface {
	TotalApprovedRevenue(ctx context.Context) (decimal.Decimal, error)
	DailyNewAccounts(ctx context.Context, since time.Time) ([]models.DailyCount, error)
	DailyApprovedRevenue(ctx context.Context, since time.Time) ([]models.DailyAmount, error)
	KYCDistribution(ctx context.Context) ([]models.LabelCount, error)
	ActivePackageDistribution(ctx context.Context, now time.Time) ([]models.LabelCount, error)
}

// Cache хранилище снимков
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service аналитика back-office
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
	now   func() time.Time
}

// New создает Service. cache может быть nil, тогда запросы идут напрямую.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}
}

// Summary возвращает снимок из кэша или считает его заново.
// Ошибки Redis только логируются.
func (s *Service) Summary(ctx context.Context) (models.Analytics, error) {
	const op = "analytics.Summary"
	log := s.log.With(slog.String("op", op))

	var res models.Analytics
	if s.cache != nil {
		found, err := s.cache.Get(ctx, CacheKey, &res)
		if err != nil {
			log.Warn("analytics cache read failed", sl.Err(err))
		} else if found {
			return res, nil
		}
	}

	res, err := s.Compute(ctx)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, CacheKey, res, s.ttl); err != nil {
			log.Warn("analytics cache write failed", sl.Err(err))
		}
	}
	return res, nil
}

// Compute считает агрегаты напрямую по хранилищу.
func (s *Service) Compute(ctx context.Context) (models.Analytics, error) {
	const op = "analytics.Compute"
	now := s.now()
	since := now.Add(-Window)

	total, err := s.repo.TotalApprovedRevenue(ctx)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}
	users, err := s.repo.DailyNewAccounts(ctx, since)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}
	revenue, err := s.repo.DailyApprovedRevenue(ctx, since)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}
	kyc, err := s.repo.KYCDistribution(ctx)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}
	pkgs, err := s.repo.ActivePackageDistribution(ctx, now)
	if err != nil {
		return models.Analytics{}, fmt.Errorf("%s: %w", op, err)
	}

	res := models.Analytics{
		TotalRevenue:        total,
		DailyNewUsers:       models.Series[int]{Labels: []string{}, Values: []int{}},
		DailyRevenue:        models.Series[decimal.Decimal]{Labels: []string{}, Values: []decimal.Decimal{}},
		KYCDistribution:     labelSeries(kyc, string(models.KYCUnverified)),
		PackageDistribution: labelSeries(pkgs, FreeTrialLabel),
	}
	for _, d := range users {
		res.DailyNewUsers.Labels = append(res.DailyNewUsers.Labels, d.Day.Format(LabelLayout))
		res.DailyNewUsers.Values = append(res.DailyNewUsers.Values, d.Count)
	}
	for _, d := range revenue {
		res.DailyRevenue.Labels = append(res.DailyRevenue.Labels, d.Day.Format(LabelLayout))
		res.DailyRevenue.Values = append(res.DailyRevenue.Values, d.Amount)
	}
	return res, nil
}

// labelSeries переводит счётчики в ряд, пустая подпись заменяется на empty.
// Группы, совпавшие после замены, складываются.
func labelSeries(counts []models.LabelCount, empty string) models.Series[int] {
	series := models.Series[int]{Labels: []string{}, Values: []int{}}
	index := make(map[string]int, len(counts))
	for _, c := range counts {
		label := c.Label
		if label == "" {
			label = empty
		}
		if i, ok := index[label]; ok {
			series.Values[i] += c.Count
			continue
		}
		index[label] = len(series.Labels)
		series.Labels = append(series.Labels, label)
		series.Values = append(series.Values, c.Count)
	}
	return series
}
