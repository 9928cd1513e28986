package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/shortlink-analytics/internal/models"
	"github.com/SergeiKhy/shortlink-analytics/internal/repository"
	"github.com/SergeiKhy/shortlink-analytics/internal/shortcode"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrURLRequired             = errors.New("url обязателен")
	ErrInvalidURL              = errors.New("невалидный URL")
	ErrInvalidAlias            = errors.New("невалидный алиас")
	ErrAliasTaken              = errors.New("алиас уже занят")
	ErrCodeGenerationExhausted = errors.New("не удалось подобрать свободный код")
)

// Тот же валидатор, что gin использует для binding-тегов
var urlValidator = validator.New(validator.WithRequiredStructEnabled())

// Константы сервиса
const (
	defaultCacheTTL = 24 * time.Hour
	maxCodeAttempts = 5
)

// CodeGenerator источник случайных кодов
type CodeGenerator interface {
	Generate() (string, error)
}

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error)
	GetLink(ctx context.Context, code string) (*models.Link, error)
	ListLinks(ctx context.Context) ([]models.ListedLink, error)
	DeleteLink(ctx context.Context, code string) (*models.Link, error)
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	codes     CodeGenerator
	logger    *zap.Logger
	cacheTTL  time.Duration
	now       func() time.Time
}

type LinkServiceOption func(*linkService)

// WithCacheTTL задаёт время жизни записи в кэше
func WithCacheTTL(ttl time.Duration) LinkServiceOption {
	return func(s *linkService) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	codes CodeGenerator,
	logger *zap.Logger,
	opts ...LinkServiceOption,
) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheRepo == nil {
		cacheRepo = repository.NewNoopCacheRepository()
	}

	s := &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		codes:     codes,
		logger:    logger,
		cacheTTL:  defaultCacheTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateLink создаёт короткую ссылку. Без алиаса повторный URL
// возвращает уже существующую ссылку.
func (s *linkService) CreateLink(ctx context.Context, input *models.CreateLinkInput) (*models.Link, error) {
	destination := strings.TrimSpace(input.DestinationURL)
	if destination == "" {
		return nil, ErrURLRequired
	}
	if err := validateURL(destination); err != nil {
		return nil, err
	}

	var alias string
	if input.CustomAlias != nil {
		alias = strings.TrimSpace(*input.CustomAlias)
	}

	var (
		link *models.Link
		err  error
	)
	if alias != "" {
		link, err = s.createWithAlias(ctx, destination, alias)
	} else {
		// Дедупликация по URL назначения
		existing, findErr := s.linkRepo.FindByDestination(ctx, destination)
		if findErr == nil {
			return existing, nil
		}
		if !errors.Is(findErr, repository.ErrLinkNotFound) {
			return nil, findErr
		}
		link, err = s.createWithGeneratedCode(ctx, destination)
	}
	if err != nil {
		return nil, err
	}

	s.cache(ctx, link)

	return link, nil
}

func (s *linkService) createWithAlias(ctx context.Context, destination, alias string) (*models.Link, error) {
	if !shortcode.ValidAlias(alias) {
		return nil, ErrInvalidAlias
	}

	link := s.newLink(alias, destination, true)
	if err := s.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeExists) {
			return nil, ErrAliasTaken
		}
		return nil, err
	}

	return link, nil
}

// createWithGeneratedCode вставляет ссылку, при коллизии кода пробует новый
func (s *linkService) createWithGeneratedCode(ctx context.Context, destination string) (*models.Link, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		link := s.newLink(code, destination, false)
		err = s.linkRepo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return nil, err
		}

		s.logger.Debug("Коллизия кода, пробуем другой",
			zap.String("code", code),
			zap.Int("attempt", attempt),
		)
	}

	s.logger.Error("Исчерпаны попытки генерации кода", zap.Int("attempts", maxCodeAttempts))
	return nil, ErrCodeGenerationExhausted
}

func (s *linkService) newLink(code, destination string, custom bool) *models.Link {
	return &models.Link{
		Code:           code,
		DestinationURL: destination,
		IsCustom:       custom,
		CreatedAt:      s.now().UTC(),
	}
}

// GetLink получает ссылку по коду (сначала из кэша, затем из БД)
func (s *linkService) GetLink(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.cacheRepo.Get(ctx, code)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, repository.ErrCacheMiss) {
		s.logger.Warn("Ошибка чтения кэша", zap.String("code", code), zap.Error(err))
	}

	link, err = s.linkRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.cache(ctx, link)

	return link, nil
}

func (s *linkService) ListLinks(ctx context.Context) ([]models.ListedLink, error) {
	return s.linkRepo.List(ctx)
}

// DeleteLink удаляет ссылку (клики удаляются каскадно) и сбрасывает кэш
func (s *linkService) DeleteLink(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.linkRepo.Delete(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.Delete(ctx, code); err != nil {
		s.logger.Warn("Не удалось удалить ссылку из кэша", zap.String("code", code), zap.Error(err))
	}

	return link, nil
}

func (s *linkService) cache(ctx context.Context, link *models.Link) {
	// Ошибка кэша не прерывает запрос
	if err := s.cacheRepo.Set(ctx, link, s.cacheTTL); err != nil {
		s.logger.Warn("Не удалось закэшировать ссылку", zap.String("code", link.Code), zap.Error(err))
	}
}

// validateURL требует абсолютный http(s) URL с хостом
func validateURL(raw string) error {
	if err := urlValidator.Var(raw, "http_url"); err != nil {
		return ErrInvalidURL
	}
	return nil
}
