package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/SergeiKhy/linkpulse/internal/models"
	"github.com/SergeiKhy/linkpulse/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Константы сервиса
const (
	defaultCacheTTL = 24 * time.Hour
	codeLength      = 8
	maxCodeAttempts = 5
)

var customCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,12}$`)

// Чёрный список доменов (можно вынести в конфиг или БД)
var blacklistedDomains = []string{
	"malware.com",
	"phishing.com",
	"spam.com",
}

// AllLinksFilter фильтры списка всех ссылок. ShowMe=false исключает ссылки самого админа
type AllLinksFilter struct {
	ShowMe  bool
	Deleted *bool
	Expired *bool
}

// Resolution результат разрешения короткого кода
type Resolution struct {
	LinkID      int64
	ShortCode   string
	Destination string
}

type LinkService interface {
	Create(ctx context.Context, userID int64, input *models.CreateLinkInput) (*models.Link, error)
	Resolve(ctx context.Context, code string) (*Resolution, error)
	ListOwn(ctx context.Context, userID int64, deleted *bool, page models.Pagination) (*models.OwnLinks, error)
	ListAll(ctx context.Context, userID int64, filter AllLinksFilter, page models.Pagination) (*models.Page[models.Link], error)
	GetByID(ctx context.Context, userID, id int64) (*models.Link, error)
	Update(ctx context.Context, userID, id int64, input *models.UpdateLinkInput) (*models.Link, error)
	Delete(ctx context.Context, userID, id int64) error
	Restore(ctx context.Context, userID, id int64) error
	SetArchived(ctx context.Context, userID, id int64, archived bool) (*models.Link, error)
	RemoveUTM(ctx context.Context, userID, id int64) (*models.Link, error)
	Stats(ctx context.Context, userID, id int64) (*models.LinkStats, error)
}

type linkService struct {
	linkRepo  repository.LinkRepository
	clickRepo repository.ClickRepository
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	logger    *zap.Logger
}

func NewLinkService(
	linkRepo repository.LinkRepository,
	clickRepo repository.ClickRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) LinkService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		linkRepo:  linkRepo,
		clickRepo: clickRepo,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Create создаёт новую короткую ссылку
func (s *linkService) Create(ctx context.Context, userID int64, input *models.CreateLinkInput) (*models.Link, error) {
	if err := validateURL(input.OriginalURL); err != nil {
		return nil, err
	}
	if err := checkSpamDomain(input.OriginalURL); err != nil {
		return nil, err
	}

	linkType := models.LinkTypeBenign
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, fmt.Errorf("%w: неизвестный тип ссылки %q", ErrInvalidArgument, *input.Type)
		}
		linkType = *input.Type
	}

	link := &models.Link{
		UserID:      userID,
		OriginalURL: input.OriginalURL,
		Type:        linkType,
		Comments:    input.Comments,
		QRCode:      input.QRCode,
		UTM:         input.UTM,
		Tags:        normalizeTags(input.Tags),
		CreatedAt:   time.Now(),
	}
	if input.Expiration != nil {
		if input.Expiration.URL != nil {
			if err := validateURL(*input.Expiration.URL); err != nil {
				return nil, err
			}
		}
		link.ExpiresAt = input.Expiration.Datetime
		link.ExpiredRedirectURL = input.Expiration.URL
	}

	custom := input.ShortCode != nil && *input.ShortCode != ""
	if custom {
		if !customCodePattern.MatchString(*input.ShortCode) {
			return nil, ErrInvalidCode
		}
		link.ShortCode = *input.ShortCode
		if err := s.linkRepo.Create(ctx, link); err != nil {
			if errors.Is(err, repository.ErrCodeExists) {
				return nil, ErrCodeTaken
			}
			return nil, err
		}
		return link, nil
	}

	// Сгенерированный код может совпасть с существующим, пробуем ещё раз
	for attempt := 1; ; attempt++ {
		link.ShortCode = generateShortCode()
		err := s.linkRepo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return nil, err
		}
		if attempt == maxCodeAttempts {
			return nil, fmt.Errorf("failed to generate unique code after %d attempts: %w", attempt, ErrCodeTaken)
		}
		s.logger.Debug("Коллизия короткого кода", zap.String("short_code", link.ShortCode), zap.Int("attempt", attempt))
	}
}

// Resolve находит живую ссылку по коду (сначала в кэше, затем в БД)
func (s *linkService) Resolve(ctx context.Context, code string) (*Resolution, error) {
	link, err := s.cacheRepo.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("Ошибка чтения кэша ссылок", zap.String("short_code", code), zap.Error(err))
		}

		link, err = s.linkRepo.GetByShortCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrLinkNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if !link.IsArchived() {
			s.cache(ctx, link)
		}
	}

	if link.IsArchived() {
		return nil, ErrGone
	}

	res := &Resolution{LinkID: link.ID, ShortCode: link.ShortCode, Destination: link.OriginalURL}
	if link.IsExpired(time.Now()) {
		if link.ExpiredRedirectURL == nil || *link.ExpiredRedirectURL == "" {
			return nil, ErrGone
		}
		res.Destination = *link.ExpiredRedirectURL
	}
	return res, nil
}

func (s *linkService) ListOwn(ctx context.Context, userID int64, deleted *bool, page models.Pagination) (*models.OwnLinks, error) {
	links, err := s.linkRepo.FindPage(ctx, models.LinkFilter{UserID: &userID, Deleted: deleted}, page)
	if err != nil {
		return nil, err
	}

	tags, err := s.linkRepo.ListUserTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}

	return &models.OwnLinks{Page: links, Tags: tags}, nil
}

func (s *linkService) ListAll(ctx context.Context, userID int64, filter AllLinksFilter, page models.Pagination) (*models.Page[models.Link], error) {
	f := models.LinkFilter{Deleted: filter.Deleted, Expired: filter.Expired}
	if !filter.ShowMe {
		f.ExcludeUserID = &userID
	}
	return s.linkRepo.FindPage(ctx, f, page)
}

// GetByID возвращает неархивную ссылку владельца
func (s *linkService) GetByID(ctx context.Context, userID, id int64) (*models.Link, error) {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if link.IsArchived() {
		return nil, ErrNotFound
	}
	return link, nil
}

func (s *linkService) Update(ctx context.Context, userID, id int64, input *models.UpdateLinkInput) (*models.Link, error) {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	oldCode := link.ShortCode

	if input.ShortCode != nil && *input.ShortCode != "" && *input.ShortCode != link.ShortCode {
		if !customCodePattern.MatchString(*input.ShortCode) {
			return nil, ErrInvalidCode
		}
		link.ShortCode = *input.ShortCode
	}
	if input.ExpiresAt != nil {
		link.ExpiresAt = input.ExpiresAt
	}
	if input.ExpiredRedirectURL != nil {
		if err := validateURL(*input.ExpiredRedirectURL); err != nil {
			return nil, err
		}
		link.ExpiredRedirectURL = input.ExpiredRedirectURL
	}
	if input.QRCode != nil {
		link.QRCode = input.QRCode
	}
	if input.Comments != nil {
		link.Comments = input.Comments
	}

	params := repository.UpdateLinkParams{Link: link, UTM: input.UTM}
	if input.Tags != nil {
		params.Tags = DiffTags(link.Tags, *input.Tags)
	}

	if err := s.linkRepo.Update(ctx, params); err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeExists):
			return nil, ErrCodeTaken
		case errors.Is(err, repository.ErrLinkNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.invalidate(ctx, oldCode, link.ShortCode)
	return s.reload(ctx, id)
}

// Delete мягко удаляет ссылку
func (s *linkService) Delete(ctx context.Context, userID, id int64) error {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return err
	}
	if link.IsArchived() {
		return ErrNotFound
	}

	now := time.Now()
	if err := s.setDeletedAt(ctx, link, &now); err != nil {
		return err
	}
	return nil
}

func (s *linkService) Restore(ctx context.Context, userID, id int64) error {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return err
	}
	if !link.IsArchived() {
		return ErrNotFound
	}
	return s.setDeletedAt(ctx, link, nil)
}

func (s *linkService) SetArchived(ctx context.Context, userID, id int64, archived bool) (*models.Link, error) {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	switch {
	case archived && link.IsArchived():
		return nil, ErrAlreadyArchived
	case !archived && !link.IsArchived():
		return nil, ErrNotArchived
	}

	var at *time.Time
	if archived {
		now := time.Now()
		at = &now
	}
	if err := s.setDeletedAt(ctx, link, at); err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *linkService) RemoveUTM(ctx context.Context, userID, id int64) (*models.Link, error) {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if link.UTM == nil {
		return nil, ErrNoUTM
	}

	if err := s.linkRepo.RemoveUTM(ctx, id); err != nil {
		return nil, err
	}
	s.invalidate(ctx, link.ShortCode)
	return s.reload(ctx, id)
}

func (s *linkService) Stats(ctx context.Context, userID, id int64) (*models.LinkStats, error) {
	link, err := s.ownedLink(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	total, unique, err := s.clickRepo.GetStats(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	return &models.LinkStats{ShortCode: link.ShortCode, TotalClicks: total, UniqueClicks: unique}, nil
}

// ownedLink загружает ссылку и проверяет владельца
func (s *linkService) ownedLink(ctx context.Context, userID, id int64) (*models.Link, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if link.UserID != userID {
		return nil, ErrNotOwner
	}
	return link, nil
}

func (s *linkService) reload(ctx context.Context, id int64) (*models.Link, error) {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return link, nil
}

func (s *linkService) setDeletedAt(ctx context.Context, link *models.Link, at *time.Time) error {
	if err := s.linkRepo.SetDeletedAt(ctx, link.ID, at); err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeExists):
			return ErrCodeTaken
		case errors.Is(err, repository.ErrLinkNotFound):
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx, link.ShortCode)
	return nil
}

func (s *linkService) cache(ctx context.Context, link *models.Link) {
	ttl := s.cacheTTL
	if link.ExpiresAt != nil {
		if until := time.Until(*link.ExpiresAt); until < ttl {
			ttl = until
		}
	}
	if err := s.cacheRepo.Set(ctx, link.ShortCode, link, ttl); err != nil {
		s.logger.Warn("Не удалось закэшировать ссылку", zap.String("short_code", link.ShortCode), zap.Error(err))
	}
}

func (s *linkService) invalidate(ctx context.Context, codes ...string) {
	for _, code := range codes {
		if err := s.cacheRepo.Delete(ctx, code); err != nil {
			s.logger.Warn("Не удалось сбросить кэш ссылки", zap.String("short_code", code), zap.Error(err))
		}
	}
}

// generateShortCode берёт первые 8 символов UUIDv4
func generateShortCode() string {
	return uuid.NewString()[:codeLength]
}

// validateURL допускает только абсолютные http(s) адреса
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// checkSpamDomain проверяет домен и его поддомены по чёрному списку
func checkSpamDomain(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range blacklistedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return ErrSpamDomain
		}
	}
	return nil
}
