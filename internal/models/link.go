package models

import (
	"time"
)

type LinkType string

const (
	LinkTypeBenign     LinkType = "BENIGN"
	LinkTypeMalicious  LinkType = "MALICIOUS"
	LinkTypeDefacement LinkType = "DEFACEMENT"
	LinkTypeMalware    LinkType = "MALWARE"
	LinkTypePhishing   LinkType = "PHISHING"
	LinkTypeBlocked    LinkType = "BLOCKED"
)

// Valid проверяет, что тип ссылки известен
func (t LinkType) Valid() bool {
	switch t {
	case LinkTypeBenign, LinkTypeMalicious, LinkTypeDefacement,
		LinkTypeMalware, LinkTypePhishing, LinkTypeBlocked:
		return true
	}
	return false
}

type Link struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	OriginalURL        string     `json:"original_url"`
	ShortCode          string     `json:"short_code"`
	Type               LinkType   `json:"type"`
	Comments           *string    `json:"comments,omitempty"`
	QRCode             *string    `json:"qrcode,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	ExpiredRedirectURL *string    `json:"expired_redirect_url,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
	UTM                *UTM       `json:"utm,omitempty"`
	Tags               []string   `json:"tags"`
	ClickCount         int64      `json:"click_count"`
}

// IsArchived возвращает true для мягко удалённой ссылки
func (l *Link) IsArchived() bool {
	return l.DeletedAt != nil
}

// IsExpired возвращает true, если срок действия ссылки истёк к моменту now
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

type UTM struct {
	Source   *string `json:"source,omitempty"`
	Medium   *string `json:"medium,omitempty"`
	Campaign *string `json:"campaign,omitempty"`
	Term     *string `json:"term,omitempty"`
	Content  *string `json:"content,omitempty"`
}

type Expiration struct {
	Datetime *time.Time `json:"datetime,omitempty"`
	URL      *string    `json:"url,omitempty" binding:"omitempty,url"`
}

type CreateLinkInput struct {
	OriginalURL string      `json:"original_url" binding:"required,url"`
	ShortCode   *string     `json:"short_code,omitempty"`
	Type        *LinkType   `json:"type,omitempty"`
	Comments    *string     `json:"comments,omitempty"`
	QRCode      *string     `json:"qrcode,omitempty"`
	Expiration  *Expiration `json:"expiration,omitempty"`
	UTM         *UTM        `json:"utm,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// UpdateLinkInput: nil-поля не меняются. Tags == nil оставляет теги как есть,
// пустой срез удаляет все.
type UpdateLinkInput struct {
	ShortCode          *string    `json:"short_code,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	ExpiredRedirectURL *string    `json:"expired_redirect_url,omitempty"`
	QRCode             *string    `json:"qrcode,omitempty"`
	Comments           *string    `json:"comments,omitempty"`
	UTM                *UTM       `json:"utm,omitempty"`
	Tags               *[]string  `json:"tags,omitempty"`
}

// TagDiff - изменения связей ссылки с тегами
type TagDiff struct {
	ToRemove []string `json:"to_remove"`
	ToAdd    []string `json:"to_add"`
}

func (d TagDiff) IsEmpty() bool {
	return len(d.ToRemove) == 0 && len(d.ToAdd) == 0
}

type LinkFilter struct {
	UserID        *int64
	ExcludeUserID *int64
	Deleted       *bool
	Expired       *bool
}

type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

func NewPage[T any](items []T, total int64, p Pagination) *Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: pages,
	}
}

type OwnLinks struct {
	*Page[Link]
	Tags []string `json:"tags"`
}

type LinkStats struct {
	ShortCode    string `json:"short_code"`
	TotalClicks  int64  `json:"total_clicks"`
	UniqueClicks int64  `json:"unique_clicks"`
}
