package models

import (
	"time"
)

type ReviewAction string

const (
	ReviewActionApprove  ReviewAction = "APPROVE"
	ReviewActionReject   ReviewAction = "REJECT"
	ReviewActionEscalate ReviewAction = "ESCALATE"
)

func (a ReviewAction) Valid() bool {
	switch a {
	case ReviewActionApprove, ReviewActionReject, ReviewActionEscalate:
		return true
	}
	return false
}

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "PENDING"
	ReviewStatusApproved ReviewStatus = "APPROVED"
	ReviewStatusRejected ReviewStatus = "REJECTED"
)

// ReviewedURL - адрес, прошедший модерацию, независимо от коротких ссылок на него
type ReviewedURL struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	Type        LinkType  `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

type Review struct {
	ID         int64        `json:"id"`
	URLID      int64        `json:"url_id"`
	ReviewerID int64        `json:"reviewer_id"`
	Action     ReviewAction `json:"action"`
	Status     ReviewStatus `json:"status"`
	Reason     *string      `json:"reason,omitempty"`
	Evidence   *string      `json:"evidence,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	URL        *ReviewedURL `json:"url,omitempty"`
}

type ReviewInput struct {
	OriginalURL string       `json:"original_url" binding:"required,url"`
	Type        LinkType     `json:"type" binding:"required"`
	Action      ReviewAction `json:"action" binding:"required"`
	Reason      *string      `json:"reason,omitempty"`
	Evidence    *string      `json:"evidence,omitempty"`
}
