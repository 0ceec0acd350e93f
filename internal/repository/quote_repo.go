package repository

import (
	"context"
	"strings"

	"go-paper-orders/internal/model"

	"gorm.io/gorm"
)

const DefaultHistoryLimit = 5

// QuoteHistoryRepository searches and extends the archive of past quotes.
type QuoteHistoryRepository interface {
	Search(ctx context.Context, terms []string, limit int) ([]model.QuoteMatch, error)
	Create(ctx context.Context, request *model.QuoteRequest, quote *model.HistoricalQuote) error
}

type quoteRepo struct {
	db *gorm.DB
}

func NewQuoteRepo(db *gorm.DB) QuoteHistoryRepository {
	return &quoteRepo{db}
}

// Search returns the most recent quotes whose request text or explanation
// contains every term, case-insensitively.
func (r *quoteRepo) Search(ctx context.Context, terms []string, limit int) ([]model.QuoteMatch, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := r.db.WithContext(ctx).
		Table("quotes AS q").
		Select(`qr.response AS original_request, q.total_amount, q.quote_explanation,
			q.job_type, q.order_size, q.event_type, q.order_date`).
		Joins("JOIN quote_requests AS qr ON q.request_id = qr.id")

	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		pattern := "%" + term + "%"
		query = query.Where("(LOWER(qr.response) LIKE ? OR LOWER(q.quote_explanation) LIKE ?)", pattern, pattern)
	}

	var matches []model.QuoteMatch
	err := query.Order("q.order_date DESC, q.id DESC").Limit(limit).Scan(&matches).Error
	return matches, err
}

// Create stores a request and its quote together.
func (r *quoteRepo) Create(ctx context.Context, request *model.QuoteRequest, quote *model.HistoricalQuote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		quote.RequestID = request.ID
		return tx.Omit("Request").Create(quote).Error
	})
}
