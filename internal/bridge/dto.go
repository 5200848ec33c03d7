package bridge

import "github.com/Veraticus/finsight/internal/model"

// AccountDTO is the wire shape of an account.
type AccountDTO struct {
	Name        string `json:"name"`
	AccountType string `json:"account_type"`
	ID          int64  `json:"id"`
	Archived    bool   `json:"archived"`
}

// TransactionDTO is the wire shape of a transaction.
type TransactionDTO struct {
	TransactionType string `json:"transaction_type"`
	Description     string `json:"description"`
	TransactionDate string `json:"transaction_date"`
	ID              int64  `json:"id"`
	AccountID       int64  `json:"account_id"`
	AmountCents     int64  `json:"amount_cents"`
	CategoryID      int64  `json:"category_id"`
}

// CategoryDTO is the wire shape of a category. ParentID is null for roots.
type CategoryDTO struct {
	ParentID *int64 `json:"parent_id"`
	Name     string `json:"name"`
	ID       int64  `json:"id"`
}

func accountDTOs(accounts []model.Account) []AccountDTO {
	out := make([]AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountDTO{
			ID:          a.ID,
			Name:        a.Name,
			AccountType: string(a.Type),
			Archived:    a.Archived,
		})
	}
	return out
}

func transactionDTOs(transactions []model.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, TransactionDTO{
			ID:              t.ID,
			AccountID:       t.AccountID,
			AmountCents:     t.AmountCents,
			TransactionType: string(t.Type),
			Description:     t.Description,
			TransactionDate: t.DateString(),
			CategoryID:      t.CategoryID,
		})
	}
	return out
}

func categoryDTOs(categories []model.Category) []CategoryDTO {
	out := make([]CategoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryDTO{
			ID:       c.ID,
			Name:     c.Name,
			ParentID: c.ParentID,
		})
	}
	return out
}
