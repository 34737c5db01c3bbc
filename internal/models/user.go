package models

// User is the subset of the marketplace users table read by the payment core.
type User struct {
	UserID   string `db:"user_id"`
	Email    string `db:"email"`
	IsActive bool   `db:"is_active"`
}

// Project is the subset of the marketplace projects table read by the payment core.
type Project struct {
	ProjectID    string `db:"project_id"`
	SellerID     string `db:"seller_id"`
	Title        string `db:"title"`
	Price        int64  `db:"price"`
	CurrencyCode string `db:"currency_code"`
	Status       string `db:"status"`
	IsActive     bool   `db:"is_active"`
}
