package domain

// Project is the purchasable good as seen by the settlement core.
type Project struct {
	ProjectID    string `json:"projectID"`
	SellerID     string `json:"sellerID"`
	Title        string `json:"title"`
	Price        int64  `json:"price"` // smallest currency unit
	CurrencyCode string `json:"currencyCode"`
	Purchasable  bool   `json:"purchasable"`
}

// Buyer is the subset of a marketplace user the settlement core needs.
type Buyer struct {
	UserID   string `json:"userID"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`
}
