package authorization

import "context"

// Authorization is a billing scope grouping agreements under one currency.
type Authorization struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Currency string `json:"currency" validate:"required"`
}

// Repository reads authorizations from the marketplace
type Repository interface {
	Get(ctx context.Context, id string) (*Authorization, error)
	// List returns every authorization of the given product
	List(ctx context.Context, productID string) ([]*Authorization, error)
}
