package mpt

import (
	"context"
	"fmt"

	"github.com/finops/ffc-billing/internal/domain/authorization"
	"github.com/finops/ffc-billing/internal/integration/base"
	"github.com/finops/ffc-billing/internal/validator"
)

type authorizationRepository struct {
	client *Client
}

func NewAuthorizationRepository(client *Client) authorization.Repository {
	return &authorizationRepository{client: client}
}

func (r *authorizationRepository) Get(ctx context.Context, id string) (*authorization.Authorization, error) {
	var auth authorization.Authorization
	if err := r.client.getJSON(ctx, fmt.Sprintf("/catalog/authorizations/%s", id), &auth); err != nil {
		return nil, err
	}
	if err := validator.ValidateRequest(&auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func (r *authorizationRepository) List(ctx context.Context, productID string) ([]*authorization.Authorization, error) {
	return collection[authorization.Authorization](r.client, "/catalog/authorizations", base.Eq("product.id", productID)).
		All(ctx)
}
