package projection

// SupplyResponse is the body of GET /v1/supply.
type SupplyResponse struct {
	TotalSupply int64 `json:"total_supply"`
}

// BalanceResponse is the body of GET /v1/users/:identity/balance.
// Balance counts tokens owned, valid or not.
type BalanceResponse struct {
	Identity string `json:"identity"`
	Balance  int64  `json:"balance"`
}

// OwnerResponse is the body of GET /v1/tickets/:token_id/owner.
type OwnerResponse struct {
	TokenID uint64 `json:"token_id"`
	Owner   string `json:"owner"`
}

// TokensResponse is the body of GET /v1/users/:identity/tokens.
type TokensResponse struct {
	Identity string   `json:"identity"`
	TokenIDs []uint64 `json:"token_ids"`
}
