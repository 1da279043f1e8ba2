package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

const MAX_PAGE_SIZE = 100

// ListTxsQueryParams holds query parameters for GET /collections/:address/txs
type ListTxsQueryParams struct {
	// Filters
	Sender  string `form:"sender"`
	TxType  string `form:"type"`
	TokenID string `form:"token_id"`

	// Pagination
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListOwnersQueryParams holds query parameters for GET /collections/:address/owners
type ListOwnersQueryParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

var validTxTypes = map[schema.TxType]struct{}{
	schema.TxTypeMint:     {},
	schema.TxTypeBuy:      {},
	schema.TxTypeSell:     {},
	schema.TxTypeBulkBuy:  {},
	schema.TxTypeBulkSell: {},
	schema.TxTypeBulkMint: {},
	schema.TxTypeQuickBuy: {},
}

// ParseListTxsQuery parses query parameters for GET /collections/:address/txs
func ParseListTxsQuery(c *gin.Context) (*ListTxsQueryParams, error) {
	var params ListTxsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.TxType != "" {
		if _, ok := validTxTypes[schema.TxType(params.TxType)]; !ok {
			return nil, fmt.Errorf("unknown tx type %q", params.TxType)
		}
	}

	// Cap limits
	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	return &params, nil
}

// ParseListOwnersQuery parses query parameters for GET /collections/:address/owners
func ParseListOwnersQuery(c *gin.Context) (*ListOwnersQueryParams, error) {
	var params ListOwnersQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limits
	if params.Limit > MAX_PAGE_SIZE {
		params.Limit = MAX_PAGE_SIZE
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	return &params, nil
}
