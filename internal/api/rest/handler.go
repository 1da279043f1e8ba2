package rest

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/flipmarket/flip-indexer/internal/api/rest/dto"
	"github.com/flipmarket/flip-indexer/internal/domain"
	"github.com/flipmarket/flip-indexer/internal/store"
	"github.com/flipmarket/flip-indexer/internal/store/schema"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetCollection retrieves a collection by its contract address
	// GET /api/v1/collections/:address
	GetCollection(c *gin.Context)

	// GetCollectionStats retrieves the aggregate counters for a collection
	// GET /api/v1/collections/:address/stats
	GetCollectionStats(c *gin.Context)

	// GetOwnership retrieves the current owner of a token
	// GET /api/v1/collections/:address/tokens/:token_id
	GetOwnership(c *gin.Context)

	// ListOwners retrieves the holder leaderboard of a collection
	// GET /api/v1/collections/:address/owners?limit=<limit>&offset=<offset>
	ListOwners(c *gin.Context)

	// GetOwnerSummary retrieves one owner's holding summary within a collection
	// GET /api/v1/collections/:address/owners/:owner
	GetOwnerSummary(c *gin.Context)

	// ListTxs retrieves the activity feed of a collection, newest first
	// GET /api/v1/collections/:address/txs?sender=<address>&type=<tx_type>&token_id=<id>&limit=<limit>&offset=<offset>
	ListTxs(c *gin.Context)

	// GetCrossChainStatus retrieves the latest cross-chain leg of a token
	// GET /api/v1/collections/:address/crosschain/:token_id
	GetCrossChainStatus(c *gin.Context)

	// ListCrossChainByParty retrieves cross-chain legs where the address is sender or receiver
	// GET /api/v1/collections/:address/crosschain?party=<address>
	ListCrossChainByParty(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store store.Store
}

// NewHandler creates a new REST API handler backed by the store
func NewHandler(st store.Store) Handler {
	return &handler{store: st}
}

// collectionAddress validates and normalizes the :address path parameter,
// writing the error response itself on failure.
func collectionAddress(c *gin.Context) (string, bool) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		respondBadRequest(c, "Invalid collection address")
		return "", false
	}
	return domain.NormalizeAddress(address), true
}

// GetCollection retrieves a collection by its contract address
func (h *handler) GetCollection(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}

	collection, err := h.store.GetCollection(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, "Failed to get collection")
		return
	}
	if collection == nil {
		respondNotFound(c, "Collection not found")
		return
	}

	c.JSON(http.StatusOK, dto.FromCollection(collection))
}

// GetCollectionStats retrieves the aggregate counters for a collection
func (h *handler) GetCollectionStats(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}

	stats, err := h.store.GetCollectionStats(c.Request.Context(), address)
	if err != nil {
		respondInternalError(c, err, "Failed to get collection stats")
		return
	}
	if stats == nil {
		respondNotFound(c, "Collection stats not found")
		return
	}

	c.JSON(http.StatusOK, dto.FromCollectionStats(stats))
}

// GetOwnership retrieves the current owner of a token
func (h *handler) GetOwnership(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}
	tokenID := c.Param("token_id")
	if tokenID == "" {
		respondBadRequest(c, "Token ID is required")
		return
	}

	ownership, err := h.store.GetOwnership(c.Request.Context(), domain.OwnershipID(address, tokenID))
	if err != nil {
		respondInternalError(c, err, "Failed to get ownership")
		return
	}
	if ownership == nil {
		respondNotFound(c, "Token not found")
		return
	}

	c.JSON(http.StatusOK, dto.FromOwnership(ownership))
}

// ListOwners retrieves the holder leaderboard of a collection
func (h *handler) ListOwners(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}

	params, err := ParseListOwnersQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	summaries, err := h.store.ListOwners(c.Request.Context(), address, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list owners")
		return
	}

	items := make([]*dto.OwnershipSummary, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, dto.FromOwnershipSummary(s))
	}

	c.JSON(http.StatusOK, dto.List[*dto.OwnershipSummary]{
		Items:  items,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// GetOwnerSummary retrieves one owner's holding summary within a collection
func (h *handler) GetOwnerSummary(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}
	owner := c.Param("owner")
	if !common.IsHexAddress(owner) {
		respondBadRequest(c, "Invalid owner address")
		return
	}

	summary, err := h.store.GetSummary(c.Request.Context(), domain.SummaryID(address, owner))
	if err != nil {
		respondInternalError(c, err, "Failed to get owner summary")
		return
	}
	if summary == nil {
		respondNotFound(c, "Owner summary not found")
		return
	}

	c.JSON(http.StatusOK, dto.FromOwnershipSummary(summary))
}

// ListTxs retrieves the activity feed of a collection, newest first
func (h *handler) ListTxs(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}

	params, err := ParseListTxsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	filter := store.TxFilter{
		CollectionAddress: address,
		TxType:            schema.TxType(params.TxType),
		TokenID:           params.TokenID,
		Limit:             params.Limit,
		Offset:            params.Offset,
	}
	if params.Sender != "" {
		filter.Sender = domain.NormalizeAddress(params.Sender)
	}

	txs, err := h.store.ListTxs(c.Request.Context(), filter)
	if err != nil {
		respondInternalError(c, err, "Failed to list txs")
		return
	}

	items := make([]*dto.Tx, 0, len(txs))
	for _, t := range txs {
		items = append(items, dto.FromTx(t))
	}

	c.JSON(http.StatusOK, dto.List[*dto.Tx]{
		Items:  items,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
}

// GetCrossChainStatus retrieves the latest cross-chain leg of a token
func (h *handler) GetCrossChainStatus(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}
	tokenID := c.Param("token_id")
	if tokenID == "" {
		respondBadRequest(c, "Token ID is required")
		return
	}

	status, err := h.store.GetCrossChainStatus(c.Request.Context(), domain.CrossChainID(address, tokenID))
	if err != nil {
		respondInternalError(c, err, "Failed to get cross-chain status")
		return
	}
	if status == nil {
		respondNotFound(c, "Cross-chain status not found")
		return
	}

	c.JSON(http.StatusOK, dto.FromCrossChainStatus(status))
}

// ListCrossChainByParty retrieves cross-chain legs where the address is sender or receiver
func (h *handler) ListCrossChainByParty(c *gin.Context) {
	address, ok := collectionAddress(c)
	if !ok {
		return
	}
	party := c.Query("party")
	if !common.IsHexAddress(party) {
		respondBadRequest(c, "Invalid party address")
		return
	}

	statuses, err := h.store.ListCrossChainByParty(c.Request.Context(), address, domain.NormalizeAddress(party))
	if err != nil {
		respondInternalError(c, err, "Failed to list cross-chain statuses")
		return
	}

	items := make([]*dto.CrossChainStatus, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, dto.FromCrossChainStatus(s))
	}

	c.JSON(http.StatusOK, items)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
