package handler

import (
	"net/http"
	"time"

	"github.com/nexumi/nexumi-core/internal/domain"
	"github.com/nexumi/nexumi-core/internal/marketplace"
)

// MaxListingTTLHours caps client-chosen listing lifetimes at 30 days
const MaxListingTTLHours = 720

// CreateListingRequest lists items from the seller's inventory
type CreateListingRequest struct {
	ItemID      string `json:"item_id" validate:"required,entityid"`
	Quantity    int    `json:"quantity" validate:"required,min=1,max=10000"`
	Price       int    `json:"price" validate:"required,min=1"`
	Category    string `json:"category,omitempty" validate:"omitempty,max=32,excludesall=\x00\n\r\t"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Condition   string `json:"condition,omitempty" validate:"omitempty,max=32"`
	TTLHours    int    `json:"ttl_hours,omitempty" validate:"omitempty,min=1,listingttl"`
}

// PurchaseResponse is returned by a committed purchase
type PurchaseResponse struct {
	Listing *domain.Listing `json:"listing"`
	Buyer   *domain.Player  `json:"buyer"`
}

// ListingHandler serves marketplace endpoints
type ListingHandler struct {
	market marketplace.Service
}

// NewListingHandler creates a ListingHandler
func NewListingHandler(market marketplace.Service) *ListingHandler {
	return &ListingHandler{market: market}
}

// HandleCreate lists items for sale
// @Summary Create listing
// @Description Moves the items out of the seller's inventory and lists them for sale
// @Tags marketplace
// @Accept json
// @Produce json
// @Param request body CreateListingRequest true "Listing details"
// @Success 201 {object} domain.Listing
// @Failure 400 {object} ValidationErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/listings [post]
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}

	var req CreateListingRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Create listing"); err != nil {
		return
	}

	listing, err := h.market.List(r.Context(), sellerID, marketplace.ListRequest{
		ItemID:      req.ItemID,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Category:    req.Category,
		Description: req.Description,
		Condition:   req.Condition,
		TTL:         time.Duration(req.TTLHours) * time.Hour,
	})
	if err != nil {
		respondServiceError(w, r, "Create listing", err)
		return
	}
	respondJSON(w, http.StatusCreated, listing)
}

// HandleSearch browses listings
// @Summary Search listings
// @Tags marketplace
// @Produce json
// @Param status query string false "active, sold, cancelled or expired (default active)"
// @Param category query string false "Category"
// @Param seller_id query string false "Seller"
// @Param item_id query string false "Item"
// @Param max_price query int false "Maximum price"
// @Param sort query string false "created_at or price"
// @Param order query string false "asc or desc"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} domain.Listing
// @Router /api/v1/listings [get]
func (h *ListingHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit, ok := GetIntQueryParam(r, w, "limit", 0)
	if !ok {
		return
	}
	offset, ok := GetIntQueryParam(r, w, "offset", 0)
	if !ok {
		return
	}
	maxPrice, ok := GetIntQueryParam(r, w, "max_price", 0)
	if !ok {
		return
	}

	status := domain.ListingStatus(GetOptionalQueryParam(r, "status", string(domain.ListingActive)))
	if !status.Valid() {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: map[string]string{"status": "Must be one of: active sold cancelled expired"},
		})
		return
	}

	listings, err := h.market.Search(r.Context(), marketplace.ListingFilter{
		Status:   status,
		Category: r.URL.Query().Get("category"),
		SellerID: r.URL.Query().Get("seller_id"),
		ItemID:   r.URL.Query().Get("item_id"),
		MaxPrice: maxPrice,
		SortBy:   r.URL.Query().Get("sort"),
		Desc:     r.URL.Query().Get("order") == "desc",
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondServiceError(w, r, "Search listings", err)
		return
	}
	respondJSON(w, http.StatusOK, listings)
}

// HandleGet returns one listing
// @Summary Get listing
// @Tags marketplace
// @Produce json
// @Param listingID path string true "Listing ID"
// @Success 200 {object} domain.Listing
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/listings/{listingID} [get]
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listingID, ok := pathID(w, r, "listingID")
	if !ok {
		return
	}
	listing, err := h.market.Get(r.Context(), listingID)
	if err != nil {
		respondServiceError(w, r, "Get listing", err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}

// HandlePurchase buys a listing for the authenticated player
// @Summary Purchase listing
// @Description Debits the buyer, credits the seller and marks the listing sold, all or nothing
// @Tags marketplace
// @Produce json
// @Param listingID path string true "Listing ID"
// @Success 200 {object} PurchaseResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/listings/{listingID}/purchase [post]
func (h *ListingHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}
	listingID, ok := pathID(w, r, "listingID")
	if !ok {
		return
	}

	res, err := h.market.Purchase(r.Context(), buyerID, listingID)
	if err != nil {
		respondServiceError(w, r, "Purchase listing", err)
		return
	}
	respondJSON(w, http.StatusOK, PurchaseResponse{Listing: res.Listing, Buyer: res.Buyer})
}

// HandleCancel withdraws the seller's listing and returns the items
// @Summary Cancel listing
// @Tags marketplace
// @Produce json
// @Param listingID path string true "Listing ID"
// @Success 200 {object} domain.Listing
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/listings/{listingID}/cancel [post]
func (h *ListingHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requirePlayerID(w, r)
	if !ok {
		return
	}
	listingID, ok := pathID(w, r, "listingID")
	if !ok {
		return
	}

	listing, err := h.market.Cancel(r.Context(), sellerID, listingID)
	if err != nil {
		respondServiceError(w, r, "Cancel listing", err)
		return
	}
	respondJSON(w, http.StatusOK, listing)
}
