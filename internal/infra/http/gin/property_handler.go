package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/policy"
	listingsvc "stayhub/internal/app/services/listing"
	domainproperty "stayhub/internal/domain/property"
	domainuser "stayhub/internal/domain/user"
)

type PropertyHTTP interface {
	Catalog(c *gin.Context)
	Available(c *gin.Context)
	Search(c *gin.Context)
	Pending(c *gin.Context)
	All(c *gin.Context)
	Mine(c *gin.Context)
	Submit(c *gin.Context)
	Approve(c *gin.Context)
	Reject(c *gin.Context)
}

type PropertyHandler struct {
	Service *listingsvc.Service
	Logger  *slog.Logger
}

type submitPropertyRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	NightlyRate int64  `json:"nightly_rate"`
	Currency    string `json:"currency"`
	Available   *bool  `json:"available"`
}

// Catalog is the public list of approved listings.
func (h PropertyHandler) Catalog(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpListPublic); !ok {
		return
	}
	items, err := h.Service.Approved(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyCollection(items))
}

// Available narrows the catalog to listings open for booking right now.
func (h PropertyHandler) Available(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpListPublic); !ok {
		return
	}
	items, err := h.Service.AvailableApproved(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyCollection(items))
}

// Search runs the paged catalog query.
func (h PropertyHandler) Search(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpListPublic); !ok {
		return
	}
	params := searchParamsFromQuery(c)
	result, err := h.Service.SearchApproved(c.Request.Context(), params)
	if err != nil {
		h.respondError(c, err)
		return
	}
	normalized := params.Normalized()
	views := make([]dto.PropertyView, 0, len(result.Items))
	for _, p := range result.Items {
		views = append(views, dto.MapPropertyView(p))
	}
	c.JSON(http.StatusOK, dto.NewPaged(views, normalized.Page, normalized.Size, result.Total))
}

func (h PropertyHandler) Pending(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpListPending); !ok {
		return
	}
	items, err := h.Service.Pending(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyCollection(items))
}

func (h PropertyHandler) All(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpListAllProperties); !ok {
		return
	}
	items, err := h.Service.All(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyCollection(items))
}

// Mine lists the calling host's own submissions across all statuses.
func (h PropertyHandler) Mine(c *gin.Context) {
	p, ok := requireOperation(c, policy.OpListMyListings)
	if !ok {
		return
	}
	items, err := h.Service.ByOwner(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyCollection(items))
}

func (h PropertyHandler) Submit(c *gin.Context) {
	p, ok := requireOperation(c, policy.OpSubmitListing)
	if !ok {
		return
	}
	var req submitPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	listing, err := h.Service.Submit(c.Request.Context(), listingsvc.SubmitParams{
		Name:        req.Name,
		Location:    req.Location,
		NightlyRate: req.NightlyRate,
		Currency:    req.Currency,
		Available:   req.Available,
	}, domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapPropertyView(listing))
}

func (h PropertyHandler) Approve(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpApproveListing); !ok {
		return
	}
	listing, err := h.Service.Approve(c.Request.Context(), domainproperty.ID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyView(listing))
}

func (h PropertyHandler) Reject(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpRejectListing); !ok {
		return
	}
	listing, err := h.Service.Reject(c.Request.Context(), domainproperty.ID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapPropertyView(listing))
}

func (h PropertyHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainproperty.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainproperty.ErrNameRequired),
		errors.Is(err, domainproperty.ErrLocationRequired),
		errors.Is(err, domainproperty.ErrRateNotPositive):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("listing operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func searchParamsFromQuery(c *gin.Context) domainproperty.SearchParams {
	params := domainproperty.SearchParams{
		Query:         c.Query("q"),
		AvailableOnly: c.Query("available") == "true",
		Sort:          domainproperty.SearchSort(c.Query("sort")),
		Descending:    c.Query("order") == "desc",
	}
	params.PriceMin, _ = strconv.ParseInt(c.Query("price_min"), 10, 64)
	params.PriceMax, _ = strconv.ParseInt(c.Query("price_max"), 10, 64)
	params.Page, _ = strconv.Atoi(c.Query("page"))
	params.Size, _ = strconv.Atoi(c.Query("size"))
	return params
}

var _ PropertyHTTP = (*PropertyHandler)(nil)
