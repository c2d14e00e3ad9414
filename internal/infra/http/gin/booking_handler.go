package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/dto"
	"stayhub/internal/app/policy"
	bookingsvc "stayhub/internal/app/services/booking"
	domainbooking "stayhub/internal/domain/booking"
	domainproperty "stayhub/internal/domain/property"
	"stayhub/internal/domain/shared/daterange"
	domainuser "stayhub/internal/domain/user"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
	Mine(c *gin.Context)
	ForHost(c *gin.Context)
	All(c *gin.Context)
}

type BookingHandler struct {
	Service    *bookingsvc.Service
	Properties domainproperty.Repository
	Logger     *slog.Logger
}

type createBookingRequest struct {
	PropertyID string    `json:"property_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
}

func (h BookingHandler) Create(c *gin.Context) {
	p, ok := requireOperation(c, policy.OpCreateBooking)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	b, err := h.Service.Create(c.Request.Context(), bookingsvc.CreateParams{
		PropertyID: domainproperty.ID(req.PropertyID),
		UserID:     domainuser.ID(p.ID),
		CheckIn:    req.CheckIn,
		CheckOut:   req.CheckOut,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(c.Request.Context(), b))
}

func (h BookingHandler) Confirm(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpConfirmBooking); !ok {
		return
	}
	b, err := h.Service.Confirm(c.Request.Context(), domainbooking.ID(c.Param("id")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(c.Request.Context(), b))
}

func (h BookingHandler) Cancel(c *gin.Context) {
	p, ok := requireOperation(c, policy.OpCancelBooking)
	if !ok {
		return
	}
	b, err := h.Service.Cancel(c.Request.Context(), domainbooking.ID(c.Param("id")), p.Email, p.IsAdmin())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.view(c.Request.Context(), b))
}

func (h BookingHandler) Mine(c *gin.Context) {
	p, ok := requireOperation(c, policy.OpListMyBookings)
	if !ok {
		return
	}
	items, err := h.Service.ByUser(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.collection(c.Request.Context(), items))
}

// ForHost lists bookings placed against the caller's properties.
func (h BookingHandler) ForHost(c *gin.Context) {
	p, ok := requireOperation(c, policy.OpListHostBookings)
	if !ok {
		return
	}
	items, err := h.Service.ForHost(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.collection(c.Request.Context(), items))
}

func (h BookingHandler) All(c *gin.Context) {
	if _, ok := requireOperation(c, policy.OpListAllBookings); !ok {
		return
	}
	items, err := h.Service.All(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.collection(c.Request.Context(), items))
}

func (h BookingHandler) view(ctx context.Context, b *domainbooking.Booking) dto.BookingView {
	var listing *domainproperty.Property
	if h.Properties != nil && b != nil {
		listing, _ = h.Properties.ByID(ctx, b.PropertyID)
	}
	return dto.MapBookingView(b, listing)
}

func (h BookingHandler) collection(ctx context.Context, items []*domainbooking.Booking) dto.BookingCollection {
	out := dto.BookingCollection{Items: make([]dto.BookingView, 0, len(items))}
	cache := map[domainproperty.ID]*domainproperty.Property{}
	for _, b := range items {
		listing, seen := cache[b.PropertyID]
		if !seen && h.Properties != nil {
			listing, _ = h.Properties.ByID(ctx, b.PropertyID)
			cache[b.PropertyID] = listing
		}
		out.Items = append(out.Items, dto.MapBookingView(b, listing))
	}
	return out
}

func (h BookingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrNotFound),
		errors.Is(err, domainproperty.ErrNotFound),
		errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrPropertyRequired),
		errors.Is(err, domainbooking.ErrUserRequired),
		errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrCheckInPast),
		errors.Is(err, domainbooking.ErrCancelledUpdate),
		errors.Is(err, domainproperty.ErrNotApproved):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domainbooking.ErrDateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bookingsvc.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	default:
		if h.Logger != nil {
			h.Logger.Error("booking operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ BookingHTTP = (*BookingHandler)(nil)
