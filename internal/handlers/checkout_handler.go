package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-checkoutflow/internal/address"
	"github.com/imrishuroy/go-checkoutflow/internal/checkout"
	"github.com/imrishuroy/go-checkoutflow/internal/idempotency"
	"github.com/imrishuroy/go-checkoutflow/internal/payment"
	"github.com/imrishuroy/go-checkoutflow/internal/validation"
)

// HandlerConfig groups dependencies for the checkout handlers.
type HandlerConfig struct {
	Service *checkout.Service
	// Idempotency is optional; without it Idempotency-Key headers are ignored.
	Idempotency *idempotency.Store
	Validate    *validatorv10.Validate
	Logger      *log.Logger
}

type startRequest struct {
	SellerID string `json:"sellerId"`
}

type validateFieldRequest struct {
	Address address.Address `json:"address" validate:"-"`
	Field   string          `json:"field" validate:"required"`
}

type selectAddressRequest struct {
	AddressID string `json:"addressId" validate:"required"`
}

type checkoutHandler struct {
	svc    *checkout.Service
	idemp  *idempotency.Store
	v      *validatorv10.Validate
	logger *log.Logger
}

// RegisterCheckoutRoutes registers the checkout session and order history routes.
func RegisterCheckoutRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &checkoutHandler{svc: cfg.Service, idemp: cfg.Idempotency, v: cfg.Validate, logger: cfg.Logger}
	if h.v == nil {
		h.v = validation.New()
	}
	if h.logger == nil {
		h.logger = log.New(os.Stderr, "", log.LstdFlags)
	}

	g := r.Group("/", requireBuyer())
	g.POST("/checkout", h.start)
	g.GET("/orders/history", h.history)

	s := g.Group("/checkout/:id", h.loadSession)
	s.GET("", h.view)
	s.POST("/addresses", h.addAddress)
	s.POST("/addresses/validate", h.validateAddressField)
	s.PUT("/addresses/selected", h.selectAddress)
	s.POST("/proceed", h.proceed)
	s.POST("/back", h.back)
	s.PUT("/payment", h.setPayment)
	s.POST("/submit", h.submit)
	s.DELETE("/notice", h.dismissNotice)
}

const sessionKey = "checkoutSession"

func (h *checkoutHandler) loadSession(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("id"), buyerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		c.Abort()
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func session(c *gin.Context) *checkout.Session {
	return c.MustGet(sessionKey).(*checkout.Session)
}

func (h *checkoutHandler) start(c *gin.Context) {
	var req startRequest
	if err := validation.BindOptional(c, &req, h.v); err != nil {
		return
	}

	sess, err := h.svc.Start(c.Request.Context(), buyerID(c), req.SellerID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	body := gin.H{"session": sess.View()}
	if r, ok := sess.Redirect(); ok {
		h.svc.Save(c.Request.Context(), sess)
		body["redirect"] = r
		c.JSON(http.StatusOK, body)
		return
	}
	c.Header("Location", fmt.Sprintf("/checkout/%s", sess.ID))
	c.JSON(http.StatusCreated, body)
}

func (h *checkoutHandler) view(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"session": session(c).View()})
}

func (h *checkoutHandler) addAddress(c *gin.Context) {
	// field rules are applied by the session so errors come back as invalid_address
	var a address.Address
	if err := validation.BindAndValidate(c, &a, nil); err != nil {
		return
	}
	sess := session(c)
	added, err := sess.AddAddress(c.Request.Context(), a)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.svc.Save(c.Request.Context(), sess)
	c.JSON(http.StatusCreated, gin.H{"address": added, "session": sess.View()})
}

func (h *checkoutHandler) validateAddressField(c *gin.Context) {
	var req validateFieldRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	fe, err := session(c).ValidateAddressField(req.Address, req.Field)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": len(fe) == 0, "fields": fe})
}

func (h *checkoutHandler) selectAddress(c *gin.Context) {
	var req selectAddressRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	sess := session(c)
	if err := sess.SelectAddress(req.AddressID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.svc.Save(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"session": sess.View()})
}

func (h *checkoutHandler) proceed(c *gin.Context) {
	sess := session(c)
	if err := sess.ProceedToPayment(); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.svc.Save(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"session": sess.View()})
}

func (h *checkoutHandler) back(c *gin.Context) {
	sess := session(c)
	if err := sess.Back(); err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.svc.Save(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"session": sess.View()})
}

func (h *checkoutHandler) setPayment(c *gin.Context) {
	// variant fields are checked by the session so that errors land on the form
	var req payment.Request
	if err := validation.BindAndValidate(c, &req, nil); err != nil {
		return
	}
	sel, err := req.Selection()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	sess := session(c)
	fe, err := sess.SetPayment(sel)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.svc.Save(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"valid": len(fe) == 0, "fields": fe, "session": sess.View()})
}

func (h *checkoutHandler) dismissNotice(c *gin.Context) {
	sess := session(c)
	sess.DismissNotice()
	h.svc.Save(c.Request.Context(), sess)
	c.JSON(http.StatusOK, gin.H{"session": sess.View()})
}

func (h *checkoutHandler) history(c *gin.Context) {
	orders, err := h.svc.OrderHistory(c.Request.Context(), buyerID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// submit places the order. With an Idempotency-Key header a repeated
// request replays the stored response (DONE), reports 202 (IN_PROGRESS) or
// runs again (FAILED).
func (h *checkoutHandler) submit(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session(c)

	var idempKey string
	if k := c.GetHeader("Idempotency-Key"); k != "" && h.idemp != nil {
		idempKey = idempotency.Key(buyerID(c), k)
		rec, created, err := h.idemp.Begin(ctx, idempKey, sess.ID)
		if err != nil {
			h.logger.Printf("[handlers] idempotency begin key=%s: %v", idempKey, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed"})
			return
		}
		if !created {
			h.replay(c, sess, rec)
			return
		}
	}

	order, err := sess.Submit(ctx)
	if err != nil {
		if idempKey != "" {
			if ferr := h.idemp.MarkFailed(ctx, idempKey, err.Error()); ferr != nil {
				h.logger.Printf("[handlers] idempotency mark failed key=%s: %v", idempKey, ferr)
			}
		}
		writeError(c, h.logger, err)
		return
	}

	body := gin.H{"order": order, "session": sess.View()}
	if r, ok := sess.Redirect(); ok {
		h.svc.Save(ctx, sess)
		body["redirect"] = r
	}
	if idempKey != "" {
		stored, _ := json.Marshal(gin.H{"order": order, "redirect": body["redirect"]})
		if err := h.idemp.MarkDone(ctx, idempKey, order.OrderID, string(stored), http.StatusCreated); err != nil {
			h.logger.Printf("[handlers] idempotency mark done key=%s: %v", idempKey, err)
		}
	}
	c.Header("Location", "/orders/history")
	c.JSON(http.StatusCreated, body)
}

func (h *checkoutHandler) replay(c *gin.Context, sess *checkout.Session, rec *idempotency.Record) {
	if rec.SessionID != sess.ID {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency_key_reused"})
		return
	}
	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"order_id": rec.OrderID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}
