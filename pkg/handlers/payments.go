package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/db/queries"
	"github.com/animateai/animateai-backend/pkg/middleware"
	"github.com/animateai/animateai-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	rputils "github.com/razorpay/razorpay-go/utils"
	log "github.com/sirupsen/logrus"
)

type CreateOrderRequest struct {
	Plan   string `json:"plan" binding:"required,eq=pro"`
	Amount int    `json:"amount" binding:"required,gt=0"` // in paise
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
}

type PaymentAmountRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
}

// CreateOrder opens a Razorpay order for the pro-plan checkout.
func (h *Handlers) CreateOrder(c *gin.Context) {
	if h.Razorpay == nil {
		utils.ResponseWithError(c, http.StatusServiceUnavailable, "Payments are not configured", nil)
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateOrder: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("CreateOrder: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	order, err := h.Razorpay.Order.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": "INR",
		"receipt":  fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		"notes": map[string]interface{}{
			"user_id": claims.UserID.String(),
			"plan":    req.Plan,
			"amount":  req.Amount,
		},
	}, nil)
	if err != nil {
		log.Errorf("CreateOrder: Razorpay order creation failed for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusBadGateway, "Failed to create payment order", nil)
		return
	}

	log.Infof("Razorpay order %v created for user %s.", order["id"], claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Order created", gin.H{
		"order_id": order["id"],
		"key_id":   h.Config.RazorpayKeyID,
		"amount":   order["amount"],
		"currency": order["currency"],
	})
}

// VerifyPayment checks the checkout signature, upgrades the user's plan and
// records the payment.
func (h *Handlers) VerifyPayment(c *gin.Context) {
	if h.Razorpay == nil {
		utils.ResponseWithError(c, http.StatusServiceUnavailable, "Payments are not configured", nil)
		return
	}

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("VerifyPayment: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("VerifyPayment: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	params := map[string]interface{}{
		"razorpay_order_id":   req.RazorpayOrderID,
		"razorpay_payment_id": req.RazorpayPaymentID,
	}
	if !rputils.VerifyPaymentSignature(params, req.RazorpaySignature, h.Config.RazorpayKeySecret) {
		log.Warnf("VerifyPayment: Signature verification failed for order %s (user %s).", req.RazorpayOrderID, claims.UserID.String())
		utils.ResponseWithError(c, http.StatusBadRequest, "Signature verification failed", nil)
		return
	}

	if err := queries.UpgradeUserPlan(claims.UserID); err != nil {
		log.Errorf("VerifyPayment: Failed to upgrade plan for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to upgrade plan", nil)
		return
	}

	payment := &db.Payment{
		UserID:    claims.UserID,
		PaymentID: req.RazorpayPaymentID,
		OrderID:   req.RazorpayOrderID,
		Status:    "success",
	}
	if _, err := queries.CreatePayment(payment); err != nil {
		log.Errorf("VerifyPayment: Failed to record payment %s: %v", req.RazorpayPaymentID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to record payment", nil)
		return
	}

	log.Infof("Payment %s verified; user %s upgraded to pro.", req.RazorpayPaymentID, claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Payment verified", gin.H{"success": true})
}

// GetPaymentAmount fetches the details of one of the authenticated user's
// payments from Razorpay. The payment must exist in the local payments table
// and belong to the requesting user.
func (h *Handlers) GetPaymentAmount(c *gin.Context) {
	if h.Razorpay == nil {
		utils.ResponseWithError(c, http.StatusServiceUnavailable, "Payments are not configured", nil)
		return
	}

	var req PaymentAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("GetPaymentAmount: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Missing payment_id", err.Error())
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("GetPaymentAmount: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	record, err := queries.FindPaymentByPaymentID(req.PaymentID)
	if err != nil {
		log.Errorf("GetPaymentAmount: Failed to look up payment %s: %v", req.PaymentID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to look up payment", nil)
		return
	}
	if record == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Payment not found", nil)
		return
	}
	if record.UserID != claims.UserID {
		log.Warnf("GetPaymentAmount: User %s attempted to access payment %s owned by %s.", claims.UserID.String(), req.PaymentID, record.UserID.String())
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to access this payment", nil)
		return
	}

	payment, err := h.Razorpay.Payment.Fetch(req.PaymentID, nil, nil)
	if err != nil {
		log.Errorf("GetPaymentAmount: Failed to fetch payment %s: %v", req.PaymentID, err)
		utils.ResponseWithError(c, http.StatusBadGateway, "Failed to fetch payment details", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Payment details retrieved", gin.H{
		"amount":     payment["amount"],
		"currency":   payment["currency"],
		"status":     payment["status"],
		"method":     payment["method"],
		"created_at": payment["created_at"],
	})
}
