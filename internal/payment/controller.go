package payment

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

// PaymentController handles payment verification and subscription endpoints.
type PaymentController struct {
	DB     *database.DBinstanceStruct
	Client *RazorpayClient
}

// NewPaymentController creates a new instance of PaymentController
func NewPaymentController(db *database.DBinstanceStruct) *PaymentController {
	return &PaymentController{
		DB:     db,
		Client: NewRazorpayClientFromEnv(),
	}
}

type verifyInfo struct {
	RazorpayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	RazorpayOrderID   string `json:"razorpay_order_id" binding:"required"`
	RazorpaySignature string `json:"razorpay_signature" binding:"required"`
	PlanType          string `json:"planType" binding:"required,oneof=monthly yearly lifetime"`
}

type createOrderInfo struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type verifyResponse struct {
	Message      string             `json:"message"`
	Subscription model.Subscription `json:"subscription"`
}

// VerifyPaymentHandler checks the checkout signature returned by Razorpay,
// confirms the payment with the gateway, and only then upgrades the paying
// user's subscription. The subscription upsert is the source of truth; the
// payment audit row is best effort.
// @Summary Verify a Razorpay checkout signature and activate the plan
// @Description The subscription belongs to the authenticated user, not any id in the body
// @Tags Payment
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Payment body verifyInfo true "Checkout result fields from Razorpay"
// @Success 200 {object} verifyResponse "Payment verified and subscription active"
// @Failure 400 {object} utilities.ErrorResponse "Missing fields or signature mismatch"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Verification not configured, gateway fetch failed or database error"
// @Router /payment/verify [post]
func (pc *PaymentController) VerifyPaymentHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var info verifyInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "razorpay_payment_id, razorpay_order_id, razorpay_signature and planType must be provided",
		})
		return
	}

	secret := os.Getenv("RAZORPAY_KEY_SECRET")
	if secret == "" {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Payment verification is not configured",
		})
		return
	}

	if !VerifySignature(info.RazorpayOrderID, info.RazorpayPaymentID, info.RazorpaySignature, secret) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Payment verification failed",
		})
		return
	}

	now := time.Now()
	periodEnd, err := model.PeriodEnd(info.PlanType, now)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: err.Error(),
		})
		return
	}

	if !pc.Client.Configured() {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Payment verification is not configured",
		})
		return
	}

	// Confirm the payment exists with the gateway before any write happens.
	entity, err := pc.Client.FetchPayment(info.RazorpayPaymentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to confirm payment with gateway: %s", err.Error()),
		})
		return
	}

	subscription := model.Subscription{
		UserID:             user.ID,
		IsPremium:          true,
		PlanType:           info.PlanType,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
		RazorpayPaymentID:  info.RazorpayPaymentID,
		Status:             model.SubscriptionStatusActive,
	}

	err = pc.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"is_premium", "plan_type", "current_period_start", "current_period_end",
			"razorpay_payment_id", "status", "updated_at",
		}),
	}).Create(&subscription).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update subscription: %s", err.Error()),
		})
		return
	}

	// Reload so the response carries the stored row, not the insert struct.
	if err := pc.DB.Where("user_id = ?", user.ID).First(&subscription).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to load subscription: %s", err.Error()),
		})
		return
	}

	pc.recordPayment(user.ID, subscription.ID, info, entity)

	c.JSON(http.StatusOK, verifyResponse{
		Message:      "Payment verified",
		Subscription: subscription,
	})
}

// recordPayment inserts the audit row from the gateway payment entity. A
// failure here never fails the verified payment, it is logged and swallowed.
func (pc *PaymentController) recordPayment(userID uuid.UUID, subscriptionID uint, info verifyInfo, entity PaymentEntity) {
	audit := model.Payment{
		UserID:            userID,
		SubscriptionID:    &subscriptionID,
		RazorpayPaymentID: info.RazorpayPaymentID,
		RazorpayOrderID:   info.RazorpayOrderID,
		Amount:            entity.Amount,
		Currency:          "INR",
		Status:            model.PaymentStatusCaptured,
	}
	if entity.Currency != "" {
		audit.Currency = entity.Currency
	}
	if entity.Status != "" {
		audit.Status = entity.Status
	}

	if err := pc.DB.Create(&audit).Error; err != nil {
		log.Printf("failed to record payment audit row for %s: %v", info.RazorpayPaymentID, err)
	}
}

// CreateOrderHandler creates a Razorpay order for the frontend checkout.
// @Summary Create a Razorpay order
// @Description Amount is in the smallest currency unit (paise for INR)
// @Tags Payment
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Order body createOrderInfo true "Amount and optional currency/receipt"
// @Success 200 {object} Order "Created order"
// @Failure 400 {object} utilities.ErrorResponse "Missing or invalid amount"
// @Failure 500 {object} utilities.ErrorResponse "Gateway not configured or unreachable"
// @Router /payment/order [post]
func (pc *PaymentController) CreateOrderHandler(c *gin.Context) {
	var info createOrderInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "A positive amount must be provided",
		})
		return
	}

	if !pc.Client.Configured() {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Payment gateway is not configured",
		})
		return
	}

	currency := info.Currency
	if currency == "" {
		currency = "INR"
	}

	order, err := pc.Client.CreateOrder(info.Amount, currency, info.Receipt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create order: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetSubscriptionHandler returns the authenticated user's subscription. Users
// without a row are reported as free.
// @Summary Get the authenticated user's subscription
// @Tags Payment
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Subscription "Current subscription"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /payment/subscription [get]
func (pc *PaymentController) GetSubscriptionHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var subscription model.Subscription
	err = pc.DB.Where("user_id = ?", user.ID).First(&subscription).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusOK, model.Subscription{
			UserID:    user.ID,
			IsPremium: false,
			PlanType:  model.PlanFree,
			Status:    model.SubscriptionStatusActive,
		})
		return

	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to load subscription: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, subscription)
}

// HasPremium reports whether the user currently has an active premium plan.
// Used by handlers that gate premium-only features.
func HasPremium(db *database.DBinstanceStruct, userID uuid.UUID) (bool, error) {
	var subscription model.Subscription
	err := db.Where("user_id = ?", userID).First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subscription.IsPremium && subscription.ActiveAt(time.Now()), nil
}
