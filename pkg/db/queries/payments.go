package queries

import (
	"database/sql"
	"fmt"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/errs"
	log "github.com/sirupsen/logrus"
)

// CreatePayment records a verified checkout. Called only after the Razorpay
// signature check has passed.
func CreatePayment(payment *db.Payment) (*db.Payment, error) {
	query := `
        INSERT INTO payments (user_id, payment_id, order_id, status)
        VALUES (:user_id, :payment_id, :order_id, :status)
        RETURNING id, created_at`

	rows, err := db.DB.NamedQuery(query, payment)
	if err != nil {
		log.Errorf("Error recording payment '%s': %v", payment.PaymentID, err)
		return nil, fmt.Errorf("%w: failed to record payment: %v", errs.ErrPersistence, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(payment); err != nil {
			log.Errorf("Error scanning payment data after creation: %v", err)
			return nil, fmt.Errorf("%w: error scanning payment after creation: %v", errs.ErrPersistence, err)
		}
	} else {
		log.Error("No rows returned after payment creation.")
		return nil, fmt.Errorf("%w: no rows returned after payment creation", errs.ErrPersistence)
	}

	log.Infof("Payment %s recorded for user %s.", payment.PaymentID, payment.UserID.String())
	return payment, nil
}

// FindPaymentByPaymentID retrieves a recorded payment by its Razorpay
// payment id. Returns (nil, nil) when absent.
func FindPaymentByPaymentID(paymentID string) (*db.Payment, error) {
	payment := &db.Payment{}
	query := `SELECT id, user_id, payment_id, order_id, status, created_at FROM payments WHERE payment_id = $1`
	err := db.DB.Get(payment, query, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Payment with ID '%s' not found.", paymentID)
			return nil, nil
		}
		log.Errorf("Error finding payment by ID '%s': %v", paymentID, err)
		return nil, fmt.Errorf("%w: error finding payment by ID: %v", errs.ErrPersistence, err)
	}
	return payment, nil
}
