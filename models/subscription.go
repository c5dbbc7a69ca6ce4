package models

import (
	"fmt"
	"time"
)

type PlanType string

const (
	PlanFree      PlanType = "free"
	PlanSupporter PlanType = "supporter"
	PlanAllAccess PlanType = "allAccess"
)

type BillingCycle string

const (
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

// Plan is a subscription tier as shown on the pricing table.
type Plan struct {
	Type     PlanType               `json:"type"`
	Name     string                 `json:"name"`
	Features []string               `json:"features"`
	Prices   map[BillingCycle]int64 `json:"prices"`
}

// Prices are in minor currency units, indexed by [plan][cycle].
var priceTable = map[PlanType]map[BillingCycle]int64{
	PlanFree:      {CycleMonthly: 0, CycleQuarterly: 0, CycleYearly: 0},
	PlanSupporter: {CycleMonthly: 799, CycleQuarterly: 1999, CycleYearly: 7499},
	PlanAllAccess: {CycleMonthly: 1499, CycleQuarterly: 3999, CycleYearly: 14999},
}

var (
	planOrder  = []PlanType{PlanFree, PlanSupporter, PlanAllAccess}
	cycleOrder = []BillingCycle{CycleMonthly, CycleQuarterly, CycleYearly}
)

// PlanPrice looks up the amount for a plan and billing cycle.
func PlanPrice(plan PlanType, cycle BillingCycle) (int64, error) {
	cycles, ok := priceTable[plan]
	if !ok {
		return 0, fmt.Errorf("unknown plan %q", plan)
	}
	amount, ok := cycles[cycle]
	if !ok {
		return 0, fmt.Errorf("unknown billing cycle %q", cycle)
	}
	return amount, nil
}

// Plans returns the pricing table in display order.
func Plans() []Plan {
	features := map[PlanType][]string{
		PlanFree:      {"Public blog posts", "Free projects"},
		PlanSupporter: {"Everything in Free", "Supporter-only write-ups", "Early access to tools"},
		PlanAllAccess: {"Everything in Supporter", "All paid projects", "Priority support"},
	}
	names := map[PlanType]string{
		PlanFree:      "Free",
		PlanSupporter: "Supporter",
		PlanAllAccess: "All Access",
	}

	plans := make([]Plan, 0, len(planOrder))
	for _, planType := range planOrder {
		prices := make(map[BillingCycle]int64, len(cycleOrder))
		for _, cycle := range cycleOrder {
			prices[cycle] = priceTable[planType][cycle]
		}
		plans = append(plans, Plan{
			Type:     planType,
			Name:     names[planType],
			Features: features[planType],
			Prices:   prices,
		})
	}
	return plans
}

// BillingCycles lists the cycles in display order.
func BillingCycles() []BillingCycle {
	return append([]BillingCycle(nil), cycleOrder...)
}

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription is the server's record; the client only ever holds a read-only copy.
type Subscription struct {
	ID            string       `json:"id"`
	PlanType      PlanType     `json:"planType"`
	BillingCycle  BillingCycle `json:"billingCycle"`
	Amount        int64        `json:"amount"`
	Status        string       `json:"status,omitempty"`
	StartDate     time.Time    `json:"startDate"`
	EndDate       *time.Time   `json:"endDate,omitempty"`
	RenewalDate   *time.Time   `json:"renewalDate,omitempty"`
	TransactionID string       `json:"transactionId,omitempty"`
}

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentPending   PaymentStatus = "pending"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is one entry of the payment history. Entries are never removed, only cancelled.
type Payment struct {
	ID          string        `json:"id"`
	Amount      int64         `json:"amount"`
	Currency    string        `json:"currency"`
	Description string        `json:"description"`
	Status      PaymentStatus `json:"status"`
	Method      string        `json:"method"`
	Date        time.Time     `json:"date"`
	InvoiceID   string        `json:"invoiceId,omitempty"`
}

// AccountPayments is the body of GET /api/account-payments.
type AccountPayments struct {
	ActiveSubscription *Subscription  `json:"activeSubscription"`
	Subscriptions      []Subscription `json:"subscriptions"`
	Payments           []Payment      `json:"payments"`
}

// SubscribeRequest is the body of POST /api/account-payments.
type SubscribeRequest struct {
	PlanType     PlanType     `json:"planType"`
	BillingCycle BillingCycle `json:"billingCycle"`
	Amount       int64        `json:"amount"`
}

// InvoiceRequest is the body of POST /api/invoice/generate.
type InvoiceRequest struct {
	PaymentID string `json:"paymentId"`
	InvoiceID string `json:"invoiceId"`
}

// InvoiceFileName is the name a downloaded invoice is saved under.
func InvoiceFileName(invoiceID string) string {
	return fmt.Sprintf("invoice-%s.pdf", invoiceID)
}
