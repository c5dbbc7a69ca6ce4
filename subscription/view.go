package subscription

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rpupo63/unified-personal-site-frontend/models"
)

// Dashboard is what the subscription page renders.
type Dashboard struct {
	Plans    []PlanCard   `json:"plans"`
	Active   *ActiveCard  `json:"active,omitempty"`
	Payments []PaymentRow `json:"payments"`
	Loading  bool         `json:"loading"`
	Error    string       `json:"error,omitempty"`
	Version  uint64       `json:"version"`
}

type PlanCard struct {
	Type     models.PlanType                `json:"type"`
	Name     string                         `json:"name"`
	Features []string                       `json:"features"`
	Prices   map[models.BillingCycle]string `json:"prices"`
	Current  bool                           `json:"current"`
}

type ActiveCard struct {
	ID               string              `json:"id"`
	PlanType         models.PlanType     `json:"planType"`
	PlanName         string              `json:"planName"`
	BillingCycle     models.BillingCycle `json:"billingCycle"`
	Amount           string              `json:"amount"`
	StartDate        time.Time           `json:"startDate"`
	RenewalDate      *time.Time          `json:"renewalDate,omitempty"`
	EndDate          *time.Time          `json:"endDate,omitempty"`
	DaysUntilRenewal int                 `json:"daysUntilRenewal"`
	Cancellable      bool                `json:"cancellable"`
}

type PaymentRow struct {
	ID                 string               `json:"id"`
	Date               time.Time            `json:"date"`
	Description        string               `json:"description"`
	Amount             string               `json:"amount"`
	Currency           string               `json:"currency"`
	Status             models.PaymentStatus `json:"status"`
	Method             string               `json:"method"`
	InvoiceID          string               `json:"invoiceId,omitempty"`
	Cancellable        bool                 `json:"cancellable"`
	InvoiceDownloading bool                 `json:"invoiceDownloading"`
	InvoiceAvailable   bool                 `json:"invoiceAvailable"`
}

// BuildDashboard derives the page from a snapshot. downloading lists payment ids with an
// invoice download in flight.
func BuildDashboard(snap Snapshot, downloading []string, now time.Time) Dashboard {
	busy := make(map[string]bool, len(downloading))
	for _, id := range downloading {
		busy[id] = true
	}

	dashboard := Dashboard{
		Payments: make([]PaymentRow, 0, len(snap.Payments)),
		Loading:  snap.Loading,
		Error:    snap.Error,
		Version:  snap.Version,
	}

	names := map[models.PlanType]string{}
	for _, plan := range models.Plans() {
		names[plan.Type] = plan.Name
		prices := make(map[models.BillingCycle]string, len(plan.Prices))
		for cycle, amount := range plan.Prices {
			prices[cycle] = FormatAmount(amount)
		}
		dashboard.Plans = append(dashboard.Plans, PlanCard{
			Type:     plan.Type,
			Name:     plan.Name,
			Features: plan.Features,
			Prices:   prices,
			Current:  snap.ActiveSubscription != nil && snap.ActiveSubscription.PlanType == plan.Type,
		})
	}

	if active := snap.ActiveSubscription; active != nil {
		card := &ActiveCard{
			ID:           active.ID,
			PlanType:     active.PlanType,
			PlanName:     names[active.PlanType],
			BillingCycle: active.BillingCycle,
			Amount:       FormatAmount(active.Amount),
			StartDate:    active.StartDate,
			RenewalDate:  active.RenewalDate,
			EndDate:      active.EndDate,
			Cancellable:  active.PlanType != models.PlanFree,
		}
		if active.RenewalDate != nil {
			card.DaysUntilRenewal = daysUntil(now, *active.RenewalDate)
		}
		dashboard.Active = card
	}

	for _, payment := range snap.Payments {
		dashboard.Payments = append(dashboard.Payments, PaymentRow{
			ID:                 payment.ID,
			Date:               payment.Date,
			Description:        payment.Description,
			Amount:             FormatAmount(payment.Amount),
			Currency:           payment.Currency,
			Status:             payment.Status,
			Method:             payment.Method,
			InvoiceID:          payment.InvoiceID,
			Cancellable:        payment.Status == models.PaymentPending,
			InvoiceDownloading: busy[payment.ID],
			InvoiceAvailable:   payment.Status == models.PaymentCompleted && payment.InvoiceID != "",
		})
	}
	sort.SliceStable(dashboard.Payments, func(i, j int) bool {
		return dashboard.Payments[i].Date.After(dashboard.Payments[j].Date)
	})

	return dashboard
}

// FormatAmount renders minor units as a decimal amount, 7499 -> "74.99".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

func daysUntil(now, then time.Time) int {
	days := math.Ceil(then.Sub(now).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}
