package stripe

import (
	"time"

	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/types"
)

// maxAnchorSteps bounds the billing-cycle walk for very old anchors with short intervals
const maxAnchorSteps = 5000

// IsLive reports whether the subscription currently grants access
func IsLive(sub *stripe.Subscription) bool {
	return IsLiveStatus(string(sub.Status))
}

// IsLiveStatus is IsLive for a raw provider status
func IsLiveStatus(status string) bool {
	switch stripe.SubscriptionStatus(status) {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return true
	}
	return false
}

// IsDelinquent reports whether the subscription is failing to collect payment
func IsDelinquent(sub *stripe.Subscription) bool {
	return IsDelinquentStatus(string(sub.Status))
}

// IsDelinquentStatus is IsDelinquent for a raw provider status
func IsDelinquentStatus(status string) bool {
	switch stripe.SubscriptionStatus(status) {
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return true
	}
	return false
}

// IsCanceled reports whether the subscription was canceled
func IsCanceled(sub *stripe.Subscription) bool {
	return sub.Status == stripe.SubscriptionStatusCanceled
}

// CustomerID returns the id of the subscription's customer, expanded or not
func CustomerID(sub *stripe.Subscription) string {
	if sub.Customer == nil {
		return ""
	}
	return sub.Customer.ID
}

func firstItem(sub *stripe.Subscription) *stripe.SubscriptionItem {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

// PriceID returns the price id of the subscription's first item
func PriceID(sub *stripe.Subscription) string {
	item := firstItem(sub)
	if item == nil || item.Price == nil {
		return ""
	}
	return item.Price.ID
}

// PriceInterval returns the recurrence declared on the first item's price, and its count
func PriceInterval(sub *stripe.Subscription) (types.BillingInterval, int64) {
	item := firstItem(sub)
	if item == nil || item.Price == nil || item.Price.Recurring == nil {
		return "", 0
	}
	count := item.Price.Recurring.IntervalCount
	if count <= 0 {
		count = 1
	}
	return types.BillingInterval(item.Price.Recurring.Interval), count
}

func unixPtr(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	return lo.ToPtr(time.Unix(ts, 0).UTC())
}

// PeriodEnd derives when the subscription's paid access ends. The provider does not always
// expose the field directly, so it falls back in order to: trial end, current item period end,
// billing-cycle anchor stepped by the interval, cancel_at, ended_at.
// fallbackInterval is used when the price carries no recurrence.
func PeriodEnd(sub *stripe.Subscription, fallbackInterval types.BillingInterval, now time.Time) *time.Time {
	if sub.Status == stripe.SubscriptionStatusTrialing && sub.TrialEnd > 0 {
		return unixPtr(sub.TrialEnd)
	}

	if item := firstItem(sub); item != nil && item.CurrentPeriodEnd > 0 {
		return unixPtr(item.CurrentPeriodEnd)
	}

	interval, count := PriceInterval(sub)
	if interval == "" {
		interval, count = fallbackInterval, 1
	}
	if end := stepAnchor(sub.BillingCycleAnchor, interval, count, now); end != nil {
		if sub.EndedAt > 0 && end.Unix() > sub.EndedAt {
			return unixPtr(sub.EndedAt)
		}
		return end
	}

	if sub.CancelAt > 0 {
		return unixPtr(sub.CancelAt)
	}
	return unixPtr(sub.EndedAt)
}

// stepAnchor returns the first anchor + k*interval strictly after now
func stepAnchor(anchor int64, interval types.BillingInterval, count int64, now time.Time) *time.Time {
	if anchor <= 0 || count <= 0 {
		return nil
	}

	step := func(t time.Time) time.Time {
		n := int(count)
		switch interval {
		case types.BillingIntervalDay:
			return t.AddDate(0, 0, n)
		case types.BillingIntervalWeek:
			return t.AddDate(0, 0, 7*n)
		case types.BillingIntervalMonth:
			return t.AddDate(0, n, 0)
		case types.BillingIntervalYear:
			return t.AddDate(n, 0, 0)
		}
		return t
	}

	start := time.Unix(anchor, 0).UTC()
	if step(start).Equal(start) {
		return nil
	}

	end := start
	for i := 0; i < maxAnchorSteps && !end.After(now); i++ {
		end = step(end)
	}
	return &end
}

// SelectEligible picks the subscription that represents the customer's billing state:
// the first active or trialing one, else the canceled one whose access ends last, provided
// that end is still in the future. It returns nil when nothing qualifies.
func SelectEligible(subs []*stripe.Subscription, fallbackInterval func(priceID string) types.BillingInterval, now time.Time) *stripe.Subscription {
	if live, ok := lo.Find(subs, IsLive); ok {
		return live
	}

	var (
		best    *stripe.Subscription
		bestEnd time.Time
	)
	for _, sub := range subs {
		if !IsCanceled(sub) {
			continue
		}
		end := PeriodEnd(sub, fallbackInterval(PriceID(sub)), now)
		if end == nil || !end.After(now) {
			continue
		}
		if best == nil || end.After(bestEnd) {
			best, bestEnd = sub, *end
		}
	}
	return best
}

// HasCanceled reports whether any subscription in the list is canceled
func HasCanceled(subs []*stripe.Subscription) bool {
	return lo.SomeBy(subs, IsCanceled)
}
