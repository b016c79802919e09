package stripe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/vendora/vendora/internal/types"
)

var now = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func noFallback(string) types.BillingInterval { return "" }

func sub(id string, status stripe.SubscriptionStatus) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     id,
		Status: status,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{ID: "price_x"}}},
		},
	}
}

func TestPeriodEnd_TrialEndWins(t *testing.T) {
	s := sub("sub_1", stripe.SubscriptionStatusTrialing)
	s.TrialEnd = now.Add(72 * time.Hour).Unix()
	s.Items.Data[0].CurrentPeriodEnd = now.Add(240 * time.Hour).Unix()

	end := PeriodEnd(s, "", now)
	require.NotNil(t, end)
	assert.Equal(t, s.TrialEnd, end.Unix())
}

func TestPeriodEnd_ItemPeriodEnd(t *testing.T) {
	s := sub("sub_1", stripe.SubscriptionStatusActive)
	s.Items.Data[0].CurrentPeriodEnd = now.Add(240 * time.Hour).Unix()

	end := PeriodEnd(s, "", now)
	require.NotNil(t, end)
	assert.Equal(t, s.Items.Data[0].CurrentPeriodEnd, end.Unix())
}

func TestPeriodEnd_AnchorSteppedByPriceInterval(t *testing.T) {
	s := sub("sub_1", stripe.SubscriptionStatusActive)
	s.BillingCycleAnchor = time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC).Unix()
	s.Items.Data[0].Price.Recurring = &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalMonth, IntervalCount: 1}

	end := PeriodEnd(s, "", now)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), *end)
}

func TestPeriodEnd_AnchorUsesFallbackIntervalAndCapsAtEndedAt(t *testing.T) {
	s := sub("sub_1", stripe.SubscriptionStatusCanceled)
	s.BillingCycleAnchor = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	s.EndedAt = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC).Unix()

	end := PeriodEnd(s, types.BillingIntervalYear, now)
	require.NotNil(t, end)
	assert.Equal(t, s.EndedAt, end.Unix())
}

func TestPeriodEnd_CancelAtThenEndedAt(t *testing.T) {
	s := sub("sub_1", stripe.SubscriptionStatusCanceled)
	s.CancelAt = now.Add(48 * time.Hour).Unix()
	s.EndedAt = now.Add(-48 * time.Hour).Unix()
	assert.Equal(t, s.CancelAt, PeriodEnd(s, "", now).Unix())

	s.CancelAt = 0
	assert.Equal(t, s.EndedAt, PeriodEnd(s, "", now).Unix())

	s.EndedAt = 0
	assert.Nil(t, PeriodEnd(s, "", now))
}

func TestSelectEligible_PrefersLive(t *testing.T) {
	canceled := sub("sub_old", stripe.SubscriptionStatusCanceled)
	canceled.Items.Data[0].CurrentPeriodEnd = now.Add(240 * time.Hour).Unix()
	live := sub("sub_live", stripe.SubscriptionStatusTrialing)

	got := SelectEligible([]*stripe.Subscription{canceled, live}, noFallback, now)
	require.NotNil(t, got)
	assert.Equal(t, "sub_live", got.ID)
}

func TestSelectEligible_LatestUnexpiredCanceled(t *testing.T) {
	a := sub("sub_a", stripe.SubscriptionStatusCanceled)
	a.Items.Data[0].CurrentPeriodEnd = now.Add(24 * time.Hour).Unix()
	b := sub("sub_b", stripe.SubscriptionStatusCanceled)
	b.Items.Data[0].CurrentPeriodEnd = now.Add(96 * time.Hour).Unix()
	expired := sub("sub_c", stripe.SubscriptionStatusCanceled)
	expired.Items.Data[0].CurrentPeriodEnd = now.Add(-240 * time.Hour).Unix()

	got := SelectEligible([]*stripe.Subscription{a, expired, b}, noFallback, now)
	require.NotNil(t, got)
	assert.Equal(t, "sub_b", got.ID)
}

func TestSelectEligible_NothingEligible(t *testing.T) {
	expired := sub("sub_c", stripe.SubscriptionStatusCanceled)
	expired.Items.Data[0].CurrentPeriodEnd = now.Add(-240 * time.Hour).Unix()
	pastDue := sub("sub_d", stripe.SubscriptionStatusPastDue)

	subs := []*stripe.Subscription{expired, pastDue}
	assert.Nil(t, SelectEligible(subs, noFallback, now))
	assert.True(t, HasCanceled(subs))
	assert.True(t, IsDelinquent(pastDue))
}

func TestPriceHelpers(t *testing.T) {
	s := sub("sub_1", stripe.SubscriptionStatusActive)
	s.Customer = &stripe.Customer{ID: "cus_1"}
	s.Items.Data[0].Price.Recurring = &stripe.PriceRecurring{Interval: stripe.PriceRecurringIntervalYear}

	assert.Equal(t, "price_x", PriceID(s))
	assert.Equal(t, "cus_1", CustomerID(s))
	interval, count := PriceInterval(s)
	assert.Equal(t, types.BillingIntervalYear, interval)
	assert.Equal(t, int64(1), count)

	assert.Empty(t, PriceID(&stripe.Subscription{}))
}
