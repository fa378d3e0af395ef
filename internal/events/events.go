// Package events stores loyalty pipeline events in a transactional outbox.
// The mail dispatch worker drains it after the owning transaction commits, so
// a slow relay can never stall point accrual.
package events

// Loyalty event types written by the pipeline and its workers.
const (
	EventPointsAccrued  = "points.accrued"
	EventRewardEarned   = "reward.earned"
	EventRewardRedeemed = "reward.redeemed"
	EventRewardExpired  = "reward.expired"
)

// RewardEarnedPayload carries everything the mail dispatcher needs to build
// the congratulations email without re-reading reward state.
type RewardEarnedPayload struct {
	RewardID          string `json:"reward_id"`
	CustomerID        string `json:"customer_id"`
	CustomerName      string `json:"customer_name"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	ThresholdMultiple int    `json:"threshold_multiple"`
	PointTotal        int    `json:"point_total"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p RewardEarnedPayload) ToMap() map[string]any {
	payload := map[string]any{
		"reward_id":          p.RewardID,
		"customer_id":        p.CustomerID,
		"customer_name":      p.CustomerName,
		"threshold_multiple": p.ThresholdMultiple,
		"point_total":        p.PointTotal,
	}
	if p.CustomerEmail != "" {
		payload["customer_email"] = p.CustomerEmail
	}
	return payload
}

// PointsAccruedPayload records a single accrual for reporting consumers.
type PointsAccruedPayload struct {
	CustomerID  string `json:"customer_id"`
	OrderID     string `json:"order_id"`
	PointsDelta int    `json:"points_delta"`
	PointTotal  int    `json:"point_total"`
}

// ToMap converts the payload into an outbox-friendly map.
func (p PointsAccruedPayload) ToMap() map[string]any {
	return map[string]any{
		"customer_id":  p.CustomerID,
		"order_id":     p.OrderID,
		"points_delta": p.PointsDelta,
		"point_total":  p.PointTotal,
	}
}
