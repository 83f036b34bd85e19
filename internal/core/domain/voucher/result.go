package voucher

// Rejection is the business reason a seckill attempt did not produce an order.
type Rejection string

const (
	RejectionNone             Rejection = ""
	RejectionNotFound         Rejection = "not_found"
	RejectionNotStarted       Rejection = "not_started"
	RejectionEnded            Rejection = "ended"
	RejectionSoldOut          Rejection = "sold_out"
	RejectionAlreadyPurchased Rejection = "already_purchased"
	// RejectionBusy means the per-user lock could not be taken within the wait budget.
	RejectionBusy Rejection = "busy"
)

// Message is the user-facing text for a rejection.
func (r Rejection) Message() string {
	switch r {
	case RejectionNotFound:
		return "voucher does not exist"
	case RejectionNotStarted:
		return "seckill has not started yet"
	case RejectionEnded:
		return "seckill has ended"
	case RejectionSoldOut:
		return "voucher is sold out"
	case RejectionAlreadyPurchased:
		return "each user may only buy once"
	case RejectionBusy:
		return "too many concurrent requests, try again"
	default:
		return ""
	}
}

// SeckillResult is returned by a seckill attempt. Exactly one of OrderID
// (non-zero) and Rejection (non-empty) is set.
type SeckillResult struct {
	OrderID   int64     `json:"order_id,omitempty"`
	Rejection Rejection `json:"rejection,omitempty"`
}

func (r SeckillResult) OK() bool { return r.Rejection == RejectionNone && r.OrderID != 0 }

func Placed(orderID int64) SeckillResult { return SeckillResult{OrderID: orderID} }

func Rejected(reason Rejection) SeckillResult { return SeckillResult{Rejection: reason} }
