package domain

const SecondsPerDay int64 = 86400

type Car struct {
	SaleID          int64   `json:"sale_id"`
	RentPricePerDay int64   `json:"rent_price_per_day"`
	RentedUntil     int64   `json:"rented_until"` // 0 = available
	CurrentRenter   Account `json:"current_renter"`
	Seq             int64   `json:"-"`
}

// IsRented reports whether the car is still out at time now.
func (c *Car) IsRented(now int64) bool {
	return now < c.RentedUntil
}
