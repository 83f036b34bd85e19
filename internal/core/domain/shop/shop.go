package shop

import "time"

type Shop struct {
	ID        int64     `json:"id" db:"id" msgpack:"id" cbor:"id"`
	Name      string    `json:"name" db:"name" msgpack:"name" cbor:"name"`
	TypeID    int64     `json:"type_id" db:"type_id" msgpack:"type_id" cbor:"type_id"`
	Images    string    `json:"images" db:"images" msgpack:"images" cbor:"images"`
	Area      string    `json:"area" db:"area" msgpack:"area" cbor:"area"`
	Address   string    `json:"address" db:"address" msgpack:"address" cbor:"address"`
	X         float64   `json:"x" db:"x" msgpack:"x" cbor:"x"`
	Y         float64   `json:"y" db:"y" msgpack:"y" cbor:"y"`
	AvgPrice  int64     `json:"avg_price" db:"avg_price" msgpack:"avg_price" cbor:"avg_price"`
	Sold      int       `json:"sold" db:"sold" msgpack:"sold" cbor:"sold"`
	Comments  int       `json:"comments" db:"comments" msgpack:"comments" cbor:"comments"`
	Score     int       `json:"score" db:"score" msgpack:"score" cbor:"score"`
	OpenHours string    `json:"open_hours" db:"open_hours" msgpack:"open_hours" cbor:"open_hours"`
	CreatedAt time.Time `json:"created_at" db:"create_time" msgpack:"created_at" cbor:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"update_time" msgpack:"updated_at" cbor:"updated_at"`
}

// ShopType is a category shown on the home page, ordered by Sort.
type ShopType struct {
	ID   int64  `json:"id" db:"id" msgpack:"id" cbor:"id"`
	Name string `json:"name" db:"name" msgpack:"name" cbor:"name"`
	Icon string `json:"icon" db:"icon" msgpack:"icon" cbor:"icon"`
	Sort int    `json:"sort" db:"sort" msgpack:"sort" cbor:"sort"`
}

type SaveShopRequest struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	TypeID    int64   `json:"type_id"`
	Images    string  `json:"images"`
	Area      string  `json:"area"`
	Address   string  `json:"address"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	AvgPrice  int64   `json:"avg_price"`
	OpenHours string  `json:"open_hours"`
}

// Validate checks the fields required by both create and update.
func (r *SaveShopRequest) Validate(requireID bool) error {
	if requireID && r.ID <= 0 {
		return ErrMissingID
	}
	if r.Name == "" {
		return ErrMissingName
	}
	if r.TypeID <= 0 {
		return ErrMissingType
	}
	return nil
}

// Apply copies the request onto s. CreatedAt and counters are left untouched.
func (r *SaveShopRequest) Apply(s *Shop) {
	s.Name = r.Name
	s.TypeID = r.TypeID
	s.Images = r.Images
	s.Area = r.Area
	s.Address = r.Address
	s.X = r.X
	s.Y = r.Y
	s.AvgPrice = r.AvgPrice
	s.OpenHours = r.OpenHours
}
