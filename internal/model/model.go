// Package model defines domain entities exchanged with the backend and kept in local stores.
package model

import (
	"strings"
	"time"
)

// Role is the access level carried in a user profile. The set is open;
// the backend may introduce further roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the profile the backend returns alongside a token on login or
// registration. The client never fabricates or enriches these fields.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// AuthResponse is the success body of the login/registration endpoints.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Dish is a menu entry. Day names the single weekday the dish is orderable.
type Dish struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Day         string  `json:"day"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// CartLine is a single cart entry, keyed by the dish id.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Day       string  `json:"day"`
	Image     string  `json:"image,omitempty"`
}

// Subtotal is the line contribution to the cart total.
func (l CartLine) Subtotal() float64 { return l.UnitPrice * float64(l.Quantity) }

// LineFromDish builds a fresh cart line with quantity 1.
func LineFromDish(d Dish) CartLine {
	return CartLine{
		ProductID: d.ID,
		Title:     d.Title,
		UnitPrice: d.Price,
		Quantity:  1,
		Day:       d.Day,
		Image:     d.Image,
	}
}

// OrderInfo is the delivery contact block attached to a checkout submission.
type OrderInfo struct {
	Username string `json:"username"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}

// CheckoutRequest is the order-submission payload. Reference is a
// client-minted idempotency key.
type CheckoutRequest struct {
	UserID    string     `json:"user_id"`
	UserInfo  OrderInfo  `json:"user_info"`
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	Reference string     `json:"reference,omitempty"`
}

// Order is a placed order as the admin dashboard lists it.
type Order struct {
	ID        string     `json:"_id"`
	UserID    string     `json:"user_id"`
	UserInfo  OrderInfo  `json:"user_info"`
	Items     []CartLine `json:"items"`
	Total     float64    `json:"total"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Category groups dishes and blog posts.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// BlogPost is a storefront article.
type BlogPost struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category,omitempty"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer is an account row in the admin dashboard.
type Customer struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// Stats is the dashboard-statistics response.
type Stats struct {
	Dishes    int     `json:"dishes"`
	Orders    int     `json:"orders"`
	Customers int     `json:"customers"`
	Posts     int     `json:"posts"`
	Revenue   float64 `json:"revenue,omitempty"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a stored day name to a time.Weekday. Matching is
// case-insensitive and locale-free; unknown names report ok=false.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// SameDay reports whether a stored day name denotes the given weekday.
func SameDay(name string, day time.Weekday) bool {
	d, ok := ParseWeekday(name)
	return ok && d == day
}
