package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gofrs/uuid/v5"

	"github.com/dishly/dishly/internal/model"
)

// ---- auth ----

type credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	var resp model.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", credentials{Email: email, Password: password}, &resp); err != nil {
		return model.User{}, err
	}
	if err := c.sessions.Set(resp.Token, resp.User); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, username, email, password string) (model.User, error) {
	var resp model.AuthResponse
	body := credentials{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/register", body, &resp); err != nil {
		return model.User{}, err
	}
	if err := c.sessions.Set(resp.Token, resp.User); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// ---- dishes ----

// Menu lists the storefront dishes (today's menu view).
func (c *Client) Menu(ctx context.Context) ([]model.Dish, error) {
	var out []model.Dish
	err := c.listing(ctx, "/api/fdishes", &out)
	return out, err
}

// Dishes lists all dishes for the admin table.
func (c *Client) Dishes(ctx context.Context) ([]model.Dish, error) {
	var out []model.Dish
	err := c.listing(ctx, "/api/dishes", &out)
	return out, err
}

func (c *Client) CreateDish(ctx context.Context, d model.Dish) (model.Dish, error) {
	var out model.Dish
	err := c.do(ctx, http.MethodPost, "/api/dishes", d, &out)
	c.flush("/api/dishes", "/api/fdishes")
	return out, err
}

func (c *Client) UpdateDish(ctx context.Context, d model.Dish) error {
	err := c.do(ctx, http.MethodPut, "/api/dishes/"+url.PathEscape(d.ID), d, nil)
	c.flush("/api/dishes", "/api/fdishes")
	return err
}

func (c *Client) DeleteDish(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/dishes/"+url.PathEscape(id), nil, nil)
	c.flush("/api/dishes", "/api/fdishes")
	return err
}

// ---- categories ----

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.listing(ctx, "/api/categories", &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	var out model.Category
	err := c.do(ctx, http.MethodPost, "/api/categories", model.Category{Name: name}, &out)
	c.flush("/api/categories")
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, cat model.Category) error {
	err := c.do(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(cat.ID), cat, nil)
	c.flush("/api/categories")
	return err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
	c.flush("/api/categories")
	return err
}

// ---- blog ----

func (c *Client) BlogPosts(ctx context.Context) ([]model.BlogPost, error) {
	var out []model.BlogPost
	err := c.listing(ctx, "/api/blogposts", &out)
	return out, err
}

func (c *Client) BlogPost(ctx context.Context, id string) (model.BlogPost, error) {
	var out model.BlogPost
	err := c.do(ctx, http.MethodGet, "/api/singleblogpost/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateBlogPost(ctx context.Context, p model.BlogPost) (model.BlogPost, error) {
	var out model.BlogPost
	err := c.do(ctx, http.MethodPost, "/api/blogpost", p, &out)
	c.flush("/api/blogposts")
	return out, err
}

func (c *Client) UpdateBlogPost(ctx context.Context, p model.BlogPost) error {
	err := c.do(ctx, http.MethodPut, "/api/blogposts/"+url.PathEscape(p.ID), p, nil)
	c.flush("/api/blogposts")
	return err
}

func (c *Client) DeleteBlogPost(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/api/blogposts/"+url.PathEscape(id), nil, nil)
	c.flush("/api/blogposts")
	return err
}

// ---- orders ----

func (c *Client) Orders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out)
	return out, err
}

// Order fetches a single order (storefront order tracking).
func (c *Client) Order(ctx context.Context, id string) (model.Order, error) {
	var out model.Order
	err := c.do(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPut, "/api/orders/update/"+url.PathEscape(id), body, nil)
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/delete/"+url.PathEscape(id), nil, nil)
}

type checkoutResponse struct {
	OrderID string `json:"order_id"`
}

// Checkout submits the order. A client-minted reference makes a retried
// submission recognizable to the backend.
func (c *Client) Checkout(ctx context.Context, req model.CheckoutRequest) (string, error) {
	if req.Reference == "" {
		if ref, err := uuid.NewV4(); err == nil {
			req.Reference = ref.String()
		}
	}
	var resp checkoutResponse
	if err := c.do(ctx, http.MethodPost, "/api/checkout", req, &resp); err != nil {
		return "", err
	}
	return resp.OrderID, nil
}

// ---- customers ----

func (c *Client) Customers(ctx context.Context) ([]model.Customer, error) {
	var out []model.Customer
	err := c.do(ctx, http.MethodGet, "/api/customers", nil, &out)
	return out, err
}

func (c *Client) UpdateCustomer(ctx context.Context, cust model.Customer) error {
	return c.do(ctx, http.MethodPut, "/api/customers/"+url.PathEscape(cust.ID), cust, nil)
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/customers/"+url.PathEscape(id), nil, nil)
}

// ---- profile ----

func (c *Client) Profile(ctx context.Context, id string) (model.User, error) {
	var out model.User
	err := c.do(ctx, http.MethodGet, "/api/user/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, u model.User) error {
	return c.do(ctx, http.MethodPut, "/api/user/"+url.PathEscape(u.ID), u, nil)
}

// ---- dashboard ----

func (c *Client) Stats(ctx context.Context, email string) (model.Stats, error) {
	var out model.Stats
	err := c.do(ctx, http.MethodGet, "/api/dashboard-stats?email="+url.QueryEscape(email), nil, &out)
	return out, err
}
