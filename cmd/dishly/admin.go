// cmd/dishly/admin.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dishly/dishly/internal/errs"
	"github.com/dishly/dishly/internal/guard"
	"github.com/dishly/dishly/internal/model"
)

// ---- dishes ----

func cmdDishes(ctx context.Context, a *app, args []string) {
	if err := a.requireAdmin(); err != nil {
		fail(err)
	}
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "list":
		dishes, err := a.api.Dishes(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(dishes)

	case "add":
		fs := flag.NewFlagSet("dishes add", flag.ExitOnError)
		title := fs.String("title", "", "title")
		desc := fs.String("desc", "", "description")
		price := fs.Float64("price", 0, "unit price")
		day := fs.String("day", "", "weekday the dish is orderable")
		image := fs.String("image", "", "image reference")
		category := fs.String("category", "", "category")
		_ = fs.Parse(args[1:])
		if *title == "" || *day == "" || *price < 0 {
			fmt.Fprintln(os.Stderr, "need -title, -day and a non-negative -price")
			os.Exit(1)
		}
		if _, ok := model.ParseWeekday(*day); !ok {
			fmt.Fprintf(os.Stderr, "unknown weekday %q\n", *day)
			os.Exit(1)
		}
		dish, err := a.api.CreateDish(ctx, model.Dish{
			Title: *title, Description: *desc, Price: *price,
			Day: *day, Image: *image, Category: *category,
		})
		if err != nil {
			fail(err)
		}
		printJSON(dish)

	case "edit":
		fs := flag.NewFlagSet("dishes edit", flag.ExitOnError)
		id := fs.String("id", "", "dish id")
		title := fs.String("title", "", "title")
		desc := fs.String("desc", "", "description")
		price := fs.Float64("price", 0, "unit price")
		day := fs.String("day", "", "weekday the dish is orderable")
		image := fs.String("image", "", "image reference")
		category := fs.String("category", "", "category")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		err := a.api.UpdateDish(ctx, model.Dish{
			ID: *id, Title: *title, Description: *desc, Price: *price,
			Day: *day, Image: *image, Category: *category,
		})
		if err != nil {
			fail(err)
		}
		fmt.Println("updated")

	case "rm":
		rmByID(ctx, args[1:], "dish id", a.api.DeleteDish)

	default:
		usage()
	}
}

// ---- categories ----

func cmdCategories(ctx context.Context, a *app, args []string) {
	if err := a.requireAdmin(); err != nil {
		fail(err)
	}
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "list":
		cats, err := a.api.Categories(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(cats)

	case "add":
		fs := flag.NewFlagSet("categories add", flag.ExitOnError)
		name := fs.String("name", "", "category name")
		_ = fs.Parse(args[1:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "need -name")
			os.Exit(1)
		}
		cat, err := a.api.CreateCategory(ctx, *name)
		if err != nil {
			fail(err)
		}
		printJSON(cat)

	case "edit":
		fs := flag.NewFlagSet("categories edit", flag.ExitOnError)
		id := fs.String("id", "", "category id")
		name := fs.String("name", "", "category name")
		_ = fs.Parse(args[1:])
		if *id == "" || *name == "" {
			fmt.Fprintln(os.Stderr, "need -id and -name")
			os.Exit(1)
		}
		if err := a.api.UpdateCategory(ctx, model.Category{ID: *id, Name: *name}); err != nil {
			fail(err)
		}
		fmt.Println("updated")

	case "rm":
		rmByID(ctx, args[1:], "category id", a.api.DeleteCategory)

	default:
		usage()
	}
}

// ---- blog posts ----

func cmdPosts(ctx context.Context, a *app, args []string) {
	if err := a.requireAdmin(); err != nil {
		fail(err)
	}
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "list":
		posts, err := a.api.BlogPosts(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(posts)

	case "add":
		fs := flag.NewFlagSet("posts add", flag.ExitOnError)
		title := fs.String("title", "", "title")
		content := fs.String("content", "", "content ('-'=stdin)")
		category := fs.String("category", "", "category")
		image := fs.String("image", "", "image reference")
		_ = fs.Parse(args[1:])
		if *title == "" || *content == "" {
			fmt.Fprintln(os.Stderr, "need -title and -content")
			os.Exit(1)
		}
		body := *content
		if body == "-" {
			b, err := readStdin()
			if err != nil {
				fail(err)
			}
			body = string(b)
		}
		post, err := a.api.CreateBlogPost(ctx, model.BlogPost{
			Title: *title, Content: body, Category: *category, Image: *image,
		})
		if err != nil {
			fail(err)
		}
		printJSON(post)

	case "edit":
		fs := flag.NewFlagSet("posts edit", flag.ExitOnError)
		id := fs.String("id", "", "post id")
		title := fs.String("title", "", "title")
		content := fs.String("content", "", "content")
		category := fs.String("category", "", "category")
		image := fs.String("image", "", "image reference")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		err := a.api.UpdateBlogPost(ctx, model.BlogPost{
			ID: *id, Title: *title, Content: *content, Category: *category, Image: *image,
		})
		if err != nil {
			fail(err)
		}
		fmt.Println("updated")

	case "rm":
		rmByID(ctx, args[1:], "post id", a.api.DeleteBlogPost)

	default:
		usage()
	}
}

// ---- orders ----

func cmdOrders(ctx context.Context, a *app, args []string) {
	if err := a.requireAdmin(); err != nil {
		fail(err)
	}
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "list":
		orders, err := a.api.Orders(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(orders)

	case "status":
		fs := flag.NewFlagSet("orders status", flag.ExitOnError)
		id := fs.String("id", "", "order id")
		status := fs.String("set", "", "new status (e.g. pending, delivered)")
		_ = fs.Parse(args[1:])
		if *id == "" || *status == "" {
			fmt.Fprintln(os.Stderr, "need -id and -set")
			os.Exit(1)
		}
		if err := a.api.UpdateOrderStatus(ctx, *id, *status); err != nil {
			fail(err)
		}
		fmt.Println("updated")

	case "rm":
		rmByID(ctx, args[1:], "order id", a.api.DeleteOrder)

	default:
		usage()
	}
}

// ---- customers ----

func cmdCustomers(ctx context.Context, a *app, args []string) {
	if err := a.requireAdmin(); err != nil {
		fail(err)
	}
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "list":
		customers, err := a.api.Customers(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(customers)

	case "edit":
		fs := flag.NewFlagSet("customers edit", flag.ExitOnError)
		id := fs.String("id", "", "customer id")
		username := fs.String("username", "", "username")
		email := fs.String("email", "", "email")
		address := fs.String("address", "", "address")
		phone := fs.String("phone", "", "phone")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		err := a.api.UpdateCustomer(ctx, model.Customer{
			ID: *id, Username: *username, Email: *email, Address: *address, Phone: *phone,
		})
		if err != nil {
			fail(err)
		}
		fmt.Println("updated")

	case "rm":
		rmByID(ctx, args[1:], "customer id", a.api.DeleteCustomer)

	default:
		usage()
	}
}

// ---- profile & stats ----

func cmdProfile(ctx context.Context, a *app, args []string) {
	user := a.sessions.User()
	if a.guard.RequireAuth() != guard.Admit || user == nil {
		fail(errs.ErrNotAuthenticated)
	}
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "show":
		profile, err := a.api.Profile(ctx, user.ID)
		if err != nil {
			fail(err)
		}
		printJSON(profile)

	case "update":
		fs := flag.NewFlagSet("profile update", flag.ExitOnError)
		username := fs.String("username", user.Username, "username")
		address := fs.String("address", "", "address")
		phone := fs.String("phone", "", "phone")
		_ = fs.Parse(args[1:])
		err := a.api.UpdateProfile(ctx, model.User{
			ID: user.ID, Username: *username, Email: user.Email,
			Role: user.Role, Address: *address, Phone: *phone,
		})
		if err != nil {
			fail(err)
		}
		fmt.Println("updated")

	default:
		usage()
	}
}

func cmdStats(ctx context.Context, a *app) {
	if err := a.requireAdmin(); err != nil {
		fail(err)
	}
	user := a.sessions.User()
	stats, err := a.api.Stats(ctx, user.Email)
	if err != nil {
		fail(err)
	}
	printJSON(stats)
}

// ---- helpers ----

// rmByID parses -id and runs the delete call.
func rmByID(ctx context.Context, args []string, what string, del func(context.Context, string) error) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.String("id", "", what)
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}
	if err := del(ctx, *id); err != nil {
		fail(err)
	}
	fmt.Println("removed")
}

func readStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
