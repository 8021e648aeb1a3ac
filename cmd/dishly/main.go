// Command dishly is a CLI client for the dishly food-ordering platform:
// storefront (menu, cart, checkout, blog) and admin dashboard commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dishly/dishly/internal/api"
	"github.com/dishly/dishly/internal/cart"
	"github.com/dishly/dishly/internal/config"
	"github.com/dishly/dishly/internal/errs"
	"github.com/dishly/dishly/internal/guard"
	"github.com/dishly/dishly/internal/model"
	"github.com/dishly/dishly/internal/session"
	"github.com/dishly/dishly/internal/storage"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app wires the stores and the API client for one invocation.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	sessions *session.Store
	cart     *cart.Store
	guard    *guard.Guard
	api      *api.Client
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	var st storage.Store
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		st = storage.NewRedisStore(redis.NewClient(opt), "dishly", log)
	} else {
		fs, err := storage.NewFileStore(cfg.DataDir, log)
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		st = fs
	}

	sessions := session.New(st, log)
	a := &app{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		cart:     cart.New(st, sessions, log),
		guard:    guard.New(sessions, log),
	}
	a.api = api.New(cfg.APIURL, sessions, log,
		api.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		api.WithCacheTTL(cfg.CacheTTL),
		api.WithUnauthorizedHook(func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		}),
	)
	return a, nil
}

// requireAdmin consults the guard before an admin command touches the API.
func (a *app) requireAdmin() error {
	if d := a.guard.RequireAuth(model.RoleAdmin); d != guard.Admit {
		return fmt.Errorf("%s (admin access required)", d)
	}
	return nil
}

// printNotices drains pending store notices (e.g. the hydrate prune).
func (a *app) printNotices() {
	for {
		select {
		case msg := <-a.cart.Notices():
			fmt.Fprintln(os.Stderr, msg)
		default:
			return
		}
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrNotAuthenticated) {
		os.Exit(3)
	}
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `dishly CLI
Usage:
  dishly [-config file] [-api url] [-redis url] <cmd> [args]

Storefront:
  version
  register  -username <u> -email <e> -password <p>
  login     -email <e> -password <p>
  logout
  whoami
  menu                                   (today's dishes)
  blog      list | show -id <id>
  cart      show | add -id <id> | rm -id <id> | qty -id <id> -n <qty> | clear
  checkout  -name <n> -address <a> -phone <p>
  track     -id <order-id>

Admin:
  dishes     list | add | edit | rm
  categories list | add | edit | rm
  posts      list | add | edit | rm
  orders     list | status | rm
  customers  list | edit | rm
  profile    show | update
  stats
`)
	os.Exit(2)
}

// main loads config, wires the stores, and dispatches the subcommand.
func main() {
	cfgPath := flag.String("config", "", "config file (YAML)")
	apiURL := flag.String("api", "", "backend origin (overrides config)")
	redisURL := flag.String("redis", "", "redis url for shared storage (overrides config)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fail(err)
	}
	if *apiURL != "" {
		cfg.APIURL = *apiURL
	}
	if *redisURL != "" {
		cfg.RedisURL = *redisURL
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout+time.Minute)
	defer cancel()

	// observe logouts from other processes for the lifetime of the command
	go func() { _ = a.sessions.Run(ctx) }()

	a.cart.Hydrate()
	a.printNotices()

	switch cmd {
	case "version":
		fmt.Printf("dishly %s (%s)\n", version, buildDate)
	case "register":
		cmdRegister(ctx, a, args)
	case "login":
		cmdLogin(ctx, a, args)
	case "logout":
		a.sessions.Clear()
		fmt.Println("logged out")
	case "whoami":
		cmdWhoami(a)
	case "menu":
		cmdMenu(ctx, a)
	case "blog":
		cmdBlog(ctx, a, args)
	case "cart":
		cmdCart(ctx, a, args)
	case "checkout":
		cmdCheckout(ctx, a, args)
	case "track":
		cmdTrack(ctx, a, args)
	case "dishes":
		cmdDishes(ctx, a, args)
	case "categories":
		cmdCategories(ctx, a, args)
	case "posts":
		cmdPosts(ctx, a, args)
	case "orders":
		cmdOrders(ctx, a, args)
	case "customers":
		cmdCustomers(ctx, a, args)
	case "profile":
		cmdProfile(ctx, a, args)
	case "stats":
		cmdStats(ctx, a)
	default:
		usage()
	}
}

// ---- auth ----

func cmdRegister(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)
	if *username == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "need -username, -email and -password")
		os.Exit(1)
	}
	if d := a.guard.RedirectIfAuthenticated(); d != guard.Admit {
		fail(fmt.Errorf("already logged in (%s); run `dishly logout` first", d))
	}

	u, err := a.api.Register(ctx, *username, *email, *password)
	if err != nil {
		fail(err)
	}
	fmt.Printf("registered as %s (%s)\n", u.Username, u.Role)
}

func cmdLogin(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "need -email and -password")
		os.Exit(1)
	}
	if d := a.guard.RedirectIfAuthenticated(); d != guard.Admit {
		fail(fmt.Errorf("already logged in (%s); run `dishly logout` first", d))
	}

	u, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		fail(err)
	}
	fmt.Printf("welcome back, %s (%s)\n", u.Username, u.Role)
}

func cmdWhoami(a *app) {
	if a.guard.RequireAuth() != guard.Admit {
		fail(errs.ErrNotAuthenticated)
	}
	printJSON(a.sessions.User())
}

// ---- storefront ----

func cmdMenu(ctx context.Context, a *app) {
	dishes, err := a.api.Menu(ctx)
	if err != nil {
		fail(err)
	}
	today := time.Now().Weekday()
	var todays []model.Dish
	for _, d := range dishes {
		if model.SameDay(d.Day, today) {
			todays = append(todays, d)
		}
	}
	if len(todays) == 0 {
		fmt.Printf("no dishes available on %s\n", today)
		return
	}
	printJSON(todays)
}

func cmdBlog(ctx context.Context, a *app, args []string) {
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
	case "show":
		fs := flag.NewFlagSet("blog show", flag.ExitOnError)
		id := fs.String("id", "", "post id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		post, err := a.api.BlogPost(ctx, *id)
		if err != nil {
			fail(err)
		}
		printJSON(post)
	default:
		usage()
	}
}

func cmdCart(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		usage()
	}
	switch args[0] {
	case "show":
		printJSON(struct {
			Lines []model.CartLine `json:"lines"`
			Total float64          `json:"total"`
		}{a.cart.Lines(), a.cart.Total()})

	case "add":
		fs := flag.NewFlagSet("cart add", flag.ExitOnError)
		id := fs.String("id", "", "dish id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		dishes, err := a.api.Menu(ctx)
		if err != nil {
			fail(err)
		}
		var dish *model.Dish
		for i := range dishes {
			if dishes[i].ID == *id {
				dish = &dishes[i]
				break
			}
		}
		if dish == nil {
			fail(fmt.Errorf("dish %q not on the menu", *id))
		}
		if err := a.cart.Add(*dish); err != nil {
			fail(err)
		}
		fmt.Printf("added %q\n", dish.Title)

	case "rm":
		fs := flag.NewFlagSet("cart rm", flag.ExitOnError)
		id := fs.String("id", "", "dish id")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		a.cart.Remove(*id)
		fmt.Println("removed")

	case "qty":
		fs := flag.NewFlagSet("cart qty", flag.ExitOnError)
		id := fs.String("id", "", "dish id")
		n := fs.Int("n", 1, "quantity (0 removes)")
		_ = fs.Parse(args[1:])
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		a.cart.UpdateQuantity(*id, *n)
		fmt.Println("updated")

	case "clear":
		a.cart.Clear()
		fmt.Println("cart cleared")

	default:
		usage()
	}
}

func cmdCheckout(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	name := fs.String("name", "", "recipient name")
	address := fs.String("address", "", "delivery address")
	phone := fs.String("phone", "", "contact phone")
	_ = fs.Parse(args)
	if *name == "" || *address == "" || *phone == "" {
		fmt.Fprintln(os.Stderr, "need -name, -address and -phone")
		os.Exit(1)
	}

	user := a.sessions.User()
	if user == nil {
		fail(errs.ErrNotAuthenticated)
	}

	err := a.cart.Checkout(ctx, func(ctx context.Context, lines []model.CartLine, total float64) error {
		orderID, err := a.api.Checkout(ctx, model.CheckoutRequest{
			UserID:   user.ID,
			UserInfo: model.OrderInfo{Username: *name, Address: *address, Phone: *phone},
			Items:    lines,
			Total:    total,
		})
		if err != nil {
			return err
		}
		fmt.Printf("order placed: %s (total %.2f)\n", orderID, total)
		return nil
	})
	if err != nil {
		fail(err)
	}
}

func cmdTrack(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	id := fs.String("id", "", "order id")
	_ = fs.Parse(args)
	if *id == "" {
		fmt.Fprintln(os.Stderr, "need -id")
		os.Exit(1)
	}
	order, err := a.api.Order(ctx, *id)
	if err != nil {
		fail(err)
	}
	fmt.Printf("order %s: %s (total %.2f)\n", order.ID, order.Status, order.Total)
}
