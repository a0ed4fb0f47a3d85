package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
)

// app holds every collaborator the commands need. Containers and clients
// are constructed once per invocation and passed by handle; there is no
// package-level state.
type app struct {
	cfg     *config.Config
	logg    *logger.Logger
	store   kv.Store
	catalog *catalog.Client
	auth    *auth.Client
	cartMgr *cart.Manager
	authMgr *auth.Manager
}

func (a *app) bootstrap(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	store, err := openStore(ctx, cfg, a.logg)
	if err != nil {
		return err
	}
	a.store = store

	m := metrics.NewClientMetrics(prometheus.DefaultRegisterer)

	if a.catalog, err = catalog.NewClient(cfg.API, a.logg, m); err != nil {
		return err
	}
	if a.auth, err = auth.NewClient(cfg.API, a.logg, m); err != nil {
		return err
	}
	if a.cartMgr, err = cart.NewManager(ctx, store, cfg.Storage.CartKey, a.logg, m); err != nil {
		return err
	}
	if a.authMgr, err = auth.NewManager(ctx, store, cfg.Storage.TokenKey, a.logg); err != nil {
		return err
	}
	return nil
}

func (a *app) close() error {
	var err error
	for _, closer := range []io.Closer{a.store} {
		if closer != nil {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (kv.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendMemory:
		return kv.NewMemory(), nil
	case config.StorageBackendRedis:
		return kv.NewRedis(ctx, cfg.Redis, logg)
	default:
		return kv.OpenFile(cfg.Storage.FilePath)
	}
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the catalog and manage a local cart and session",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bootstrap(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.AddCommand(
		newProductsCommand(a),
		newCategoriesCommand(a),
		newProductCommand(a),
		newCartCommand(a),
		newAddCommand(a),
		newQtyCommand(a),
		newRemoveCommand(a),
		newClearCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newWhoamiCommand(a),
	)
	return root, a
}

func newProductsCommand(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				products []catalog.Product
				err      error
			)
			if category != "" {
				products, err = a.catalog.ProductsByCategory(cmd.Context(), category)
			} else {
				products, err = a.catalog.Products(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, p := range products {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-40s  %10s  %s\n", p.ID, p.Title, p.Price.StringFixed(2), p.Category)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "filter by category label")
	return cmd
}

func newCategoriesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the known categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.catalog.Categories(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}

func newProductCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.catalog.ProductByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (#%d)\n", p.Title, p.ID)
			fmt.Fprintf(out, "Price:    %s\n", p.Price.StringFixed(2))
			fmt.Fprintf(out, "Category: %s\n", p.Category)
			if p.Rating != nil {
				fmt.Fprintf(out, "Rating:   %.1f (%d reviews)\n", p.Rating.Rate, p.Rating.Count)
			}
			fmt.Fprintln(out, p.Description)
			return nil
		},
	}
}

func newCartCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cart",
		Short: "Show the cart contents and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			lines := a.cartMgr.Lines()
			if len(lines) == 0 {
				fmt.Fprintln(out, "Cart is empty.")
				return nil
			}
			for _, line := range lines {
				fmt.Fprintf(out, "%4d  %-40s  %3d x %10s = %10s\n",
					line.ID, line.Title, line.Quantity, line.Price.StringFixed(2), line.Subtotal().StringFixed(2))
			}
			fmt.Fprintf(out, "Items: %d  Total: %s\n", a.cartMgr.Count(), a.cartMgr.Total().StringFixed(2))
			return nil
		},
	}
}

func newAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <id> [quantity]",
		Short: "Add a product to the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			quantity := 1
			if len(args) == 2 {
				quantity, err = strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("quantity must be an integer: %w", err)
				}
			}
			p, err := a.catalog.ProductByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := a.cartMgr.Add(cmd.Context(), *p, quantity); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s\n", quantity, p.Title)
			return nil
		},
	}
}

func newQtyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "qty <id> <quantity>",
		Short: "Set the quantity of a cart line (below 1 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.cartMgr.UpdateQuantity(cmd.Context(), id, args[1])
		},
	}
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.cartMgr.Remove(cmd.Context(), id)
		},
	}
}

func newClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.cartMgr.Clear(cmd.Context())
		},
	}
}

func newLoginCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username> <password>",
		Short: "Sign in against the remote auth service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.auth.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if err := a.authMgr.Login(cmd.Context(), auth.User{Username: args[0]}, token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", args[0])
			return nil
		},
	}
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.authMgr.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			user := a.authMgr.CurrentUser()
			if user == nil {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s\n", user.Username)
			return nil
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("product id must be an integer: %w", err)
	}
	return id, nil
}
