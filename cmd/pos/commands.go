package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/minimart/internal/app"
	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/render"
)

// buildApp читает конфиг, настраивает логирование и собирает кассу.
func buildApp() (*app.App, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigureLogging(cfg.LogLevel); err != nil {
		return nil, err
	}
	return app.New(cfg, app.WithLogger(log.WithField("register_id", cfg.RegisterID)))
}

// withSession собирает кассу, загружает каталог и закрывает её после действия.
func withSession(action func(c *cli.Context, a *app.App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.WithError(err).Warn("failed to close register")
			}
		}()
		if err := a.RequireSession(c.Context); err != nil {
			return err
		}
		return action(c, a)
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "sign in and store the token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, EnvVars: []string{"POS_EMAIL"}},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"POS_PASSWORD"}},
		},
		Action: func(c *cli.Context) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()

			email, password := c.String("email"), c.String("password")
			in := bufio.NewReader(c.App.Reader)
			if email == "" {
				if email, err = prompt(c, in, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(c, in, "Password: "); err != nil {
					return err
				}
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required: %w", domain.ErrValidation)
			}

			user, err := a.Login(c.Context, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Logged in as %s, %d items on sale\n", user.Email, len(a.Catalog.Inventory()))
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "forget the stored token",
		Action: func(c *cli.Context) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer a.Close()
			a.Logout()
			fmt.Fprintln(c.App.Writer, "Logged out")
			return nil
		},
	}
}

func catalogCommand() *cli.Command {
	return &cli.Command{
		Name:      "catalog",
		Usage:     "list sellable items",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "low-stock", Usage: "only items at or below the low stock alert"},
		},
		Action: withSession(func(c *cli.Context, a *app.App) error {
			items := a.Catalog.Search(strings.Join(c.Args().Slice(), " "))
			if c.Bool("low-stock") {
				items = a.Catalog.LowStock(a.Settings.Get().LowStockAlert)
			}
			return render.Inventory(c.App.Writer, items, a.Settings.Get().Currency)
		}),
	}
}

func stockFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "description"},
		&cli.StringFlag{Name: "price", Usage: "base price", Required: true},
		&cli.Int64Flag{Name: "quantity", Required: true},
		&cli.Int64Flag{Name: "category", Usage: "category id", Required: true},
	}
}

func stockInput(c *cli.Context) (domain.StockProductInput, error) {
	price, err := parseMoney("price", c.String("price"))
	if err != nil {
		return domain.StockProductInput{}, err
	}
	return domain.StockProductInput{
		Name:        c.String("name"),
		Description: c.String("description"),
		BasePrice:   price,
		Quantity:    c.Int64("quantity"),
		CategoryID:  c.Int64("category"),
	}, nil
}

func stockCommand() *cli.Command {
	return &cli.Command{
		Name:  "stock",
		Usage: "manage stock products",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list stock products",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "available", Usage: "only products with stock left"}},
				Action: withSession(func(c *cli.Context, a *app.App) error {
					products := a.Catalog.StockProducts()
					if c.Bool("available") {
						var err error
						if products, err = a.AvailableStock(c.Context); err != nil {
							return err
						}
					}
					return render.StockProducts(c.App.Writer, products, a.Settings.Get().Currency)
				}),
			},
			{
				Name:  "add",
				Usage: "create a stock product",
				Flags: stockFlags(),
				Action: withSession(func(c *cli.Context, a *app.App) error {
					in, err := stockInput(c)
					if err != nil {
						return err
					}
					created, err := a.Inventory.AddStockProduct(c.Context, in)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Stock product %d created\n", created.ID)
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "update a stock product",
				ArgsUsage: "<id>",
				Flags:     stockFlags(),
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					in, err := stockInput(c)
					if err != nil {
						return err
					}
					if _, err := a.Inventory.UpdateStockProduct(c.Context, id, in); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Stock product %d updated\n", id)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a stock product",
				ArgsUsage: "<id>",
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					if err := a.Inventory.DeleteStockProduct(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Stock product %d deleted\n", id)
					return nil
				}),
			},
		},
	}
}

func inventoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{Name: "stock-id", Required: true},
		&cli.StringFlag{Name: "price", Usage: "sale price, defaults to base price plus markup"},
		&cli.StringFlag{Name: "discount", Value: "0", Usage: "fraction in [0,1)"},
		&cli.Int64Flag{Name: "quantity", Required: true},
	}
}

func inventoryInput(c *cli.Context, a *app.App) (domain.InventoryProductInput, error) {
	stockID := c.Int64("stock-id")
	var price decimal.Decimal
	var err error
	if raw := c.String("price"); raw != "" {
		price, err = parseMoney("price", raw)
	} else {
		price, err = a.Inventory.SuggestSalePrice(stockID)
	}
	if err != nil {
		return domain.InventoryProductInput{}, err
	}
	discount, err := parseMoney("discount", c.String("discount"))
	if err != nil {
		return domain.InventoryProductInput{}, err
	}
	return domain.InventoryProductInput{
		StockProductID: stockID,
		SalePrice:      price,
		SaleQuantity:   c.Int64("quantity"),
		Discount:       discount,
	}, nil
}

func inventoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "manage items on sale",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "put a stock product on sale",
				Flags: inventoryFlags(),
				Action: withSession(func(c *cli.Context, a *app.App) error {
					in, err := inventoryInput(c, a)
					if err != nil {
						return err
					}
					created, err := a.Inventory.AddInventoryProduct(c.Context, in)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Item %d on sale at %s\n", created.ID,
						render.Money(in.SalePrice, a.Settings.Get().Currency))
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "update an item on sale",
				ArgsUsage: "<id>",
				Flags:     inventoryFlags(),
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					in, err := inventoryInput(c, a)
					if err != nil {
						return err
					}
					if _, err := a.Inventory.UpdateInventoryProduct(c.Context, id, in); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Item %d updated\n", id)
					return nil
				}),
			},
			{
				Name:      "return",
				Usage:     "take an item off sale and return it to stock",
				ArgsUsage: "<id>",
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					if err := a.Inventory.ReturnToStock(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Item %d returned to stock\n", id)
					return nil
				}),
			},
			{
				Name:      "suggest-price",
				Usage:     "show the suggested sale price for a stock product",
				ArgsUsage: "<stock-id>",
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					price, err := a.Inventory.SuggestSalePrice(id)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, render.Money(price, a.Settings.Get().Currency))
					return nil
				}),
			},
		},
	}
}

func categoryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "description"},
	}
}

func categoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "manage categories",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list categories",
				Action: withSession(func(c *cli.Context, a *app.App) error {
					return render.Categories(c.App.Writer, a.Catalog.Categories())
				}),
			},
			{
				Name:  "add",
				Usage: "create a category",
				Flags: categoryFlags(),
				Action: withSession(func(c *cli.Context, a *app.App) error {
					created, err := a.Inventory.AddCategory(c.Context, domain.CategoryInput{
						Name:        c.String("name"),
						Description: c.String("description"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Category %d created\n", created.ID)
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "rename a category",
				ArgsUsage: "<id>",
				Flags:     categoryFlags(),
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					_, err = a.Inventory.UpdateCategory(c.Context, id, domain.CategoryInput{
						Name:        c.String("name"),
						Description: c.String("description"),
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Category %d updated\n", id)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a category",
				ArgsUsage: "<id>",
				Action: withSession(func(c *cli.Context, a *app.App) error {
					id, err := argID(c)
					if err != nil {
						return err
					}
					if err := a.Inventory.DeleteCategory(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Category %d deleted\n", id)
					return nil
				}),
			},
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "show today's sales summary",
		Action: withSession(func(c *cli.Context, a *app.App) error {
			summary, err := a.Reports.Daily(c.Context)
			if err != nil {
				return err
			}
			return render.DailySummary(c.App.Writer, summary, a.Settings.Get().Currency)
		}),
	}
}

func registerCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "open the interactive register",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tax", Usage: "tax rate in percent"},
			&cli.StringFlag{Name: "currency"},
		},
		Action: func(c *cli.Context) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.WithError(err).Warn("failed to close register")
				}
			}()
			if c.IsSet("tax") || c.IsSet("currency") {
				s := a.Settings.Get()
				tax, currency := s.TaxRate.String(), s.Currency
				if c.IsSet("tax") {
					tax = c.String("tax")
				}
				if c.IsSet("currency") {
					currency = c.String("currency")
				}
				a.Settings.UpdatePaymentFromForm(tax, currency, strconv.FormatInt(s.LowStockAlert, 10))
			}
			return a.RunRegister(c.Context, c.App.Reader, c.App.Writer)
		},
	}
}

func argID(c *cli.Context) (int64, error) {
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %q: %w", raw, domain.ErrValidation)
	}
	return id, nil
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a number: %w", field, raw, domain.ErrValidation)
	}
	return v, nil
}

func prompt(c *cli.Context, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(c.App.Writer, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(label, ": "), err)
	}
	return strings.TrimSpace(line), nil
}
