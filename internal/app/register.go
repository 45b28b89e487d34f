package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
	"github.com/vladislavdragonenkov/minimart/internal/render"
)

const registerHelp = `Commands:
  items [query]              list sellable items (search by name or category)
  add <id> [count]           add item to cart
  inc <id> | dec <id>        change quantity by one
  qty <id> <delta>           change quantity by delta
  rm <id>                    remove line
  clear                      empty the cart
  cart                       show cart
  checkout                   open payment for the current cart
  pay <amount> [method]      complete the sale (cash, card, mobile)
  cancel                     close payment without selling
  history [n]                recent transactions
  report                     daily summary
  lowstock                   items at or below the low stock alert
  settings [tax cur low]     show or update payment settings
  settings store n|addr|tel  update store name, address, phone
  refresh                    reload catalog
  quit                       leave the register`

var errQuit = errors.New("quit")

type register struct {
	app   *App
	out   io.Writer
	draft *domain.CheckoutDraft
}

// RunRegister запускает интерактивную кассу: команды читаются построчно из in.
// Параллельно работают сервер метрик и публикация событий продаж.
// Возвращает ErrAuthenticationRequired, если сервер завершил сессию.
func (a *App) RunRegister(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := a.RequireSession(ctx); err != nil {
		return err
	}
	a.Engine.Subscribe(render.NewTerminalObserver(out, a.currency))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if a.Config.MetricsAddr != "" {
		startMetricsServer(gctx, a.Config.MetricsAddr, a.Router(), a.Logger.WithField("component", "metrics-server"))
	}
	if a.OutboxWorker != nil {
		g.Go(func() error {
			a.OutboxWorker.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		a.OutboxCleanup.Run(gctx)
		return nil
	})

	r := &register{app: a, out: out}
	g.Go(func() error {
		defer cancel()
		return r.loop(gctx, in)
	})

	err := g.Wait()
	if errors.Is(err, errQuit) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) currency() string {
	return a.Settings.Get().Currency
}

func (r *register) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	r.printf("%s register ready. Type 'help' for commands.\n", r.app.Settings.Get().StoreName)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := r.exec(ctx, strings.Fields(line)); err != nil {
				if errors.Is(err, errQuit) || domain.IsAuthError(err) {
					return err
				}
				r.printf("%s\n", domain.UserMessage(err))
			}
		}
	}
}

func (r *register) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	a := r.app
	switch cmd, rest := strings.ToLower(args[0]), args[1:]; cmd {
	case "help", "?":
		r.printf("%s\n", registerHelp)
	case "quit", "exit":
		return errQuit
	case "items", "ls":
		return render.Inventory(r.out, a.Catalog.Search(strings.Join(rest, " ")), a.currency())
	case "add":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		count := int64(1)
		if len(rest) > 1 {
			if count, err = strconv.ParseInt(rest[1], 10, 64); err != nil || count <= 0 {
				return fmt.Errorf("count %q: %w", rest[1], domain.ErrValidation)
			}
		}
		item, err := a.Catalog.Item(id)
		if err != nil {
			return err
		}
		return a.Engine.AddItems(item, count)
	case "inc", "dec":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		delta := int64(1)
		if cmd == "dec" {
			delta = -1
		}
		return a.Engine.ChangeQuantity(id, delta)
	case "qty":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		if len(rest) < 2 {
			return fmt.Errorf("usage: qty <id> <delta>: %w", domain.ErrValidation)
		}
		delta, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			return fmt.Errorf("delta %q: %w", rest[1], domain.ErrValidation)
		}
		return a.Engine.ChangeQuantity(id, delta)
	case "rm", "remove":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		a.Engine.RemoveItem(id)
	case "clear":
		a.Engine.Clear()
		r.draft = nil
	case "cart":
		return render.Cart(r.out, a.Engine.Lines(), a.Engine.Totals(), a.currency())
	case "checkout":
		return r.openCheckout()
	case "pay":
		return r.pay(ctx, rest)
	case "cancel":
		r.draft = nil
	case "history":
		n := 0
		if len(rest) > 0 {
			n, _ = strconv.Atoi(rest[0])
		}
		return render.Transactions(r.out, a.Reports.Recent(n), a.currency())
	case "report":
		summary, err := a.Reports.Daily(ctx)
		if err != nil {
			return err
		}
		return render.DailySummary(r.out, summary, a.currency())
	case "lowstock":
		return render.Inventory(r.out, a.Catalog.LowStock(a.Settings.Get().LowStockAlert), a.currency())
	case "settings":
		if len(rest) > 0 && strings.EqualFold(rest[0], "store") {
			a.Settings.UpdateStoreFromForm(strings.Join(rest[1:], " "))
		} else if len(rest) >= 3 {
			a.Settings.UpdatePaymentFromForm(rest[0], rest[1], rest[2])
		}
		s := a.Settings.Get()
		r.printf("%s, %s, %s\nTax: %s%%  Currency: %s  Low stock alert: %d\n",
			s.StoreName, s.StoreAddress, s.StorePhone, s.TaxRate.String(), s.Currency, s.LowStockAlert)
	case "refresh":
		if err := a.Catalog.Refresh(ctx); err != nil {
			return err
		}
		r.printf("catalog refreshed: %d items\n", len(a.Catalog.Inventory()))
	default:
		return fmt.Errorf("unknown command %q, type 'help': %w", cmd, domain.ErrValidation)
	}
	return nil
}

func (r *register) openCheckout() error {
	draft, err := r.app.Engine.BeginCheckout()
	if err != nil {
		return err
	}
	r.draft = &draft
	r.printf("Total due: %s\n", render.Money(draft.GrandTotal, r.app.currency()))
	return nil
}

// pay использует открытый черновик; повтор после ошибки отправляет тот же ключ идемпотентности.
func (r *register) pay(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: pay <amount> [method]: %w", domain.ErrValidation)
	}
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[0], domain.ErrValidation)
	}
	method := domain.PaymentMethodCash
	if len(args) > 1 {
		method = domain.PaymentMethod(strings.ToLower(args[1]))
	}
	if r.draft == nil {
		if err := r.openCheckout(); err != nil {
			return err
		}
	}

	if _, err := r.app.Engine.CompleteSale(ctx, *r.draft, amount, method); err != nil {
		// Наблюдатель уже показал ошибку, наверх уходит только потеря сессии.
		if domain.IsAuthError(err) {
			r.draft = nil
			return err
		}
		return nil
	}
	r.draft = nil
	return nil
}

func argID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("item id is required: %w", domain.ErrValidation)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("item id %q: %w", args[0], domain.ErrValidation)
	}
	return id, nil
}

func (r *register) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}
