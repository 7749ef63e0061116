package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/cafepos/internal/terminal/cart"
	"github.com/angelmondragon/cafepos/internal/terminal/discount"
	"github.com/angelmondragon/cafepos/internal/terminal/gateway"
	"github.com/angelmondragon/cafepos/internal/terminal/ledger"
	"github.com/angelmondragon/cafepos/internal/terminal/lifecycle"
	"github.com/angelmondragon/cafepos/internal/terminal/search"
	"github.com/angelmondragon/cafepos/internal/terminal/session"
	"github.com/angelmondragon/cafepos/pkg/config"
	"github.com/angelmondragon/cafepos/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafepos/pkg/errors"
	"github.com/angelmondragon/cafepos/pkg/logger"
	"github.com/angelmondragon/cafepos/pkg/money"
	"github.com/angelmondragon/cafepos/pkg/sale"
)

const helpText = `commands:
  login <code> <pin>            sign in
  new                           start a draft sale
  list                          list open drafts
  resume <sale-id>              load a sale
  search <text>                 find products
  add <result#> [qty]           add a product from the last search
  qty <line#> <qty>             change a line quantity
  ldisc <line#> <amount>        set a line discount
  rm <line#>                    remove a line
  discount <amount>             set the sale discount
  pay <cash|card|e_wallet> <amount> [reference]
  summary                       refresh the payment summary
  complete                      complete the sale
  void <reason>                 void the sale
  show                          print the current sale
  quit`

type terminal struct {
	cfg       *config.TerminalConfig
	logg      *logger.Logger
	client    *gateway.Client
	lifecycle lifecycle.Service
	searcher  *search.Searcher
	session   *session.Session
	out       io.Writer

	results []sale.Product
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadTerminal()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "terminal",
		Level:       logger.ParseLevel(cfg.Log.Level),
		WarnStack:   cfg.Log.WarnStack,
		Format:      cfg.Log.Format,
		NoColor:     cfg.Log.NoColor,
		Output:      os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithTerminalID(ctx, cfg.App.TerminalID)

	term, err := newTerminal(cfg, logg, os.Stdout)
	if err != nil {
		logg.Error(ctx, "failed to build terminal", err)
		os.Exit(1)
	}

	if err := term.run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "terminal stopped", err)
		os.Exit(1)
	}
}

func newTerminal(cfg *config.TerminalConfig, logg *logger.Logger, out io.Writer) (*terminal, error) {
	client, err := gateway.NewClient(cfg.Gateway.BaseURL,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Gateway.Timeout}),
		gateway.WithAccessToken(cfg.Gateway.AccessToken),
		gateway.WithTerminalID(cfg.App.TerminalID),
		gateway.WithLogger(logg),
	)
	if err != nil {
		return nil, err
	}

	searcher, err := search.NewSearcher(client, cfg.Search.Debounce, cfg.Search.Limit)
	if err != nil {
		return nil, err
	}
	cartSvc, err := cart.NewService(client)
	if err != nil {
		return nil, err
	}
	discountSvc, err := discount.NewService(client)
	if err != nil {
		return nil, err
	}
	ledgerSvc, err := ledger.NewService(client)
	if err != nil {
		return nil, err
	}
	lifecycleSvc, err := lifecycle.NewService(client)
	if err != nil {
		return nil, err
	}
	sess, err := session.New(session.Params{
		Cart:      cartSvc,
		Discount:  discountSvc,
		Ledger:    ledgerSvc,
		Lifecycle: lifecycleSvc,
		Logger:    logg,
	})
	if err != nil {
		return nil, err
	}

	return &terminal{
		cfg:       cfg,
		logg:      logg,
		client:    client,
		lifecycle: lifecycleSvc,
		searcher:  searcher,
		session:   sess,
		out:       out,
	}, nil
}

func (t *terminal) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(t.out, "cafepos terminal, type help for commands")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(t.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			t.searcher.Cancel()
			return nil
		}
		if err := t.dispatch(ctx, fields[0], fields[1:]); err != nil {
			t.printError(err)
		}
	}
}

func (t *terminal) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(t.out, helpText)
		return nil
	case "login":
		if len(args) != 2 {
			return usage("login <code> <pin>")
		}
		signedIn, err := t.client.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(t.out, "signed in as %s (%s)\n", signedIn.Cashier.DisplayName, signedIn.Cashier.Code)
		return nil
	case "new":
		return t.showSale(t.session.NewSale(ctx, nil))
	case "list":
		page, err := t.lifecycle.ListDrafts(ctx, 0, "")
		if err != nil {
			return err
		}
		if len(page.Items) == 0 {
			fmt.Fprintln(t.out, "no open drafts")
		}
		for _, s := range page.Items {
			fmt.Fprintf(t.out, "%s  %s  %s\n", s.ID, s.SaleNumber, t.format(s.TotalAmount))
		}
		return nil
	case "resume":
		if len(args) != 1 {
			return usage("resume <sale-id>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "sale id must be a uuid")
		}
		return t.showSale(t.session.Resume(ctx, id))
	case "search":
		return t.search(ctx, strings.Join(args, " "))
	case "add":
		return t.addItem(ctx, args)
	case "qty":
		if len(args) != 2 {
			return usage("qty <line#> <qty>")
		}
		item, err := t.line(args[0])
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a whole number")
		}
		return t.showSale(t.session.UpdateItemQuantity(ctx, item.ID, qty))
	case "ldisc":
		if len(args) != 2 {
			return usage("ldisc <line#> <amount>")
		}
		item, err := t.line(args[0])
		if err != nil {
			return err
		}
		amount, err := money.ParseToCents(args[1])
		if err != nil {
			return err
		}
		return t.showSale(t.session.UpdateItemDiscount(ctx, item.ID, amount))
	case "rm":
		if len(args) != 1 {
			return usage("rm <line#>")
		}
		item, err := t.line(args[0])
		if err != nil {
			return err
		}
		return t.showSale(t.session.RemoveItem(ctx, item.ID))
	case "discount":
		if len(args) == 0 {
			return usage("discount <amount>")
		}
		return t.showSale(t.session.ApplyDiscountText(ctx, strings.Join(args, " ")))
	case "pay":
		return t.pay(ctx, args)
	case "summary":
		summary, err := t.session.RefreshSummary(ctx)
		if err != nil {
			return err
		}
		t.printSummary(summary)
		return nil
	case "complete":
		completed, err := t.session.Complete(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(t.out, "sale %s completed\n", completed.SaleNumber)
		t.session.Clear()
		return nil
	case "void":
		if len(args) == 0 {
			return usage("void <reason>")
		}
		voided, err := t.session.Void(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(t.out, "sale %s voided\n", voided.SaleNumber)
		t.session.Clear()
		return nil
	case "show":
		current, summary := t.session.Snapshot()
		if current == nil {
			fmt.Fprintln(t.out, "no current sale")
			return nil
		}
		t.printSale(current)
		if summary != nil {
			t.printSummary(summary)
		}
		return nil
	default:
		return usage("help")
	}
}

func (t *terminal) search(ctx context.Context, query string) error {
	found, err := t.searcher.Search(ctx, query)
	if errors.Is(err, search.ErrSuperseded) {
		return nil
	}
	if err != nil {
		return err
	}
	t.results = found
	if len(found) == 0 {
		fmt.Fprintln(t.out, "no products")
	}
	for i, p := range found {
		fmt.Fprintf(t.out, "%2d. %-10s %-28s %s\n", i+1, p.SKU, p.Name, t.format(p.UnitPrice))
	}
	return nil
}

func (t *terminal) addItem(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("add <result#> [qty]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(t.results) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pick a product number from the last search")
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a whole number")
		}
	}
	return t.showSale(t.session.AddItem(ctx, t.results[n-1].ID, qty))
}

func (t *terminal) pay(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return usage("pay <" + strings.Join(enums.PaymentMethodNames(), "|") + "> <amount> [reference]")
	}
	method, err := enums.ParsePaymentMethod(args[0])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	amount, err := money.ParseToCents(args[1])
	if err != nil {
		return err
	}
	tender := ledger.Tender{Method: method, Amount: amount}
	if len(args) == 3 {
		tender.Reference = args[2]
	}

	result, err := t.session.AddPayment(ctx, tender)
	if result != nil && result.Payment != nil {
		fmt.Fprintf(t.out, "%s payment of %s recorded\n", result.Payment.PaymentMethod, t.format(result.Payment.Amount))
		if result.ChangePreview > 0 {
			fmt.Fprintf(t.out, "change due: %s\n", t.format(result.ChangePreview))
		}
	}
	if err != nil {
		if result != nil && result.Payment != nil {
			fmt.Fprintln(t.out, "summary is stale; run summary before the next tender")
		}
		return err
	}
	t.printSummary(result.Summary)
	return nil
}

func (t *terminal) line(arg string) (*sale.SaleItem, error) {
	current, _ := t.session.Snapshot()
	if current == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no current sale")
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(current.Items) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pick a line number from show")
	}
	item := current.Items[n-1]
	return &item, nil
}

func (t *terminal) showSale(s *sale.Sale, err error) error {
	if err != nil {
		return err
	}
	t.printSale(s)
	return nil
}

func (t *terminal) printSale(s *sale.Sale) {
	fmt.Fprintf(t.out, "sale %s [%s]\n", s.SaleNumber, s.Status)
	for i, item := range s.Items {
		fmt.Fprintf(t.out, "%2d. %-28s %3d x %-10s %s\n", i+1, item.ProductName, item.Quantity, t.format(item.UnitPrice), t.format(item.LineTotal))
		if item.DiscountAmount > 0 {
			fmt.Fprintf(t.out, "      line discount -%s\n", t.format(item.DiscountAmount))
		}
	}
	fmt.Fprintf(t.out, "subtotal %s  discount -%s  tax %s  total %s\n",
		t.format(s.Subtotal), t.format(s.DiscountAmount), t.format(s.TaxAmount), t.format(s.TotalAmount))
	if s.VoidReason != nil {
		fmt.Fprintf(t.out, "void reason: %s\n", *s.VoidReason)
	}
}

func (t *terminal) printSummary(summary *sale.PaymentSummary) {
	if summary == nil {
		return
	}
	fmt.Fprintf(t.out, "paid %s of %s, remaining %s\n",
		t.format(summary.TotalPaid), t.format(summary.TotalAmount), t.format(summary.RemainingBalance))
}

func (t *terminal) printError(err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		fmt.Fprintf(t.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(t.out, "error [%s]: %s\n", typed.Code(), typed.Message())
}

func (t *terminal) format(c money.Cents) string {
	out, err := money.FormatAsCurrency(c, t.cfg.Display.Currency, t.cfg.Display.Locale)
	if err != nil {
		return c.String()
	}
	return out
}

func usage(text string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "usage: "+text)
}
