// Command psclient queries the ProfitShare affiliate API with signed
// requests, or prints the signature of a request for debugging.
//
//	psclient -u user -k key --page 1 --advertiser 35
//	psclient -u user -k key --advertisers
//	psclient sign -u user -k key --route affiliate-products --query 'page=1' --date 'Tue, 15 Nov 1994 08:12:31 GMT'
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shopmindai/profitshare/internal/config"
	"github.com/shopmindai/profitshare/internal/logger"
	"github.com/shopmindai/profitshare/internal/model"
	"github.com/shopmindai/profitshare/internal/observers"
	"github.com/shopmindai/profitshare/internal/profitshare"
	"github.com/shopmindai/profitshare/internal/signer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "psclient:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var (
		cfg         config.ClientFlags
		params      model.ListProductsParams
		advertisers bool
	)

	cmd := &cobra.Command{
		Use:           "psclient",
		Short:         "Query the ProfitShare affiliate API with signed requests",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(&cfg); err != nil {
				return err
			}
			if advertisers {
				return fetchAdvertisers(cmd.Context(), &cfg, cmd.OutOrStdout())
			}
			return fetchProducts(cmd.Context(), &cfg, params, cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().AddFlagSet(config.NewClientFlagSet("psclient", &cfg))
	cmd.Flags().IntVarP(&params.Page, "page", "p", 1, "Products page")
	cmd.Flags().StringVarP(&params.Advertisers, "advertiser", "a", "", "Comma separated advertiser ids")
	cmd.Flags().StringVar(&params.PartNo, "part-no", "", "Filter by part number")
	cmd.Flags().BoolVar(&advertisers, "advertisers", false, "List advertisers instead of products")

	cmd.AddCommand(newSignCmd(&cfg))
	return cmd
}

// newClient builds a signing client whose audit events go to the log and
// to the configured sinks. The returned func flushes and closes the sinks.
func newClient(cfg *config.ClientFlags) (*profitshare.Client, func(), error) {
	log, err := logger.Initialize(cfg.LogLevel, "psclient")
	if err != nil {
		return nil, nil, err
	}

	closers := []func() error{func() error { return log.Sync() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	publisher := observers.NewEventPublisher(observers.NewLogObserver(log))
	if cfg.AuditFile != "" {
		fileObserver, err := observers.NewFileObserver(cfg.AuditFile, log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, fileObserver.Close)
		publisher.Register(fileObserver)
	}
	if cfg.AuditURL != "" {
		httpObserver := observers.NewHTTPObserver(cfg.AuditURL, log)
		closers = append(closers, httpObserver.Close)
		publisher.Register(httpObserver)
	}

	client, err := profitshare.NewClient(cfg, log, profitshare.WithPublisher(publisher))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}

func fetchProducts(ctx context.Context, cfg *config.ClientFlags, params model.ListProductsParams, out io.Writer) error {
	client, cleanup, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := client.ListProducts(ctx, params)
	if err != nil {
		return fmt.Errorf("fetching products: %w", err)
	}
	printProducts(out, resp)
	return nil
}

func fetchAdvertisers(ctx context.Context, cfg *config.ClientFlags, out io.Writer) error {
	client, cleanup, err := newClient(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	resp, err := client.ListAdvertisers(ctx)
	if err != nil {
		return fmt.Errorf("fetching advertisers: %w", err)
	}
	printAdvertisers(out, resp)
	return nil
}

func printProducts(out io.Writer, resp *model.ProductResponse) {
	fmt.Fprintf(out, "--- Page %d of %d ---\n", resp.Result.CurrentPage, resp.Result.TotalPages)
	fmt.Fprintf(out, "Found %d products:\n", len(resp.Result.Products))

	if len(resp.Result.Products) == 0 {
		fmt.Fprintln(out, "No products found for the specified filters.")
		return
	}

	for _, product := range resp.Result.Products {
		fmt.Fprintf(out, "Name: %s\n", product.Name)
		fmt.Fprintf(out, "Advertiser: %s\n", product.AdvertiserName)
		fmt.Fprintf(out, "Price (VAT): %.2f\n", product.PriceVAT)
		fmt.Fprintf(out, "Link: %s\n", product.Link)
		fmt.Fprintln(out, "---")
	}
}

func printAdvertisers(out io.Writer, resp *model.AdvertiserResponse) {
	fmt.Fprintf(out, "Found %d advertisers:\n", len(resp.Result))
	for _, a := range resp.Result {
		fmt.Fprintf(out, "%d\t%s\t%s\n", a.ID, a.Name, a.URL)
	}
}

func newSignCmd(cfg *config.ClientFlags) *cobra.Command {
	var method, route, query, date string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the canonical string and ProfitShare headers of a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if date == "" {
				date = signer.FormatHTTPDate(time.Now())
			} else if _, err := signer.ParseHTTPDate(date); err != nil {
				return err
			}

			s := signer.NewSigner(cfg.APIUser, cfg.APIKey)
			res, err := s.SignRaw(method, signer.RoutePath(route), query, date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "canonical: %s\n", res.CanonicalString)
			fmt.Fprintf(out, "%s: %s\n", profitshare.HeaderDate, date)
			fmt.Fprintf(out, "%s: %s\n", profitshare.HeaderClient, cfg.APIUser)
			fmt.Fprintf(out, "%s: json\n", profitshare.HeaderAccept)
			fmt.Fprintf(out, "%s: %s\n", profitshare.HeaderAuth, res.SignatureHex)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "GET", "HTTP method")
	cmd.Flags().StringVarP(&route, "route", "r", "affiliate-products/", "API route, leading slash optional")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Raw query string, signed as given")
	cmd.Flags().StringVar(&date, "date", "", "HTTP date to sign, defaults to now")
	return cmd
}
