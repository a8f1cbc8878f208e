package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	bus "github.com/glimte/mmate-bus"
	"github.com/glimte/mmate-bus/connstr"
	"github.com/glimte/mmate-bus/internal/rabbitmq"
	"github.com/glimte/mmate-bus/internal/reliability"
	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

const connectionStringEnv = "MMATE_BUS_CONNECTION_STRING"

func main() {
	var (
		connectionString string
		timeout          time.Duration
		verbose          bool
		mode             string
		prefetch         int
		retries          int
	)

	rootCmd := &cobra.Command{
		Use:   "mmate-bus",
		Short: "Create and check mmate-bus endpoints",
		Long: `mmate-bus creates senders, receivers and sessions against a broker and
reports whether they attach. The connection string is read from --connection-string
or the ` + connectionStringEnv + ` environment variable.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if connectionString == "" {
				connectionString = os.Getenv(connectionStringEnv)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&connectionString, "connection-string", "c", "", "broker connection string")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "how long to wait for an endpoint to attach")
	rootCmd.PersistentFlags().IntVar(&retries, "retries", 0, "retry transient creation failures this many times")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Parse command
	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse the connection string and print its fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := connstr.Parse(connectionString)
			if err != nil {
				return err
			}
			url, err := b.AMQPURL()
			if err != nil {
				return err
			}
			fmt.Printf("Endpoint:          %s\n", b.Endpoint)
			fmt.Printf("Broker URL:        %s\n", rabbitmq.SanitizeURL(url))
			fmt.Printf("Key name:          %s\n", b.SharedAccessKeyName)
			fmt.Printf("Entity path:       %s\n", b.EntityPath)
			fmt.Printf("Operation timeout: %s\n", b.Timeout())
			return nil
		},
	}

	// Probe command
	probeCmd := &cobra.Command{
		Use:   "probe",
		Short: "Create an endpoint, report its state and close it",
	}

	receiveOptions := func() ([]bus.Option, error) {
		m, err := bus.ParseReceiveMode(mode)
		if err != nil {
			return nil, err
		}
		return []bus.Option{bus.WithReceiveMode(m), bus.WithPrefetchCount(prefetch)}, nil
	}

	probeSenderCmd := &cobra.Command{
		Use:   "sender [entity-path]",
		Short: "Attach a sender",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return probe(cmd.Context(), connectionString, args, timeout, retries, nil,
				func(ctx context.Context, addr bus.Address, opts []bus.Option) (bus.Endpoint, error) {
					return bus.CreateSender(ctx, addr, opts...)
				})
		},
	}

	probeReceiverCmd := &cobra.Command{
		Use:   "receiver [entity-path]",
		Short: "Attach a receiver",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := receiveOptions()
			if err != nil {
				return err
			}
			return probe(cmd.Context(), connectionString, args, timeout, retries, opts,
				func(ctx context.Context, addr bus.Address, opts []bus.Option) (bus.Endpoint, error) {
					return bus.CreateReceiver(ctx, addr, opts...)
				})
		},
	}

	probeSessionCmd := &cobra.Command{
		Use:   "session <session-id> [entity-path]",
		Short: "Accept a session",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := receiveOptions()
			if err != nil {
				return err
			}
			sessionID := args[0]
			return probe(cmd.Context(), connectionString, args[1:], timeout, retries, opts,
				func(ctx context.Context, addr bus.Address, opts []bus.Option) (bus.Endpoint, error) {
					return bus.AcceptSession(ctx, addr, sessionID, opts...)
				})
		},
	}

	for _, c := range []*cobra.Command{probeReceiverCmd, probeSessionCmd} {
		c.Flags().StringVarP(&mode, "mode", "m", "peeklock", "receive mode: peeklock or receiveanddelete")
		c.Flags().IntVar(&prefetch, "prefetch", bus.DefaultPrefetchCount, "unsettled messages the receiver may hold")
	}

	probeCmd.AddCommand(probeSenderCmd, probeReceiverCmd, probeSessionCmd)
	rootCmd.AddCommand(parseCmd, probeCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", describe(err))
		cancel()
		os.Exit(1)
	}
}

type createFunc func(ctx context.Context, addr bus.Address, opts []bus.Option) (bus.Endpoint, error)

// probe creates one endpoint. With an entity path argument the endpoint is
// created on a shared factory; otherwise the connection string names the entity.
func probe(ctx context.Context, connectionString string, args []string, timeout time.Duration, retries int, opts []bus.Option, create createFunc) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := bus.ConnectionString(connectionString)
	if len(args) == 1 {
		factory, err := bus.NewMessagingFactoryFromConnectionString(ctx, connectionString)
		if err != nil {
			return err
		}
		defer factory.Close()
		addr = bus.EntityPath(factory, args[0])
	}

	policy := reliability.NewExponentialBackoff(250*time.Millisecond, 5*time.Second, 2.0, retries)
	policy.Classify = bus.IsRetryable

	// An endpoint initializes once, so every attempt creates a new one.
	var ep bus.Endpoint
	started := time.Now()
	err := reliability.Retry(ctx, policy, func(ctx context.Context) error {
		var err error
		ep, err = create(ctx, addr, opts)
		return err
	})
	if err != nil {
		return err
	}
	defer ep.Close()

	fmt.Printf("%s attached to %q in %s (state: %s)\n",
		ep.Kind(), ep.EntityPath(), time.Since(started).Round(time.Millisecond), ep.State())

	switch e := ep.(type) {
	case *bus.Receiver:
		fmt.Printf("  mode: %s, prefetch: %d\n", e.ReceiveMode(), e.PrefetchCount())
	case *bus.Session:
		fmt.Printf("  session: %s, mode: %s, prefetch: %d\n", e.SessionID(), e.ReceiveMode(), e.PrefetchCount())
	}
	return nil
}

// describe adds a hint for the error kinds an operator can act on.
func describe(err error) string {
	var argErr *bus.ArgumentError
	var interruptErr *bus.InterruptionError
	switch {
	case errors.As(err, &argErr) && argErr.Name == "connectionString":
		return fmt.Sprintf("%v (pass --connection-string or set %s)", err, connectionStringEnv)
	case bus.IsEntityNotFound(err):
		return fmt.Sprintf("%v (the entity must be declared on the broker first)", err)
	case bus.IsUnauthorized(err):
		return fmt.Sprintf("%v (check SharedAccessKeyName and SharedAccessKey)", err)
	case errors.As(err, &interruptErr):
		return fmt.Sprintf("%v (raise --timeout to wait longer)", err)
	}
	return err.Error()
}
