// Package logsctl builds the logs provider admin CLI.
package logsctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	entrypoint "github.com/louisbranch/logsprovider/internal/platform/cmd"
	"github.com/louisbranch/logsprovider/internal/platform/discovery"
	platformgrpc "github.com/louisbranch/logsprovider/internal/platform/grpc"
	"github.com/louisbranch/logsprovider/internal/platform/timeouts"
	logsservice "github.com/louisbranch/logsprovider/internal/services/logs/api/grpc/logs"
	"github.com/louisbranch/logsprovider/internal/services/logs/address"
	"github.com/louisbranch/logsprovider/internal/services/logs/export"
	"github.com/louisbranch/logsprovider/internal/services/logs/notify"
	logsamqp "github.com/louisbranch/logsprovider/internal/services/logs/notify/amqp"
	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/louisbranch/logsprovider/internal/services/logs/recorder"
	logssqlite "github.com/louisbranch/logsprovider/internal/services/logs/storage/sqlite"
	"github.com/spf13/cobra"
)

// Config holds logsctl defaults read under LOGSPROVIDER_.
type Config struct {
	Addr         string `env:"ADDR"`
	DBPath       string `env:"DB_PATH" envDefault:"data/logs.db"`
	Authority    string `env:"AUTHORITY"`
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"logs.changes"`
}

// LoadConfig reads environment defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := entrypoint.LoadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewRoot constructs the logsctl command tree. Persistent flags override cfg.
func NewRoot(cfg Config) *cobra.Command {
	root := &cobra.Command{
		Use:           entrypoint.ProgramLogsctl,
		Short:         "Inspect and maintain the logs provider",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "Logs provider gRPC address (default "+discovery.DefaultGRPCAddr(discovery.ServiceLogs)+")")
	flags.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database path for local commands")
	flags.StringVar(&cfg.Authority, "authority", cfg.Authority, "Content URI authority")
	flags.StringVar(&cfg.AMQPURL, "amqp-url", cfg.AMQPURL, "RabbitMQ URL used to announce local writes")
	flags.StringVar(&cfg.AMQPExchange, "amqp-exchange", cfg.AMQPExchange, "RabbitMQ fanout exchange for change events")

	root.AddCommand(
		newQueryCommand(&cfg),
		newWatchCommand(&cfg),
		newAddCommand(&cfg),
		newClearCommand(&cfg),
		newExportCommand(&cfg),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, cfg Config, args []string) error {
	root := NewRoot(cfg)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newQueryCommand(cfg *Config) *cobra.Command {
	var opts provider.QueryOptions
	cmd := &cobra.Command{
		Use:   "query [uri]",
		Short: "Query a collection or item URI; defaults to the collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := cfg.router().CollectionURI()
			if len(args) == 1 {
				uri = args[0]
			}
			client, closeConn, err := cfg.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer closeConn()

			rows, err := client.Query(cmd.Context(), uri, opts)
			if err != nil {
				return fmt.Errorf("query %s: %w", uri, err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range rows {
				if err := enc.Encode(export.Record{ID: row.ID, Msg: row.Msg, Timestamp: row.Timestamp.UTC()}); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.Projection, "projection", nil, "Column hint (ignored by the provider)")
	cmd.Flags().StringVar(&opts.Selection, "selection", "", "Filter hint (ignored by the provider)")
	cmd.Flags().StringSliceVar(&opts.SelectionArgs, "selection-arg", nil, "Filter argument hint (ignored by the provider)")
	cmd.Flags().StringVar(&opts.SortOrder, "sort-order", "", "Ordering hint (ignored by the provider)")
	return cmd
}

func newWatchCommand(cfg *Config) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch [uri]",
		Short: "Print every change URI related to the watched URI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := cfg.router().CollectionURI()
			if len(args) == 1 {
				uri = args[0]
			}
			client, closeConn, err := cfg.dial(cmd.Context())
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			stream, err := client.Watch(ctx, uri)
			if err != nil {
				return fmt.Errorf("watch %s: %w", uri, err)
			}
			for seen := 0; count <= 0 || seen < count; seen++ {
				changed, err := stream.Recv()
				if err != nil {
					if errors.Is(err, io.EOF) || ctx.Err() != nil {
						return nil
					}
					return fmt.Errorf("watch %s: %w", uri, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), changed.GetValue())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 0, "Stop after N changes (0 = until interrupted)")
	return cmd
}

func newAddCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add <msg>...",
		Short: "Append log messages to the local database",
		Long:  "Append log messages to the local database.\n\n" + notifyHelp,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, closeAll, err := cfg.openRecorder(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeAll()

			ids, err := rec.AddLogs(cmd.Context(), args...)
			if err != nil {
				return fmt.Errorf("add logs: %w", err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.router().ItemURI(id))
			}
			return nil
		},
	}
}

func newClearCommand(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every log row from the local database",
		Long:  "Delete every log row from the local database.\n\n" + notifyHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, closeAll, err := cfg.openRecorder(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeAll()
			if err := rec.RemoveLogs(cmd.Context()); err != nil {
				return fmt.Errorf("clear logs: %w", err)
			}
			return nil
		},
	}
}

func newExportCommand(cfg *Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every log row as JSON lines; zstd when --out ends in .zst",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cfg.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if out == "" || out == "-" {
				_, err := export.Write(cmd.Context(), cmd.OutOrStdout(), store)
				return err
			}
			n, err := export.WriteFile(cmd.Context(), out, store)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d logs to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func (c *Config) router() *address.Router {
	return address.NewRouter(c.Authority, address.DefaultTable)
}

func (c *Config) dial(ctx context.Context) (*logsservice.Client, func(), error) {
	addr := discovery.OrDefaultGRPCAddr(c.Addr, discovery.ServiceLogs)
	conn, err := platformgrpc.DialWithHealth(ctx, nil, addr, logsservice.ServiceName, timeouts.GRPCDial, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return logsservice.NewClient(conn), func() { _ = conn.Close() }, nil
}

func (c *Config) openStore() (*logssqlite.Store, error) {
	if dir := filepath.Dir(c.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := logssqlite.Open(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open logs sqlite store: %w", err)
	}
	return store, nil
}

const notifyHelp = `Watchers of a running server only hear about this change when
LOGSPROVIDER_AMQP_URL (or --amqp-url) names the broker the server listens on.
Without it the database changes silently.`

// openRecorder opens the local store and, when configured, an AMQP
// publisher so a running server hears about the write. A missing broker
// URL is reported on warn.
func (c *Config) openRecorder(warn io.Writer) (*recorder.Recorder, func(), error) {
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = store.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	hub := notify.NewHub()
	if c.AMQPURL != "" {
		conn, ch, err := logsamqp.Connect(c.AMQPURL)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		publisher, err := logsamqp.NewPublisher(ch, c.AMQPExchange, uuid.NewString())
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		hub.AddSink(publisher)
	} else {
		fmt.Fprintln(warn, "warning: LOGSPROVIDER_AMQP_URL is not set; running servers will not see this change")
	}

	rec, err := recorder.New(store, c.router(), hub)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return rec, closeAll, nil
}
