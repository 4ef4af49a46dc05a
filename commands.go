package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Chative-shopping-guide/server/internal/agent/catalog"
	"github.com/Chative-shopping-guide/server/internal/agent/graph"
	"github.com/Chative-shopping-guide/server/internal/agent/graph/nodes"
	"github.com/Chative-shopping-guide/server/internal/server"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const (
	greetingMessage = "你好呀～我是小智，有什么想买的商品可以告诉我，我会帮你推荐最合适的哦！"
	farewellMessage = "再见啦～有购物需求随时找我！"
	endedMessage    = "对话已结束，再见～"
	clearedMessage  = "对话历史已清空～"
	tooLongMessage  = "你的消息太长啦，精简一下再发给我吧～"
	exitCommand     = "退出"
	clearCommand    = "清空"
)

var (
	cfg        AppConfig
	ingestPath string
)

var rootCmd = &cobra.Command{
	Use:           "shopping-guide",
	Short:         "Conversational shopping assistant",
	Long:          `A shopping-guide assistant that extracts budget and skin-type constraints from chat messages, filters a product catalog and blends the results with a Gemini-generated reply.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logx.Init(logx.LoggerOpts{
			Environment: cfg.Env(),
			Quiet:       cmd.Name() == "chat",
		})
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	RunE:  runServe,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	RunE:  runChat,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load the catalog CSV into the Neo4j product graph",
	RunE:  runIngest,
}

var compareCmd = &cobra.Command{
	Use:   "compare <name> <name>...",
	Short: "Compare products by exact name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestPath, "csv", "", "catalog CSV path (defaults to CATALOG_PATH)")
	rootCmd.AddCommand(serveCmd, chatCmd, ingestCmd, compareCmd)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	handler := server.NewChatHandler(app.Runner, app.Comparator, app.Store.Backend())
	router := server.NewRouter(cfg.Env(), handler)
	return server.Run(ctx, ":"+cfg.Server.Port, router, cfg.Server.ShutdownTimeout)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), app.Runner, cfg.Prompt.AssistantName)
}

// maxInputBytes bounds one REPL line; longer lines are discarded.
const maxInputBytes = 1 << 20

type replLine struct {
	text    string
	tooLong bool
	err     error
}

// runREPL reads one message per line until "退出", EOF or cancellation. Input
// is read in a separate goroutine so cancellation ends the loop immediately.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, runner graph.Runner, assistant string) error {
	if assistant == "" {
		assistant = "小智"
	}
	say := func(msg string) { fmt.Fprintf(out, "%s：%s\n", assistant, msg) }

	sessionID := uuid.NewString()
	say(greetingMessage)
	fmt.Fprintf(out, "（输入「%s」结束对话，输入「%s」清空历史）\n", exitCommand, clearCommand)

	lines := make(chan replLine)
	done := make(chan struct{})
	defer close(done)
	go readLines(in, lines, done)

	for {
		fmt.Fprint(out, "你：")

		var line replLine
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			say(endedMessage)
			return nil
		case line = <-lines:
		}

		if line.err != nil {
			if !errors.Is(line.err, io.EOF) {
				logx.Error().Err(line.err).Str("session_id", sessionID).Msg("Failed to read input")
			}
			fmt.Fprintln(out)
			say(endedMessage)
			return nil
		}
		if ctx.Err() != nil {
			say(endedMessage)
			return nil
		}
		if line.tooLong {
			say(tooLongMessage)
			continue
		}

		text := strings.TrimSpace(line.text)
		switch text {
		case exitCommand:
			say(farewellMessage)
			return nil
		case clearCommand:
			if err := runner.Reset(ctx, sessionID); err != nil {
				logx.Error().Err(err).Str("session_id", sessionID).Msg("Failed to clear history")
				say(nodes.UnavailableMessage)
				continue
			}
			say(clearedMessage)
		case "":
			say(nodes.EmptyInputMessage)
		default:
			say(runner.Handle(ctx, sessionID, text))
		}
	}
}

// readLines sends lines from in until a read error or done is closed.
func readLines(in io.Reader, lines chan<- replLine, done <-chan struct{}) {
	r := bufio.NewReader(in)
	for {
		line := readLine(r)
		select {
		case lines <- line:
		case <-done:
			return
		}
		if line.err != nil {
			return
		}
	}
}

func readLine(r *bufio.Reader) replLine {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if len(buf) > 0 || tooLong {
				return replLine{text: string(buf), tooLong: tooLong}
			}
			return replLine{err: err}
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxInputBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return replLine{text: string(buf), tooLong: tooLong}
		}
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	path := ingestPath
	if path == "" {
		path = cfg.Catalog.Path
	}
	products, err := catalog.LoadCSV(path)
	if err != nil {
		return err
	}

	app := &App{Config: cfg}
	defer app.Close(context.Background())
	driver, err := app.neo4jDriver(ctx)
	if err != nil {
		return err
	}

	stats, err := catalog.NewIngester(driver, cfg.Neo4j.Database, cfg.Neo4j.IngestBatchSize).Ingest(ctx, products)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logx.Warn().Int("products", stats.Products).Msg("Ingestion interrupted")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ingested %d products in %d batches\n", stats.Products, stats.Batches)
	return nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	app, err := NewCatalogApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	fmt.Fprintln(cmd.OutOrStdout(), app.Comparator.Compare(ctx, args))
	return nil
}
