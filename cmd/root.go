package cmd

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Use-Tusk/redirect-check/internal/log"
	"github.com/Use-Tusk/redirect-check/internal/tui/styles"
	"github.com/Use-Tusk/redirect-check/internal/utils"
	"github.com/Use-Tusk/redirect-check/internal/version"
)

var (
	cfgFile     string
	debug       bool
	showVersion bool

	// Cleanup infrastructure
	cleanupFuncs []func()
	cleanupMutex sync.Mutex
	signalSetup  sync.Once

	// cancelled when SIGINT/SIGTERM arrives
	rootCtx, rootCancel = context.WithCancel(context.Background())
)

//go:embed short_docs/overview.md
var overviewContent string

var rootCmd = &cobra.Command{
	Use:   "redirect-check",
	Short: "Check a web server's redirect configuration against YAML rules",
	Long:  utils.RenderMarkdown(overviewContent),
	Run: func(cmd *cobra.Command, args []string) {
		showBanner()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			version.PrintVersion()
			os.Exit(0)
		}
		log.Setup(debug, log.ModeHeadless)
		return nil
	},
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func showBanner() {
	title := "redirect-check"
	if !styles.NoColor() && utils.IsTerminal() {
		title = styles.TitleStyle.Render(title)
	}
	fmt.Println(title)
	fmt.Println("HTTP redirect conformance checker")
	fmt.Printf("Version: %s\n\n", version.Version)
	fmt.Println(`Use "redirect-check --help" for more information about available commands.`)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .redirect-check/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug output")
	rootCmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "show version and exit")
}

// RegisterCleanup adds a cleanup function to be called on program termination
func RegisterCleanup(fn func()) {
	cleanupMutex.Lock()
	defer cleanupMutex.Unlock()
	cleanupFuncs = append(cleanupFuncs, fn)
}

// runCleanup executes all registered cleanup functions
func runCleanup() {
	cleanupMutex.Lock()
	defer cleanupMutex.Unlock()

	slog.Debug("Running cleanup functions", "count", len(cleanupFuncs))
	for i, fn := range cleanupFuncs {
		slog.Debug("Running cleanup function", "index", i)
		fn()
	}
	cleanupFuncs = nil
}

// setupSignalHandling cancels rootCtx on the first signal so in-flight
// requests are abandoned, and exits on the second.
func setupSignalHandling() {
	signalSetup.Do(func() {
		c := make(chan os.Signal, 2)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-c
			log.Stderrln(fmt.Sprintf("Received %s signal, stopping", sig))
			rootCancel()
			runCleanup()

			<-c
			os.Exit(1)
		}()

		slog.Debug("Signal handling setup complete")
	})
}
