package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/echoprint/go/cmd/echoprint/internal/config"
	"github.com/haivivi/echoprint/go/pkg/audio/portaudio"
	"github.com/haivivi/echoprint/go/pkg/capture"
	"github.com/haivivi/echoprint/go/pkg/cli"
	"github.com/haivivi/echoprint/go/pkg/codegen"
	"github.com/haivivi/echoprint/go/pkg/dispatch"
	"github.com/haivivi/echoprint/go/pkg/fingerprint"
	"github.com/haivivi/echoprint/go/pkg/history"
)

var (
	listenSeconds   int
	listenCodegen   string
	listenNoHistory bool
	listenProgress  bool
)

// Overridden in tests.
var (
	newDevice = func() (capture.Device, error) {
		return portaudio.NewDevice()
	}
	newGenerator = func(cfg *config.Config, path string) (fingerprint.Generator, error) {
		timeout, err := cfg.CodegenTimeout()
		if err != nil {
			return nil, err
		}
		args := cfg.Codegen.Args
		if path == "" {
			path = cfg.Codegen.Path
		} else {
			args = nil
		}
		if path == "" {
			return nil, errors.New("no code generator: set codegen.path in config or pass --codegen")
		}
		return &codegen.Command{Path: path, Args: args, Timeout: timeout, Logger: slog.Default()}, nil
	}
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Record from the microphone and print its fingerprint code",
	Long: `Record from the default input device for --seconds (clamped to 10-30,
default from config or 20), then run the code generator on the samples.

Press Ctrl-C to stop early; the pass then ends as interrupted and no code
is generated.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().IntVarP(&listenSeconds, "seconds", "s", 0, "capture duration in seconds (default from config)")
	listenCmd.Flags().StringVar(&listenCodegen, "codegen", "", "code generator program (default codegen.path)")
	listenCmd.Flags().BoolVar(&listenNoHistory, "no-history", false, "do not record the pass in the journal")
	listenCmd.Flags().BoolVar(&listenProgress, "progress", false, "show a progress bar while recording")
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	seconds := cfg.CaptureSeconds()
	if cmd.Flags().Changed("seconds") {
		seconds = listenSeconds
	}

	gen, err := newGenerator(cfg, listenCodegen)
	if err != nil {
		return err
	}
	dev, err := newDevice()
	if err != nil {
		return fmt.Errorf("open audio: %w", err)
	}

	var journal *history.Journal
	if !listenNoHistory && !cfg.History.Disabled {
		store, err := openStore(cfg.HistoryDir())
		if err != nil {
			return err
		}
		defer store.Close()
		journal = history.NewJournal(store)
	}

	// Observer callbacks run on this goroutine through the loop.
	loop := dispatch.NewLoop(slog.Default())
	obs := &listenObserver{out: status(cmd), seconds: capture.ClampSeconds(seconds)}
	pipeline, err := fingerprint.New(fingerprint.Config{
		Device:     dev,
		Generator:  gen,
		Observer:   obs,
		Dispatcher: loop,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pass, err := pipeline.Start(sigCtx, seconds)
	if err != nil {
		return err
	}
	go func() {
		<-pass.Done()
		loop.Close()
	}()
	if listenProgress {
		go tickProgress(pass, loop, obs)
	}
	if err := loop.Run(context.Background()); err != nil {
		return err
	}

	rec, _ := history.FromPass(pass)
	if journal != nil {
		saveRecord(cmd.Context(), journal, rec, cfg.HistoryKeep())
	}
	if err := printResult(cmd, rec); err != nil {
		return err
	}
	if out := pass.Outcome(); out.Kind == fingerprint.OutcomeFailed {
		return fmt.Errorf("pass failed: %w", out.Err)
	}
	return nil
}

func saveRecord(ctx context.Context, j *history.Journal, rec history.Record, keep int) {
	if err := j.Save(ctx, rec); err != nil {
		slog.Warn("history: save failed", "pass", rec.ID, "err", err)
		return
	}
	if n, err := j.Prune(ctx, keep); err != nil {
		slog.Warn("history: prune failed", "err", err)
	} else if n > 0 {
		slog.Debug("history: pruned", "removed", n)
	}
}

// tickProgress posts a progress line to the loop every second until the
// capture ends.
func tickProgress(pass *fingerprint.Pass, loop *dispatch.Loop, obs *listenObserver) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-pass.Done():
			return
		case <-t.C:
			elapsed := time.Since(pass.StartedAt)
			loop.Dispatch(func() { obs.progress(elapsed) })
		}
	}
}

// listenObserver prints pass notifications. All methods run on the loop
// goroutine.
type listenObserver struct {
	out       *cli.Printer
	seconds   int
	recording bool
}

func (o *listenObserver) WillStartListening() {
	o.recording = true
	o.out.Info("listening for %ds (Ctrl-C to stop)", o.seconds)
}

func (o *listenObserver) progress(elapsed time.Duration) {
	if !o.recording {
		return
	}
	frac := elapsed.Seconds() / float64(o.seconds)
	if frac >= 1 {
		o.recording = false
		o.out.Info("generating code")
		return
	}
	o.out.Info("%s %s", o.out.Styles.Progress(frac, 30), cli.FormatDuration(elapsed))
}

func (o *listenObserver) DidFinishListening(code string) {
	o.recording = false
	o.out.Success("code %s", o.out.Styles.Code.Render(cli.Truncate(code, 48)))
}

func (o *listenObserver) DidInterrupt() {
	o.recording = false
	o.out.Warning("interrupted before the recording completed")
}

func (o *listenObserver) DidFail(err error) {
	o.recording = false
	var devErr *capture.DeviceError
	if errors.As(err, &devErr) {
		o.out.Error("audio device (%s): %v", devErr.Op, devErr.Err)
		return
	}
	o.out.Error("%v", err)
}
