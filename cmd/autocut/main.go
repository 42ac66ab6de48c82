package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/autocut/internal/audio"
	"github.com/linuxmatters/autocut/internal/cli"
	"github.com/linuxmatters/autocut/internal/config"
	"github.com/linuxmatters/autocut/internal/logging"
	"github.com/linuxmatters/autocut/internal/processor"
	"github.com/linuxmatters/autocut/internal/ui"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version      bool     `short:"v" help:"Show version information"`
	Config       string   `short:"c" type:"path" placeholder:"FILE" help:"Path to YAML config file (optional)"`
	Output       string   `short:"o" placeholder:"NAME" help:"Base name of the clip files (default: input name)"`
	OutputDir    string   `short:"d" name:"output-dir" type:"path" placeholder:"DIR" help:"Directory to create the clip directory in"`
	Threshold    *float64 `short:"t" placeholder:"DB" help:"Noise threshold in dBFS; calibrated from the scan window when omitted"`
	ScanStart    *float64 `name:"scan-start" placeholder:"SECONDS" help:"Start of the calibration window in seconds"`
	ScanDuration *float64 `name:"scan-duration" placeholder:"SECONDS" help:"Length of the calibration window in seconds, 0 for the whole file"`
	Jobs         int      `short:"j" placeholder:"N" help:"Number of clips cut concurrently"`
	DryRun       bool     `short:"n" name:"dry-run" help:"Find segments without writing clips"`
	Verbose      bool     `short:"V" help:"Debug logging; print the manifest after a dry run"`
	Trace        bool     `hidden:"" help:"Log the mean level of every bin"`
	Logs         bool     `help:"Save a detailed analysis report"`
	Plain        bool     `help:"Log to the terminal instead of showing the progress view"`
	Input        string   `arg:"" name:"input" help:"Media file to split" type:"existingfile" optional:""`
}

// examples are shown at the end of --help
var examples = []cli.Example{
	{Args: "talk.mp4", Help: "Calibrate the threshold from the first 30s, then cut"},
	{Args: "--threshold=-40 talk.mp4", Help: "Cut at a fixed -40 dBFS threshold"},
	{Args: "--scan-start=120 --scan-duration=10 talk.mp4", Help: "Calibrate from a quiet stretch at 2:00"},
	{Args: "-n -V -t -40 talk.mp4", Help: "Print the segments without cutting"},
}

// thresholdFlags take a negative dBFS value as their next argument
var thresholdFlags = map[string]bool{"-t": true, "--threshold": true}

// normalizeArgs joins a threshold flag with a following numeric value so a
// negative level like "-t -40" is not read as a short flag
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if thresholdFlags[arg] && i+1 < len(args) && strings.HasPrefix(args[i+1], "-") {
			if _, err := strconv.ParseFloat(args[i+1], 64); err == nil {
				out = append(out, "--threshold="+args[i+1])
				i++
				continue
			}
		}
		out = append(out, arg)
	}
	return out
}

// apply layers the flags that were given over cfg
func (c *CLI) apply(cfg *processor.Config) error {
	if c.Threshold != nil {
		cfg.Threshold = *c.Threshold
		cfg.HasThreshold = true
	}
	if c.ScanStart != nil {
		if *c.ScanStart < 0 {
			return fmt.Errorf("--scan-start must not be negative, got %v", *c.ScanStart)
		}
		cfg.Scan.Start = *c.ScanStart
	}
	if c.ScanDuration != nil {
		if *c.ScanDuration < 0 {
			return fmt.Errorf("--scan-duration must not be negative, got %v", *c.ScanDuration)
		}
		cfg.Scan.Duration = *c.ScanDuration
	}
	if c.Jobs < 0 {
		return fmt.Errorf("--jobs must be positive, got %d", c.Jobs)
	}
	if c.Jobs > 0 {
		cfg.Workers = c.Jobs
	}
	if c.Output != "" {
		cfg.OutputBase = c.Output
	}
	if c.OutputDir != "" {
		cfg.OutputDir = c.OutputDir
	}
	cfg.DryRun = cfg.DryRun || c.DryRun
	cfg.Verbose = cfg.Verbose || c.Verbose
	cfg.Trace = c.Trace
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	cliArgs := &CLI{}
	parser := kong.Must(cliArgs,
		kong.Name("autocut"),
		kong.Description("Split a recording into clips at its silences"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(examples...)),
	)
	kctx, err := parser.Parse(normalizeArgs(os.Args[1:]))
	parser.FatalIfErrorf(err)

	if cliArgs.Version {
		cli.PrintVersion(version)
		return 0
	}

	if cliArgs.Input == "" {
		cli.PrintError(errors.New("no input file specified"))
		kctx.PrintUsage(false)
		return 1
	}

	tools, err := audio.CheckTools("ffmpeg", "ffprobe")
	if err != nil {
		cli.PrintError(err)
		return 1
	}
	if err := processor.ValidateInput(cliArgs.Input); err != nil {
		cli.PrintError(err)
		return 1
	}

	fileCfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err)
		return 1
	}
	cfg := fileCfg.ProcessorConfig()
	if err := cliArgs.apply(cfg); err != nil {
		cli.PrintError(err)
		return 1
	}

	level := fileCfg.Level()
	if cfg.Verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := processor.Dependencies{
		Open:   processor.FFprobeSource(tools["ffprobe"]),
		Cutter: audio.NewFFmpegCutter(tools["ffmpeg"]),
	}

	if !cliArgs.Plain && isatty.IsTerminal(os.Stdout.Fd()) {
		return runInteractive(ctx, cliArgs, cfg, deps, level)
	}
	return runPlain(ctx, cliArgs, cfg, deps, level)
}

// runPlain logs to stderr and prints the dry-run manifest to stdout
func runPlain(ctx context.Context, cliArgs *CLI, cfg *processor.Config, deps processor.Dependencies, level logrus.Level) int {
	log := logging.NewLogger(os.Stderr, level)
	deps.Log = log
	deps.Out = os.Stdout

	start := time.Now()
	result, err := processor.Process(ctx, cliArgs.Input, cfg, deps)
	writeReport(cliArgs, cfg, result, start, log)
	if err != nil {
		reportFailure(err)
		return 1
	}

	if x := result.Extraction; x != nil && !cfg.DryRun {
		cli.PrintSummary(
			[2]string{"Clips", fmt.Sprintf("%d of %d", x.Succeeded, len(x.Results))},
			[2]string{"Directory", x.Dir},
		)
	}
	return 0
}

// runInteractive shows the progress view while processing runs in the background.
// Logs go to the debug log file so they do not tear the view.
func runInteractive(ctx context.Context, cliArgs *CLI, cfg *processor.Config, deps processor.Dependencies, level logrus.Level) int {
	log, closeLog, err := logging.NewFileLogger(logging.DebugLogName, level)
	if err != nil {
		cli.PrintWarning(err.Error())
		log = logging.NewLogger(&bytes.Buffer{}, level)
		closeLog = func() error { return nil }
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(cliArgs.Input, cfg.DryRun, log)
	send := func(msg tea.Msg) {
		select {
		case model.ProgressChan <- msg:
		case <-ctx.Done():
		}
	}

	// The manifest printout would tear the view; show it once the view is gone
	var manifest bytes.Buffer
	deps.Log = log
	deps.Out = &manifest
	deps.Progress = func(pass int, passName string, position, level float64) {
		send(ui.ProgressMsg{Pass: pass, PassName: passName, Position: position, Level: level})
	}
	deps.Threshold = func(threshold float64, calibrated bool) {
		send(ui.ThresholdMsg{Threshold: threshold, Calibrated: calibrated})
	}
	deps.Clip = func(ev processor.ClipEvent) {
		send(ui.ClipMsg{Event: ev})
	}

	type outcome struct {
		result *processor.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		start := time.Now()
		log.Debugf("[MAIN] processing %s", cliArgs.Input)
		result, err := processor.Process(ctx, cliArgs.Input, cfg, deps)
		reportPath := writeReport(cliArgs, cfg, result, start, log)
		log.Debug("[MAIN] sending AllCompleteMsg")
		send(ui.AllCompleteMsg{Result: result, ReportPath: reportPath, Err: err})
		done <- outcome{result, err}
	}()

	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		cli.PrintError(fmt.Errorf("UI error: %w", err))
		return 1
	}

	// Quitting the view early stops ffprobe and ffmpeg
	cancel()
	res := <-done

	if m, ok := final.(ui.Model); ok && m.Done {
		fmt.Print(m.View())
	}
	if manifest.Len() > 0 {
		fmt.Print(manifest.String())
	}

	if res.err != nil {
		reportFailure(res.err)
		return 1
	}
	return 0
}

// reportFailure prints a run error; an interrupt is only a warning
func reportFailure(err error) {
	if errors.Is(err, context.Canceled) {
		cli.PrintWarning("interrupted")
		return
	}
	cli.PrintError(err)
}

// writeReport writes the --logs report and returns its path, or "" when no
// report was requested or it could not be written
func writeReport(cliArgs *CLI, cfg *processor.Config, result *processor.Result, start time.Time, log logrus.FieldLogger) string {
	if !cliArgs.Logs {
		return ""
	}
	path, err := logging.GenerateReport(logging.ReportData{
		InputPath: cliArgs.Input,
		StartTime: start,
		EndTime:   time.Now(),
		Config:    cfg,
		Result:    result,
	})
	if err != nil {
		log.WithError(err).Warn("failed to write analysis report")
		return ""
	}
	log.Infof("analysis report written to %s", path)
	return path
}
