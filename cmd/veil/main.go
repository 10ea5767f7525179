package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/hypebeast/go-osc/osc"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/veil/internal/automation"
	"github.com/san-kum/veil/internal/bridge"
	"github.com/san-kum/veil/internal/config"
	"github.com/san-kum/veil/internal/coord"
	"github.com/san-kum/veil/internal/export"
	"github.com/san-kum/veil/internal/gui"
	"github.com/san-kum/veil/internal/input"
	"github.com/san-kum/veil/internal/logging"
	"github.com/san-kum/veil/internal/particles"
	"github.com/san-kum/veil/internal/relay"
	"github.com/san-kum/veil/internal/session"
	"github.com/san-kum/veil/internal/storage"
	"github.com/san-kum/veil/internal/vec"
	"github.com/san-kum/veil/internal/viz"
)

var (
	configFile string
	preset     string
	dataDir    string
	logLevel   string
	seed       int64

	// window and terminal
	offline bool
	echo    bool
	theme   string

	// relay
	relayAddr string

	// send
	sendHost    string
	sendPort    int
	sendAddress string

	// run and snapshot
	runName   string
	frameMode string
	outPath   string
	width     int
	height    int

	// calibrate
	calibrateFor time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "veil",
		Short:         "particle trail visualizer driven by pointer and OSC input",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGUI,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error, off)")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")

	rootCmd.Flags().BoolVar(&offline, "offline", false, "do not dial the relay")
	rootCmd.Flags().BoolVar(&echo, "echo", false, "forward local pointer moves to the relay")

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "open the shader window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	guiCmd.Flags().BoolVar(&offline, "offline", false, "do not dial the relay")
	guiCmd.Flags().BoolVar(&echo, "echo", false, "forward local pointer moves to the relay")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the visualizer in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().BoolVar(&offline, "offline", false, "do not dial the relay")
	liveCmd.Flags().BoolVar(&echo, "echo", false, "forward local pointer moves to the relay")
	liveCmd.Flags().StringVar(&theme, "theme", "night", "panel theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	relayCmd := &cobra.Command{
		Use:   "relay",
		Short: "serve the websocket to OSC relay",
		Args:  cobra.NoArgs,
		RunE:  runRelay,
	}
	relayCmd.Flags().StringVar(&relayAddr, "addr", "", "listen address (default from config)")

	sendCmd := &cobra.Command{
		Use:   "send [x] [y]",
		Short: "send one pointer message over OSC",
		Args:  cobra.ExactArgs(2),
		RunE:  sendPointer,
	}
	sendCmd.Flags().StringVar(&sendHost, "host", "127.0.0.1", "OSC target host")
	sendCmd.Flags().IntVar(&sendPort, "port", 0, "OSC target port (default: bridge inbound port)")
	sendCmd.Flags().StringVar(&sendAddress, "address", "", "OSC address (default from config)")

	runCmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "drive the simulation from a scripted scenario and store the run",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&runName, "name", "", "run name (default: scenario name)")
	runCmd.Flags().StringVar(&outPath, "snapshot", "", "also write the final frame to this .png or .svg")
	runCmd.Flags().StringVar(&frameMode, "mode", "shaded", "snapshot mode (shaded, points)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot particle and trail counts of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [scenario.yaml]",
		Short: "render the last frame of a scenario to png or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshot,
	}
	snapshotCmd.Flags().StringVarP(&outPath, "out", "o", "frame.png", "output file (.png or .svg)")
	snapshotCmd.Flags().StringVar(&frameMode, "mode", "shaded", "render mode (shaded, points)")
	snapshotCmd.Flags().IntVar(&width, "width", 0, "image width (default: surface width)")
	snapshotCmd.Flags().IntVar(&height, "height", 0, "image height (default: surface height)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "watch relayed coordinates and print input bounds",
		Args:  cobra.NoArgs,
		RunE:  calibrate,
	}
	calibrateCmd.Flags().DurationVar(&calibrateFor, "for", 10*time.Second, "how long to sample")

	rootCmd.AddCommand(guiCmd, liveCmd, relayCmd, sendCmd, runCmd, listCmd, plotCmd,
		exportJSONCmd, snapshotCmd, presetsCmd, calibrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file or preset, then applies the flags
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Lookup("offline") != nil && offline {
		cfg.Bridge.Enabled = false
	}
	if flags.Lookup("echo") != nil && flags.Changed("echo") {
		cfg.Bridge.Echo = echo
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logging.SetLogger(logger)
	return cfg, nil
}

// openSession builds a session and dials the relay when enabled. A failed
// dial leaves the session running on local input only.
func openSession(ctx context.Context, cfg *config.Config) (*session.Session, error) {
	sess, err := session.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := sess.Connect(ctx); err != nil {
		logging.Logger().Warn("relay unavailable, running offline", "url", cfg.Bridge.URL, "err", err)
	}
	return sess, nil
}

func dialTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 3*time.Second)
}

func runGUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := dialTimeout(cmd.Context())
	defer cancel()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	gui.Run(sess)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := dialTimeout(cmd.Context())
	defer cancel()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	return viz.Run(sess, viz.GetTheme(theme))
}

func runRelay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rc := cfg.RelaySettings()
	if relayAddr != "" {
		rc.Addr = relayAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	srv := relay.New(rc)
	fmt.Printf("relay listening on ws://%s/\n", rc.Addr)
	err = srv.ListenAndServe(ctx)
	st := srv.Stats()
	fmt.Printf("relay stopped: inbound %d  outbound %d  dropped %d\n", st.Inbound, st.Outbound, st.Dropped)
	return err
}

func sendPointer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	x, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return fmt.Errorf("x: %w", err)
	}
	y, err := strconv.ParseFloat(args[1], 32)
	if err != nil {
		return fmt.Errorf("y: %w", err)
	}

	port := sendPort
	if port == 0 {
		port = cfg.Bridge.Inbound.Port
	}
	address := sendAddress
	if address == "" {
		address = cfg.Bridge.Address
	}

	client := osc.NewClient(sendHost, port)
	msg := osc.NewMessage(address, float32(x), float32(y))
	if err := client.Send(msg); err != nil {
		return err
	}
	fmt.Printf("sent %s %g %g to %s:%d\n", address, x, y, sendHost, port)
	return nil
}

// runHeadless drives sess through the scenario at path without a relay.
func runHeadless(ctx context.Context, cfg *config.Config, path string) (*session.Session, *automation.Scenario, []storage.Tick, *automation.Result, error) {
	sc, err := automation.LoadScenario(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if cfg.Seed == 0 && sc.Seed != 0 {
		cfg.Seed = sc.Seed
	}
	cfg.Bridge.Enabled = false

	sess, err := session.New(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	var ticks []storage.Tick
	res, err := automation.Run(ctx, sc, sess, func(int, []particles.Payload) {
		ticks = append(ticks, sess.Record())
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return sess, sc, ticks, res, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running scenario %s...\n", args[0])
	start := time.Now()
	sess, sc, ticks, res, err := runHeadless(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	name := runName
	if name == "" {
		name = sc.Name
	}
	runID, err := st.Save(storage.RunMetadata{
		Name:     name,
		Seed:     cfg.Seed,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Palettes: cfg.Palettes,
		Ticks:    res.Ticks,
		Metrics:  res.Metrics,
	}, ticks)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", res.Ticks)
	fmt.Println("\nmetrics:")
	for _, m := range sess.Metrics() {
		fmt.Printf("  %s: %.6f\n", m.Name(), m.Value())
	}

	if outPath != "" {
		return writeFrame(outPath, sess.Snapshot(), cfg.Width, cfg.Height)
	}
	return nil
}

func writeFrame(path string, payloads []particles.Payload, w, h int) error {
	mode, ok := export.ParseMode(frameMode)
	if !ok {
		return fmt.Errorf("unknown mode: %s (available: shaded, points)", frameMode)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.WriteSVG(f, payloads, w, h); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	case ".png":
		if err := export.SavePNG(path, payloads, w, h, mode); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output %q (use .png or .svg)", path)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func snapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sess, _, _, _, err := runHeadless(cmd.Context(), cfg, args[0])
	if err != nil {
		return err
	}
	w, h := width, height
	if w <= 0 {
		w = cfg.Width
	}
	if h <= 0 {
		h = cfg.Height
	}
	return writeFrame(outPath, sess.Snapshot(), w, h)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTICKS\tSEED\tPALETTES\tPEAK")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.0f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Seed,
			strings.Join(run.Palettes, ","),
			run.Metrics["peak_particles"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	ticks, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}

	if len(ticks) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("ticks: %d\n\n", len(ticks))

	for sys, name := range meta.Palettes {
		counts := make([]float64, len(ticks))
		trail := make([]float64, len(ticks))
		for i, t := range ticks {
			if sys < len(t.Particles) {
				counts[i] = float64(t.Particles[sys])
			}
			if sys < len(t.Trail) {
				trail[i] = float64(t.Trail[sys])
			}
		}

		graph := asciigraph.PlotMany([][]float64{counts, trail},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Goldenrod, asciigraph.Cyan),
			asciigraph.Caption(fmt.Sprintf("%s: particles (gold) and trail (cyan)", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tPALETTES\tBRIDGE")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		link := "off"
		if p.Bridge.Enabled {
			link = fmt.Sprintf("%s -> %s", p.Bridge.Inbound, p.Bridge.Outbound)
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%s\t%s\n", name, p.Width, p.Height, strings.Join(p.Palettes, ","), link)
	}
	return w.Flush()
}

// calibrate dials the relay without input bounds and records the raw
// coordinates it relays, then prints them as an input_bounds block.
func calibrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	bc := cfg.BridgeSettings()
	bc.InputBounds = nil

	ctx, cancel := dialTimeout(cmd.Context())
	defer cancel()
	pointer := input.NewPointer(vec.Vec2{})
	link, err := bridge.Dial(ctx, bc, pointer)
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("sampling %s for %v, move the tracked input across its full range\n", bc.Address, calibrateFor)
	cal := coord.NewCalibrator()
	deadline := time.After(calibrateFor)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	var seen uint64
loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-link.Done():
			break loop
		case <-ticker.C:
			st := pointer.Load()
			if st.Seq != seen {
				seen = st.Seq
				cal.Observe(st.Pos)
			}
		}
	}

	b, ok := cal.Bounds()
	if !ok {
		return fmt.Errorf("no usable coordinates after %d samples", cal.Samples())
	}
	fmt.Printf("%d samples\n\n", cal.Samples())
	out, err := yaml.Marshal(map[string]any{"bridge": map[string]any{"input_bounds": b}})
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
