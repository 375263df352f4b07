package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gocarina/gocsv"
	"github.com/san-kum/fluidsim/internal/config"
	"github.com/san-kum/fluidsim/internal/experiment"
	"github.com/san-kum/fluidsim/internal/export"
	"github.com/san-kum/fluidsim/internal/maze"
	"github.com/san-kum/fluidsim/internal/optim"
	"github.com/san-kum/fluidsim/internal/sim"
	"github.com/san-kum/fluidsim/internal/spatial"
	"github.com/san-kum/fluidsim/internal/storage"
	"github.com/san-kum/fluidsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	dataDir  string
	logLevel string

	// scenario selection and overrides
	preset     string
	configFile string
	ticks      int
	seed       int64
	workers    int
	index      string
	sets       []string

	// run output
	render      int
	save        bool
	svgFile     string
	writeConfig string

	theme string

	// plot
	field    string
	width    int
	height   int
	spectrum bool

	// maze
	mazeCols     int
	mazeRows     int
	mazeSeed     int64
	mazeBraiding float64
	mazeLayout   bool

	// sweep
	sweepParams []string
	metric      string
	parallel    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fluidsim",
		Short:         "2D smoothed particle hydrodynamics in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(os.Stderr, logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fluidsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario headless and save it",
		Args:  cobra.NoArgs,
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&render, "render", 0, "print a frame every N ticks (0 = off)")
	runCmd.Flags().BoolVar(&save, "save", true, "save the run under --data")
	runCmd.Flags().StringVar(&svgFile, "svg", "", "write the final snapshot as SVG")
	runCmd.Flags().StringVar(&writeConfig, "write-config", "", "write the resolved scenario as yaml and exit")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario with the live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare neighbor indices and worker counts",
		Args:  cobra.NoArgs,
		RunE:  benchScenario,
	}
	addScenarioFlags(benchCmd)

	mazeCmd := &cobra.Command{
		Use:   "maze",
		Short: "print a generated maze and its wall rectangles",
		Args:  cobra.NoArgs,
		RunE:  printMaze,
	}
	mazeCmd.Flags().IntVar(&mazeCols, "cols", 19, "columns (rounded down to odd)")
	mazeCmd.Flags().IntVar(&mazeRows, "rows", 15, "rows (rounded down to odd)")
	mazeCmd.Flags().Int64Var(&mazeSeed, "seed", 0, "random seed (0 = time based)")
	mazeCmd.Flags().Float64Var(&mazeBraiding, "braiding", 0, "dead end removal probability")
	mazeCmd.Flags().BoolVar(&mazeLayout, "classic", false, "print the fixed 20x20 layout instead")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list parameters accepted by --set and sweep",
		Args:  cobra.NoArgs,
		RunE:  listParams,
	}
	addScenarioFlags(paramsCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run telemetry",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&field, "field", "", "telemetry column ("+strings.Join(viz.Fields(), ", ")+"); empty plots the main ones")
	plotCmd.Flags().IntVar(&width, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&height, "height", 10, "chart height")
	plotCmd.Flags().BoolVar(&spectrum, "spectrum", false, "plot the power spectrum of --field (default kinetic_energy)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run telemetry to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search scenario parameters",
		Args:  cobra.NoArgs,
		RunE:  sweepScenario,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "compression", "metric to minimize")
	sweepCmd.Flags().IntVar(&parallel, "parallel", 1, "trials run at once")

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, mazeCmd, presetsCmd, paramsCmd, listCmd, plotCmd, exportCSVCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "fountain", "preset ("+strings.Join(config.ListPresets(), ", ")+")")
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml); overrides --preset")
	cmd.Flags().IntVar(&ticks, "ticks", config.DefaultTicks, "ticks to run (0 = until interrupted)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&index, "index", spatial.KindGrid, "neighbor index ("+strings.Join(spatial.Kinds(), ", ")+")")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a parameter, name=value (repeatable)")
}

func setupLogging(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadScenario resolves the preset or config file, then applies flags the
// user actually set.
func loadScenario(cmd *cobra.Command) (*config.Scenario, error) {
	var sc *config.Scenario
	var err error
	if configFile != "" {
		sc, err = config.Load(configFile)
	} else {
		sc, err = config.GetPreset(preset)
		if errors.Is(err, config.ErrUnknownPreset) {
			err = fmt.Errorf("%w (available: %s)", err, strings.Join(config.ListPresets(), ", "))
		}
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("ticks") {
		sc.Ticks = ticks
	}
	if flags.Changed("seed") {
		sc.Fluid.Seed = seed
	}
	if flags.Changed("workers") {
		sc.Fluid.Workers = workers
	}
	if flags.Changed("index") {
		sc.Fluid.NeighborIndex = index
	}

	reg := experiment.NewRegistry()
	values, err := reg.ParseAssignments(sets)
	if err != nil {
		return nil, err
	}
	if err := reg.Apply(sc, values); err != nil {
		return nil, err
	}
	return sc, sc.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if writeConfig != "" {
		return config.Save(writeConfig, sc)
	}

	var renderer sim.Renderer
	if render > 0 {
		fmt.Print("\x1b[2J")
		renderer = viz.NewPrinter(os.Stdout, 80, 30, render)
	}
	exp, err := experiment.New(sc, renderer)
	if err != nil {
		return err
	}
	exp.Setup(slog.Default())

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("running %s...\n", sc.Name)
	start := time.Now()
	res, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	if save {
		st := storage.New(dataDir)
		runID, err := st.Save(sc, res, runErr)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	if svgFile != "" {
		if err := writeSVG(svgFile, res); err != nil {
			return err
		}
	}

	fmt.Printf("completed %d ticks in %v\n", res.Ticks, elapsed.Round(time.Millisecond))
	fmt.Println(viz.Summary(sc.Name, res))
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func writeSVG(path string, res *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.SnapshotSVG(f, res.Final, viz.CurrentTheme, 1); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(sc, nil)
	if err != nil {
		return err
	}
	// log lines would tear the alt screen
	exp.Setup(slog.New(slog.NewTextHandler(io.Discard, nil)))
	viz.SetTheme(theme)

	ctx, stop := signalContext()
	defer stop()

	p := tea.NewProgram(viz.NewModel(ctx, exp.Loop(), sc.Name), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil && !errors.Is(m.Err(), context.Canceled) {
		return m.Err()
	}
	return nil
}

func benchScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("ticks") {
		sc.Ticks = 200
	}
	if sc.Ticks <= 0 {
		return fmt.Errorf("bench needs a positive --ticks")
	}
	sc.LogEvery = 0

	workerCounts := []int{1, 0}
	if cmd.Flags().Changed("workers") {
		workerCounts = []int{workers}
	}

	fmt.Printf("benchmarking %s for %d ticks\n\n", sc.Name, sc.Ticks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tWORKERS\tPARTICLES\tTIME\tTICKS/SEC\tMEAN STEP")

	ctx, stop := signalContext()
	defer stop()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, kind := range spatial.Kinds() {
		for _, n := range workerCounts {
			trial := *sc
			trial.Fluid.NeighborIndex = kind
			trial.Fluid.Workers = n

			exp, err := experiment.New(&trial, nil)
			if err != nil {
				return err
			}
			exp.Setup(quiet)

			start := time.Now()
			res, err := exp.Run(ctx)
			if err != nil {
				return fmt.Errorf("%s/%d workers: %w", kind, n, err)
			}
			elapsed := time.Since(start)

			var micros int64
			for _, s := range res.Stats {
				micros += s.StepMicros
			}
			label := strconv.Itoa(n)
			if n == 0 {
				label = "max"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%.0f\t%dµs\n",
				kind, label, res.Final.Len(), elapsed.Round(time.Millisecond),
				float64(res.Ticks)/elapsed.Seconds(), micros/int64(max(res.Ticks, 1)))
		}
	}
	return w.Flush()
}

func printMaze(cmd *cobra.Command, args []string) error {
	var grid maze.Grid
	if mazeLayout {
		var err error
		if grid, err = maze.Parse(maze.Classic); err != nil {
			return err
		}
	} else {
		grid = maze.Generate(maze.Config{Cols: mazeCols, Rows: mazeRows, Seed: mazeSeed, Braiding: mazeBraiding})
	}
	fmt.Print(grid.String())
	rects := grid.Rects(r2.Vec{}, 1)
	fmt.Printf("\n%dx%d cells, %d walls, %d wall rectangles\n", grid.Cols(), grid.Rows(), grid.Walls(), len(rects))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTICKS\tCAPACITY\tINDEX\tGRAVITY\tMAZE")
	for _, name := range config.ListPresets() {
		sc, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		kind := "-"
		switch {
		case sc.Maze.Enabled && len(sc.Maze.Layout) > 0:
			kind = "layout"
		case sc.Maze.Enabled:
			kind = fmt.Sprintf("%dx%d", sc.Maze.Cols, sc.Maze.Rows)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			name, sc.Ticks, sc.Fluid.MaxParticles, sc.Fluid.NeighborIndex, sc.Fluid.ForceMode, kind)
	}
	return w.Flush()
}

func listParams(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "PARAM\t%s\n", strings.ToUpper(sc.Name))
	for _, name := range reg.Names() {
		p, _ := reg.Param(name)
		fmt.Fprintf(w, "%s\t%g\n", name, p.Get(sc))
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTICKS\tPARTICLES\tINDEX\tSTATUS")
	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d/%d\t%s\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Particles,
			run.Capacity,
			run.Index,
			status,
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
	stats, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("ticks: %d\n", len(stats))
	if meta.Error != "" {
		fmt.Printf("error: %s\n", meta.Error)
	}
	fmt.Println()

	if spectrum {
		f := field
		if f == "" {
			f = "kinetic_energy"
		}
		graph, freq, err := viz.PlotSpectrum(stats, f, meta.Dt, width, height)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
		fmt.Printf("dominant frequency: %.3f per time unit\n", freq)
		if freq > 0 {
			fmt.Printf("period: %.3f time units (%.0f ticks)\n", 1/freq, 1/(freq*meta.Dt))
		}
		return nil
	}

	fields := []string{"kinetic_energy", "max_speed", "mean_density", "active"}
	if field != "" {
		fields = []string{field}
	}
	for _, f := range fields {
		graph, err := viz.Plot(stats, f, width, height)
		if err != nil {
			return err
		}
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	stats, err := st.LoadTelemetry(args[0])
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("no data to export")
	}
	return gocsv.Marshal(&stats, os.Stdout)
}

// parseSweep reads --param values of the form name=v1,v2,v3.
func parseSweep(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, nil, fmt.Errorf("expected name=v1,v2,..., got %q", spec)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", name, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	sc, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	if sc.Ticks <= 0 {
		return fmt.Errorf("sweep needs a positive --ticks")
	}
	sc.LogEvery = 0

	names, ranges, err := parseSweep(sweepParams)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("sweep needs at least one --param")
	}
	g, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	g.SetParallel(parallel)

	ctx, stop := signalContext()
	defer stop()

	trials, best, searchErr := g.Search(ctx, sc, metric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\t%s\tERROR\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
	for _, t := range trials {
		cells := make([]string, len(names))
		for i, n := range names {
			cells[i] = strconv.FormatFloat(t.Params[n], 'g', -1, 64)
		}
		msg := ""
		if t.Err != nil {
			msg = t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%.6g\t%s\n", strings.Join(cells, "\t"), t.Ticks, t.Value, msg)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if searchErr != nil {
		return searchErr
	}

	fmt.Printf("\nbest %s = %.6g at", metric, best.Value)
	for _, n := range names {
		fmt.Printf(" %s=%g", n, best.Params[n])
	}
	fmt.Println()
	return nil
}
