package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/lorenz63/internal/analysis"
	"github.com/san-kum/lorenz63/internal/config"
	"github.com/san-kum/lorenz63/internal/dynamo"
	"github.com/san-kum/lorenz63/internal/integrators"
	"github.com/san-kum/lorenz63/internal/model"
	"github.com/san-kum/lorenz63/internal/physics"
	"github.com/san-kum/lorenz63/internal/stats"
	"github.com/san-kum/lorenz63/internal/store"
	"github.com/san-kum/lorenz63/internal/tui"
)

var (
	sigma        float64
	rho          float64
	beta         float64
	dt           float64
	steps        int
	tol          float64
	maxIters     int
	workers      int
	ensembleSize int
	updates      int
	seed         uint64
	stateStd     float64
	obsStd       float64
	obsCoords    string
	configFile   string
	outputFile   string
	jsonStdout   bool
	frameRate    int
	perturbation float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lorenz63",
		Short: "stochastic Lorenz-63 forecast model",
	}

	forecastCmd := &cobra.Command{
		Use:   "forecast",
		Short: "run an ensemble forecast",
		RunE:  runForecast,
	}
	addModelFlags(forecastCmd)
	forecastCmd.Flags().StringVar(&outputFile, "output", "", "export run to JSON file")
	forecastCmd.Flags().BoolVar(&jsonStdout, "json", false, "print run as JSON to stdout")

	observeCmd := &cobra.Command{
		Use:   "observe",
		Short: "run an ensemble forecast with noisy observations",
		RunE:  runObserve,
	}
	addModelFlags(observeCmd)
	observeCmd.Flags().StringVar(&obsCoords, "obs-coords", "", "comma-separated state indices to observe (default: all)")
	observeCmd.Flags().StringVar(&outputFile, "output", "", "export run to JSON file")
	observeCmd.Flags().BoolVar(&jsonStdout, "json", false, "print run as JSON to stdout")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the ensemble forecast evolve in the terminal",
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest Lyapunov exponent",
		RunE:  runLyapunov,
	}
	addModelFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-8, "initial trajectory separation")

	rootCmd.AddCommand(forecastCmd, observeCmd, liveCmd, lyapunovCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&sigma, "sigma", config.DefaultSigma, "lorenz sigma coefficient")
	cmd.Flags().Float64Var(&rho, "rho", config.DefaultRho, "lorenz rho coefficient")
	cmd.Flags().Float64Var(&beta, "beta", config.DefaultBeta, "lorenz beta coefficient")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "integrator timestep")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultStepsPerUpdate, "integrator steps per forecast update")
	cmd.Flags().Float64Var(&tol, "tol", config.DefaultTol, "fixed-point convergence tolerance")
	cmd.Flags().IntVar(&maxIters, "max-iters", config.DefaultMaxIters, "fixed-point iteration budget")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "parallel workers")
	cmd.Flags().IntVar(&ensembleSize, "size", config.DefaultEnsembleSize, "ensemble size")
	cmd.Flags().IntVar(&updates, "updates", config.DefaultUpdates, "number of forecast updates")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0: time-based)")
	cmd.Flags().Float64Var(&stateStd, "state-std", 0, "process noise std (0: deterministic)")
	cmd.Flags().Float64Var(&obsStd, "obs-std", config.DefaultObsStd, "observation noise std")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
}

// mergeConfig loads the config file (if given) and applies it beneath any
// explicitly set flags.
func mergeConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("sigma") {
		cfg.Sigma = sigma
	}
	if cmd.Flags().Changed("rho") {
		cfg.Rho = rho
	}
	if cmd.Flags().Changed("beta") {
		cfg.Beta = beta
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("steps") {
		cfg.StepsPerUpdate = steps
	}
	if cmd.Flags().Changed("tol") {
		cfg.Tol = tol
	}
	if cmd.Flags().Changed("max-iters") {
		cfg.MaxIters = maxIters
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}
	if cmd.Flags().Changed("size") {
		cfg.Ensemble.Size = ensembleSize
	}
	if cmd.Flags().Changed("updates") {
		cfg.Updates = updates
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("state-std") {
		cfg.Noise.StateStd = []float64{stateStd}
	}
	if cmd.Flags().Changed("obs-std") {
		cfg.Noise.ObsStd = []float64{obsStd}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildModel(cfg *config.Config, obsFunc model.ObservationFunc) (*model.Model, *integrators.Midpoint, uint64, error) {
	field := physics.NewLorenzParams(cfg.Sigma, cfg.Rho, cfg.Beta)
	integ, err := integrators.NewMidpoint(field, cfg.Dt, cfg.StepsPerUpdate, cfg.Tol, cfg.MaxIters, cfg.Workers)
	if err != nil {
		return nil, nil, 0, err
	}

	runSeed := cfg.Seed
	if runSeed == 0 {
		runSeed = uint64(time.Now().UnixNano())
	}

	m, err := model.New(integ, model.NewGaussianSource(runSeed), model.Params{
		InitMean:        cfg.Ensemble.InitMean,
		InitStd:         cfg.Ensemble.InitStd,
		StateNoiseStd:   cfg.Noise.StateStd,
		ObsNoiseStd:     cfg.Noise.ObsStd,
		ObservationFunc: obsFunc,
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return m, integ, runSeed, nil
}

// parseObsCoords builds an observation function selecting a subset of state
// coordinates, e.g. "0,2".
func parseObsCoords(spec string, dim int) (model.ObservationFunc, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	coords := make([]int, 0, len(parts))
	for _, p := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || idx < 0 || idx >= dim {
			return nil, fmt.Errorf("invalid observation coordinate %q", p)
		}
		coords = append(coords, idx)
	}
	return func(s dynamo.State) []float64 {
		out := make([]float64, len(coords))
		for i, c := range coords {
			out[i] = s[c]
		}
		return out
	}, nil
}

type runRecord struct {
	times        []float64
	means        [][]float64
	spreads      [][]float64
	observations [][][]float64
}

func runUpdates(m *model.Model, cfg *config.Config, observe bool) (*runRecord, error) {
	ens, err := m.SampleInitial(cfg.Ensemble.Size)
	if err != nil {
		return nil, err
	}

	interval := cfg.Dt * float64(cfg.StepsPerUpdate)
	rec := &runRecord{}

	for u := 1; u <= cfg.Updates; u++ {
		ens, err = m.Advance(ens)
		if err != nil {
			return nil, fmt.Errorf("update %d: %w", u, err)
		}
		s := stats.Summarize(ens)
		rec.times = append(rec.times, float64(u)*interval)
		rec.means = append(rec.means, s.Mean)
		rec.spreads = append(rec.spreads, s.Std)

		if observe {
			obs, err := m.Observe(ens)
			if err != nil {
				return nil, fmt.Errorf("update %d: %w", u, err)
			}
			frame := make([][]float64, len(obs))
			for i, o := range obs {
				frame[i] = o
			}
			rec.observations = append(rec.observations, frame)
		}
	}
	return rec, nil
}

func printSummary(cfg *config.Config, runSeed uint64, rec *runRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "time\tmean x\tmean y\tmean z\tspread x\tspread y\tspread z\n")
	stride := len(rec.times) / 10
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < len(rec.times); i += stride {
		fmt.Fprintf(w, "%.2f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			rec.times[i],
			rec.means[i][0], rec.means[i][1], rec.means[i][2],
			rec.spreads[i][0], rec.spreads[i][1], rec.spreads[i][2])
	}
	w.Flush()

	data := make([]float64, len(rec.means))
	for i, m := range rec.means {
		data[i] = m[0]
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("ensemble mean x (%d members, seed %d)", cfg.Ensemble.Size, runSeed)),
	)
	fmt.Println(graph)
}

func exportRecord(cfg *config.Config, runSeed uint64, rec *runRecord) error {
	data := &store.ForecastData{
		Sigma:          cfg.Sigma,
		Rho:            cfg.Rho,
		Beta:           cfg.Beta,
		Dt:             cfg.Dt,
		StepsPerUpdate: cfg.StepsPerUpdate,
		EnsembleSize:   cfg.Ensemble.Size,
		Seed:           runSeed,
		Times:          rec.times,
		Means:          rec.means,
		Spreads:        rec.spreads,
		Observations:   rec.observations,
	}
	if outputFile != "" {
		if err := store.ExportJSON(outputFile, data); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outputFile)
	}
	if jsonStdout {
		return store.ExportJSONStdout(data)
	}
	return nil
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := mergeConfig(cmd)
	if err != nil {
		return err
	}
	m, _, runSeed, err := buildModel(cfg, nil)
	if err != nil {
		return err
	}

	rec, err := runUpdates(m, cfg, false)
	if err != nil {
		return err
	}

	if !jsonStdout {
		printSummary(cfg, runSeed, rec)
	}
	return exportRecord(cfg, runSeed, rec)
}

func runObserve(cmd *cobra.Command, args []string) error {
	cfg, err := mergeConfig(cmd)
	if err != nil {
		return err
	}
	obsFunc, err := parseObsCoords(obsCoords, 3)
	if err != nil {
		return err
	}
	m, _, runSeed, err := buildModel(cfg, obsFunc)
	if err != nil {
		return err
	}

	rec, err := runUpdates(m, cfg, true)
	if err != nil {
		return err
	}

	if !jsonStdout {
		printSummary(cfg, runSeed, rec)
		fmt.Printf("observation dimension: %d\n", m.ObsDim())
	}
	return exportRecord(cfg, runSeed, rec)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := mergeConfig(cmd)
	if err != nil {
		return err
	}
	m, _, _, err := buildModel(cfg, nil)
	if err != nil {
		return err
	}
	ens, err := m.SampleInitial(cfg.Ensemble.Size)
	if err != nil {
		return err
	}

	interval := cfg.Dt * float64(cfg.StepsPerUpdate)
	p := tea.NewProgram(tui.NewLive(m, ens, interval, frameRate))
	_, err = p.Run()
	return err
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := mergeConfig(cmd)
	if err != nil {
		return err
	}
	field := physics.NewLorenzParams(cfg.Sigma, cfg.Rho, cfg.Beta)
	integ, err := integrators.NewMidpoint(field, cfg.Dt, cfg.StepsPerUpdate, cfg.Tol, cfg.MaxIters, cfg.Workers)
	if err != nil {
		return err
	}

	interval := cfg.Dt * float64(cfg.StepsPerUpdate)
	lambda, err := analysis.LyapunovExponent(integ, dynamo.State{1.0, 1.0, 1.0}, cfg.Updates, interval, perturbation)
	if err != nil {
		return err
	}
	fmt.Printf("largest lyapunov exponent: %.4f (over %d updates of %.3f time units)\n",
		lambda, cfg.Updates, interval)
	return nil
}
