package main

import(
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abworrall/lensimg/pkg/lensimg"
	"github.com/abworrall/lensimg/pkg/lensmodel"
)

type renderOpts struct {
	output       string
	configFile   string
	seed         uint64
	noise        bool
	convolver    string
	workers      int
	supersample  int
	preview      bool
	tonemapper   string
	dumpGrids    bool
}

func newRenderCmd() *cobra.Command {
	opts := renderOpts{
		output:      "lens",
		convolver:   "auto",
		supersample: 1,
		seed:        42,
		tonemapper:  "linear",
	}

	cmd := &cobra.Command{
		Use:   "render [flags] scene.(yaml|toml) observation.(yaml|toml)",
		Short: "Render a lens scene, as seen by an observation, to .hdr files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output filename prefix")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "config file (.yaml or .toml); flags override it")
	cmd.Flags().Uint64Var(&opts.seed, "seed", opts.seed, "random seed for the Poisson noise")
	cmd.Flags().BoolVar(&opts.noise, "noise", false, "add Poisson noise (overrides the observation file)")
	cmd.Flags().StringVar(&opts.convolver, "convolver", opts.convolver, "PSF convolution: direct, fft, or auto")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "epochs to render in parallel (0: one per CPU)")
	cmd.Flags().IntVar(&opts.supersample, "supersample", opts.supersample, "sub-pixel samples per axis for extended light")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "also write tonemapped PNG previews")
	cmd.Flags().StringVar(&opts.tonemapper, "tonemapper", opts.tonemapper, "how to tonemap the previews: "+lensimg.ListTonemappers())
	cmd.Flags().BoolVar(&opts.dumpGrids, "dumpgrids", false, "write greyscale PNGs of intermediate images")

	return cmd
}

func runRender(cmd *cobra.Command, opts renderOpts, sceneFile, obsFile string) error {
	cfg := lensimg.NewConfig()
	if opts.configFile != "" {
		c, err := lensimg.LoadConfig(opts.configFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	flags := cmd.Flags()
	if flags.Changed("seed") || opts.configFile == ""      { cfg.Seed = opts.seed }
	if flags.Changed("convolver") || opts.configFile == "" { cfg.Convolver = opts.convolver }
	if flags.Changed("workers")                            { cfg.Workers = opts.workers }
	if flags.Changed("supersample") || opts.configFile == "" { cfg.Supersample = opts.supersample }
	if flags.Changed("dumpgrids")                          { cfg.DumpGrids = opts.dumpGrids }
	if flags.Changed("verbose")                            { cfg.Verbosity = 1 }
	cfg.DumpPrefix = opts.output + "-dump"

	if cfg.Verbosity > 0 {
		log.Infof("Final configuration:-\n\n%s", cfg.AsYaml())
	}

	scene, err := lensmodel.LoadScene(sceneFile)
	if err != nil {
		return err
	}
	obs, err := lensimg.LoadObservation(obsFile)
	if err != nil {
		return err
	}
	req, err := obs.Request()
	if err != nil {
		return fmt.Errorf("observation %s: %w", obsFile, err)
	}
	if opts.noise {
		req.AddNoise = true
	}

	renderer := lensmodel.NewRendererFromConfig(cfg)

	runID := uuid.New().String()
	logger := log.With("run", runID)
	logger.Infof("Rendering %s", scene)
	p := lensimg.NewPipeline(cfg, renderer)
	li, err := p.LensImage(scene, req)
	if err != nil {
		return fmt.Errorf("render %s: %w", sceneFile, err)
	}
	logger.Debugf("Rendered %s", li)

	tonemapper := ""
	if opts.preview {
		tonemapper = opts.tonemapper
	}
	files, err := lensimg.WriteLensImages(li, opts.output, tonemapper)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), runID, scene.Name, li, files)

	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Print the default config, or the config loaded from a file, as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := lensimg.NewConfig()
			if len(args) == 1 {
				c, err := lensimg.LoadConfig(args[0])
				if err != nil {
					return err
				}
				cfg = c
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.AsYaml())
			return nil
		},
	}
}
