package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardiacxr/pkg/atlas"
	"cardiacxr/pkg/config"
	"cardiacxr/pkg/dataset"
	"cardiacxr/pkg/input"
	"cardiacxr/pkg/logger"
	"cardiacxr/pkg/render"
	"cardiacxr/pkg/replay"
	"cardiacxr/pkg/scene"
	"cardiacxr/pkg/session"
	"cardiacxr/pkg/stl"
	"cardiacxr/pkg/visualization"
)

const usage = `usage: cardiacxr <command> [flags]

commands:
  view     open the interactive viewer
  replay   play a recorded controller script against a dataset
  slices   decode a dataset and export slices, projections or an STL
  config   write the default configuration file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "view":
		err = runView(args)
	case "replay":
		err = runReplay(args)
	case "slices":
		err = runSlices(args)
	case "config":
		err = runConfig(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "cardiacxr %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by every
// command.
func setup(configPath, component string) (*config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLoggerWithComponent(cfg.Logging, component)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	configPath := fs.String("config", "cardiacxr.yaml", "Path to the YAML configuration file")
	name := fs.String("dataset", "", "Dataset shown at startup (default from config)")
	fs.Parse(args)

	cfg, log, err := setup(*configPath, "viewer")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	loader, err := dataset.NewLoader(cfg.Source(), cfg.LoaderOptions(), log)
	if err != nil {
		return err
	}
	defer loader.Close()

	if len(cfg.Dataset.Preload) > 0 {
		start := time.Now()
		if err := loader.Preload(ctx, cfg.Dataset.Preload); err != nil {
			log.Warn("preload incomplete", logger.Err(err))
		}
		log.Info("preload finished",
			logger.F("datasets", len(cfg.Dataset.Preload)),
			logger.F("elapsed", time.Since(start)),
		)
	}

	cam := cfg.NewCamera()
	orbit := render.NewOrbit(cam)
	sess := session.New(ctx, loader, scene.NewSlate(cfg.Dataset.Slate), orbit, nil)
	defer sess.Close()

	pointer := input.NewPointer("pointer", render.MouseSource{}, cam)
	sess.AddDevice(pointer, cfg.Interaction.Pointer.Gains, cfg.Interaction.Pointer.Threshold)

	initial := *name
	if initial == "" {
		initial = cfg.Dataset.DefaultFile
	}
	if err := sess.Select(initial); err != nil {
		log.Warn("initial dataset not requested", logger.F("dataset", initial), logger.Err(err))
	}

	return render.Run(render.NewGame(sess, cam, orbit, log), "cardiacxr - "+initial)
}

func runReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "cardiacxr.yaml", "Path to the YAML configuration file")
	scriptPath := fs.String("script", "", "Controller script (YAML)")
	name := fs.String("dataset", "", "Dataset to manipulate (overrides the script)")
	fs.Parse(args)

	if *scriptPath == "" {
		fs.Usage()
		return fmt.Errorf("-script is required")
	}

	cfg, log, err := setup(*configPath, "replay")
	if err != nil {
		return err
	}
	defer log.Sync()

	script, err := replay.LoadScript(*scriptPath)
	if err != nil {
		return err
	}
	target := *name
	if target == "" {
		target = script.Dataset
	}
	if target == "" {
		target = cfg.Dataset.DefaultFile
	}

	ctx := context.Background()
	loader, err := dataset.NewLoader(cfg.Source(), cfg.LoaderOptions(), log)
	if err != nil {
		return err
	}
	defer loader.Close()

	obj, err := loader.Load(ctx, target)
	if err != nil {
		return err
	}

	sess := session.New(ctx, loader, nil, nil, log)
	defer sess.Close()
	sess.Replace(obj)

	ctl := cfg.Interaction.Controller
	player := replay.NewPlayer(script, sess, ctl.Gains, ctl.Threshold, log)
	res := player.Run(sess, time.Now())

	fmt.Printf("Replayed %q on %s: %d frames, %d devices\n", script.Name, target, res.Frames, len(script.Devices()))
	for _, tr := range res.Transitions {
		fmt.Printf("  frame %4d  %-12s %s -> %s\n", tr.Frame, tr.Device, tr.From, tr.To)
	}
	f := res.Final
	fmt.Printf("Final position: (%.4f, %.4f, %.4f)\n", f.Position.X, f.Position.Y, f.Position.Z)
	fmt.Printf("Final rotation: (%.4f, %.4f, %.4f)\n", f.Rotation.X, f.Rotation.Y, f.Rotation.Z)
	fmt.Printf("Final scale:    %.4f\n", f.Scale)
	return nil
}

func runSlices(args []string) error {
	fs := flag.NewFlagSet("slices", flag.ExitOnError)
	configPath := fs.String("config", "cardiacxr.yaml", "Path to the YAML configuration file")
	name := fs.String("dataset", "", "Dataset to export (default from config)")
	outDir := fs.String("out", "slices", "Directory for the exported images")
	axes := fs.String("axes", "xyz", "Axes to slice along")
	keepEmpty := fs.Bool("keep-empty", false, "Also write slices without any occupied voxel")
	stlPath := fs.String("stl", "", "Also write the strided point cloud as a binary STL")
	fs.Parse(args)

	cfg, log, err := setup(*configPath, "slices")
	if err != nil {
		return err
	}
	defer log.Sync()

	target := *name
	if target == "" {
		target = cfg.Dataset.DefaultFile
	}

	raw, err := cfg.Source().Fetch(context.Background(), target)
	if err != nil {
		return err
	}
	ds, err := atlas.Parse(raw)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", target, err)
	}

	sum, err := atlas.Summarize(ds)
	if err != nil {
		return fmt.Errorf("dataset %s: %w", target, err)
	}
	fmt.Printf("Dataset %s (%s)\n", target, dataset.Path(target))
	fmt.Printf("  atlas:   %dx%d tiles of %dx%d, %d slices\n", ds.MX, ds.MY, ds.NX, ds.NY, ds.Depth())
	fmt.Printf("  texels:  %d total, %d valid\n", sum.Texels, sum.Valid)
	fmt.Printf("  weight:  mean %.3f, stddev %.3f\n", sum.WeightMean, sum.WeightStdDev)
	fmt.Printf("  bounds:  (%.3f, %.3f, %.3f) to (%.3f, %.3f, %.3f)\n",
		sum.Min.X, sum.Min.Y, sum.Min.Z, sum.Max.X, sum.Max.Y, sum.Max.Z)

	viewer, err := visualization.NewViewer(ds)
	if err != nil {
		return err
	}
	for _, a := range *axes {
		axis, err := visualization.ParseAxis(string(a))
		if err != nil {
			return err
		}
		axisDir := filepath.Join(*outDir, string(axis))
		n, err := viewer.SaveSliceSequence(axis, axisDir, *keepEmpty)
		if err != nil {
			log.Warn("slice export failed", logger.F("axis", string(axis)), logger.Err(err))
			continue
		}
		mip, err := viewer.Projection(axis)
		if err == nil {
			err = visualization.SaveSlice(mip, filepath.Join(*outDir, fmt.Sprintf("projection_%s.jpg", axis)))
		}
		if err != nil {
			log.Warn("projection export failed", logger.F("axis", string(axis)), logger.Err(err))
		}
		fmt.Printf("  %s-axis: %d slices in %s\n", axis, n, axisDir)
	}

	if *stlPath != "" {
		points, err := atlas.Decode(ds, cfg.Dataset.SampleStride)
		if err != nil {
			return err
		}
		tris := stl.FromPoints(points, cfg.Scene.CubeSize)
		if err := stl.SaveToSTL(*stlPath, tris); err != nil {
			return fmt.Errorf("failed to write STL: %w", err)
		}
		fmt.Printf("  stl:     %d cubes, %d triangles in %s\n", len(points), len(tris), *stlPath)
	}
	return nil
}

func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := fs.String("config", "cardiacxr.yaml", "Where to write the configuration")
	force := fs.Bool("force", false, "Overwrite an existing file")
	fs.Parse(args)

	if _, err := os.Stat(*configPath); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", *configPath)
	}
	if err := config.CreateDefaultConfigFile(*configPath); err != nil {
		return err
	}
	fmt.Printf("Default configuration written to %s\n", *configPath)
	return nil
}
