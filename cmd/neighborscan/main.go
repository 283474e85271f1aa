// Command neighborscan loads frames of 3D points, checks the page-aligned neighbor scan against the
// reference scan, and reports how long each takes per frame.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/exp/slog"

	"github.com/vkngwrapper/pagealloc/aligned"
	"github.com/vkngwrapper/pagealloc/neighbors"
)

type config struct {
	pointsDir string
	random    int
	frames    int
	radius    float64
	maxPoints int
	logLevel  string
	stats     bool
	seed      int64
}

func main() {
	var cfg config

	app := kingpin.New("neighborscan", "Find radius neighbors of 3D point frames using page-aligned buffers.")
	app.Flag("points", "Directory of *.csv frames, one x,y,z point per line.").StringVar(&cfg.pointsDir)
	app.Flag("random", "Number of normally distributed points to generate when --points is not given.").Default("2000").IntVar(&cfg.random)
	app.Flag("frames", "Number of frames to generate when --points is not given.").Default("20").IntVar(&cfg.frames)
	app.Flag("radius", "Neighbor radius.").Default("100").Float64Var(&cfg.radius)
	app.Flag("max-points", "Largest frame the neighbor matrix is sized for.").Default("2000").IntVar(&cfg.maxPoints)
	app.Flag("log-level", "Log level.").Default("info").EnumVar(&cfg.logLevel, "debug", "info", "warn", "error")
	app.Flag("stats", "Print allocator statistics as JSON when finished.").BoolVar(&cfg.stats)
	app.Flag("seed", "Random seed for generated frames.").Default("1").Int64Var(&cfg.seed)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := newLogger(cfg.logLevel)

	if err := run(context.Background(), logger, cfg); err != nil {
		logger.Error("neighborscan failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	return slog.New(slog.HandlerOptions{Level: l}.NewTextHandler(os.Stderr))
}

func run(ctx context.Context, logger *slog.Logger, cfg config) error {
	frames, err := loadFrames(logger, cfg)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return errors.New("no frames to scan")
	}

	allocator, err := aligned.New(logger, aligned.CreateOptions{Flags: aligned.CreateTrackAllocations})
	if err != nil {
		return err
	}

	matrix, err := neighbors.NewMatrix(allocator, cfg.maxPoints)
	if err != nil {
		return err
	}
	defer func() {
		if err := matrix.Close(); err != nil {
			logger.Error("failed to release neighbor matrix", slog.Any("error", err))
		}
	}()

	logger.Info("neighbor matrix ready",
		slog.String("Address", matrix.Address().String()),
		slog.String("Size", humanize.IBytes(uint64(matrix.Size()))),
		slog.Int("Capacity", matrix.Capacity()),
	)

	fmt.Print("Testing the points...")
	if err := verify(ctx, frames[0], cfg.radius, matrix); err != nil {
		fmt.Println()
		return err
	}
	fmt.Println("...succeeded.")

	fmt.Print("Testing performance...")
	var alignedTime, referenceTime time.Duration
	for i, frame := range frames {
		start := time.Now()
		if err := neighbors.Scan(ctx, frame, cfg.radius, matrix); err != nil {
			fmt.Println()
			return errors.Wrapf(err, "scanning frame %d", i)
		}
		alignedTime += time.Since(start)

		start = time.Now()
		if _, err := neighbors.Neighbors(frame, cfg.radius); err != nil {
			fmt.Println()
			return errors.Wrapf(err, "reference scan of frame %d", i)
		}
		referenceTime += time.Since(start)
	}
	fmt.Println("...done")

	printSummary(len(frames), alignedTime, referenceTime)

	if cfg.stats {
		fmt.Println(allocator.BuildStatsString(true))
	}

	return nil
}

func verify(ctx context.Context, frame []neighbors.Point3D, radius float64, matrix *neighbors.Matrix) error {
	if err := neighbors.Scan(ctx, frame, radius, matrix); err != nil {
		return err
	}

	expected, err := neighbors.Neighbors(frame, radius)
	if err != nil {
		return err
	}

	for i, row := range expected {
		got := matrix.Row(i)
		for j := range row {
			if int(got[j]) != row[j] {
				return errors.Newf("point %d, neighbor %d: expected %d, got %d", i, j, row[j], got[j])
			}
		}
	}

	return nil
}

func loadFrames(logger *slog.Logger, cfg config) ([][]neighbors.Point3D, error) {
	if cfg.pointsDir == "" {
		rng := rand.New(rand.NewSource(cfg.seed))
		base := neighbors.RandomNormal(rng, min(cfg.random, cfg.maxPoints), 0, 100)

		frames := make([][]neighbors.Point3D, cfg.frames)
		for i := range frames {
			frames[i] = neighbors.Shuffle(rng, base, len(base)*2/5, 10)
		}

		logger.Info("generated frames", slog.Int("Frames", len(frames)), slog.Int("Points", len(base)))
		return frames, nil
	}

	paths, err := filepath.Glob(filepath.Join(cfg.pointsDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	fmt.Print("Reading the frames...")
	frames := make([][]neighbors.Point3D, 0, len(paths))
	for _, path := range paths {
		points, err := neighbors.LoadPointsFile(path)
		if err != nil {
			fmt.Println()
			return nil, err
		}
		if len(points) > cfg.maxPoints {
			fmt.Println()
			return nil, errors.Newf("%s has %d points, more than --max-points=%d", path, len(points), cfg.maxPoints)
		}

		logger.Debug("loaded frame", slog.String("Path", path), slog.Int("Points", len(points)))
		frames = append(frames, points)
	}
	fmt.Println("...done")

	return frames, nil
}

func printSummary(frameCount int, alignedTime, referenceTime time.Duration) {
	perFrame := func(d time.Duration) float64 {
		return float64(d.Microseconds()) / 1000 / float64(frameCount)
	}

	bold := color.New(color.Bold)
	fmt.Printf("# of frames %d\n", frameCount)
	fmt.Printf("Aligned parallel: %.3f ms/frame\n", perFrame(alignedTime))
	fmt.Printf("Reference:        %.3f ms/frame\n", perFrame(referenceTime))
	fmt.Println("=========================")
	if alignedTime > 0 {
		bold.Printf("Aligned parallel is %.2fx faster than the reference.\n", float64(referenceTime)/float64(alignedTime))
	}
}
