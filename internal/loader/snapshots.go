package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/fmr-analysis/internal/fault"
	"github.com/roman-kulish/fmr-analysis/internal/magnetization"
)

// SnapshotExt is the extension of field snapshot files.
const SnapshotExt = ".ovf"

var orderingKeyPattern = regexp.MustCompile(`-(\d{9,10})-`)

// OrderingKey extracts the time-step key embedded in a snapshot file name,
// the first 9 or 10 digit run enclosed by hyphens.
func OrderingKey(name string) (int64, bool) {
	m := orderingKeyPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	key, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return key, true
}

type snapshotFile struct {
	key  int64
	path string
}

// Snapshots loads every OVF file in dir whose name carries an ordering key,
// reshapes it with the supplied grid and returns the series sorted by key.
// Files without a key, or that fail to parse, are logged and skipped. Times
// are key multiplied by interval.
func (l *Loader) Snapshots(ctx context.Context, dir string, grid magnetization.Grid, interval float64) (*magnetization.FieldSeries, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory: %w", err)
	}

	var files []snapshotFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), SnapshotExt) {
			continue
		}

		key, ok := OrderingKey(e.Name())
		if !ok {
			l.logger.Warn("skipping file without ordering key", slog.String("file", e.Name()))
			continue
		}

		l.logger.Debug("found snapshot", slog.String("file", e.Name()), slog.Int64("key", key))
		files = append(files, snapshotFile{key: key, path: filepath.Join(dir, e.Name())})
	}

	sortSnapshotFiles(files)

	// Parsed values land in the slot of their file so the result does not
	// depend on which worker finishes first.
	values := make([][]float64, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, sf := range files {
		i, sf := i, sf
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			v, err := l.readSnapshot(sf.path, grid)
			if err != nil {
				l.logger.Warn("skipping unparsable snapshot", slog.String("error", err.Error()))
				return nil
			}
			values[i] = v
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	fs := magnetization.FieldSeries{Grid: grid}
	for i, sf := range files {
		if values[i] == nil {
			continue
		}
		if n := len(fs.Keys); n > 0 && fs.Keys[n-1] == sf.key {
			l.logger.Warn("duplicate ordering key", slog.Int64("key", sf.key), slog.String("file", sf.path))
		}
		fs.Keys = append(fs.Keys, sf.key)
		fs.Sources = append(fs.Sources, sf.path)
		fs.Snapshots = append(fs.Snapshots, values[i])
	}

	if len(fs.Snapshots) == 0 {
		return nil, fmt.Errorf("%w in %s", fault.ErrEmptySeries, dir)
	}

	fs.Times = SimulationTimes(fs.Keys, interval)

	l.logger.Info("loaded snapshots",
		slog.Group("stats",
			slog.Int("found", len(files)),
			slog.Int("loaded", len(fs.Snapshots)),
			slog.Int64("firstKey", fs.Keys[0]),
			slog.Int64("lastKey", fs.Keys[len(fs.Keys)-1]),
		))

	return &fs, nil
}

// sortSnapshotFiles orders files by key, then by path. Directory listing
// order is never relied upon.
func sortSnapshotFiles(files []snapshotFile) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].key != files[j].key {
			return files[i].key < files[j].key
		}
		return files[i].path < files[j].path
	})
}

func (l *Loader) readSnapshot(path string, grid magnetization.Grid) ([]float64, error) {
	o, err := ReadOVF(path)
	if err != nil {
		return nil, fault.NewParseError(path, 0, err)
	}

	if len(o.Values) != grid.Values() {
		return nil, fault.NewParseError(path, 0,
			fmt.Errorf("got %d vectors, grid %dx%dx%d needs %d", o.Vectors(), grid.XNodes, grid.YNodes, grid.ZNodes, grid.Cells()))
	}

	for key, want := range map[string]int{"xnodes": grid.XNodes, "ynodes": grid.YNodes, "znodes": grid.ZNodes} {
		if got, ok := o.HeaderInt(key); ok && got != want {
			l.logger.Warn("snapshot header disagrees with configured grid",
				slog.String("file", path), slog.String("key", key), slog.Int("header", got), slog.Int("configured", want))
		}
	}

	return o.Values, nil
}
