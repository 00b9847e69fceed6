package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/guttosm/varpulse/internal/domain/models"
	"github.com/guttosm/varpulse/internal/logger"
	"github.com/guttosm/varpulse/internal/pipeline"
)

// SuccessMarker is written to every entity directory once all of its files are durable.
const SuccessMarker = "_SUCCESS"

const writeBufferSize = 1 << 20

// Indirections swapped in tests to inject I/O faults.
var (
	createFile = os.Create
	renameFile = os.Rename
	syncDir    = fsyncDir
)

// FileConfig configures a FileOutput.
type FileConfig struct {
	Dir     string
	Format  Format
	Buffers pipeline.BufferSizes
	Flush   pipeline.FlushConfig
}

// FileOutput writes each flushed buffer to its own file under
// Dir/{products,trades,risks} and marks the directories complete.
type FileOutput struct {
	*pipeline.Sinks

	format Format
	dirs   map[string]string
}

// NewFileOutput creates the entity directories, removes stale success markers
// and starts the flush executor.
func NewFileOutput(ctx context.Context, cfg FileConfig) (*FileOutput, error) {
	if cfg.Format == nil {
		return nil, errors.New("file output needs a format")
	}
	o := &FileOutput{format: cfg.Format, dirs: make(map[string]string, 3)}
	for _, entity := range []string{pipeline.EntityProducts, pipeline.EntityTrades, pipeline.EntityRisks} {
		dir := filepath.Join(cfg.Dir, entity)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		if err := os.Remove(filepath.Join(dir, SuccessMarker)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale marker in %s: %w", dir, err)
		}
		o.dirs[entity] = dir
	}

	o.Sinks = pipeline.NewSinks(ctx, cfg.Buffers, cfg.Flush, pipeline.Writers{
		Products: func(ctx context.Context, seq int64, recs []models.Product) error {
			return o.writeFile(pipeline.EntityProducts, seq, func(w io.Writer) error {
				return o.format.WriteProducts(w, recs)
			})
		},
		Trades: func(ctx context.Context, seq int64, recs []models.Trade) error {
			return o.writeFile(pipeline.EntityTrades, seq, func(w io.Writer) error {
				return o.format.WriteTrades(w, recs)
			})
		},
		Risks: func(ctx context.Context, seq int64, recs []models.Risk) error {
			return o.writeFile(pipeline.EntityRisks, seq, func(w io.Writer) error {
				return o.format.WriteRisks(w, recs)
			})
		},
	})
	return o, nil
}

// Dir returns the directory of an entity.
func (o *FileOutput) Dir(entity string) string { return o.dirs[entity] }

// Complete drains every sink and, only if all flushes succeeded, writes the
// success marker in each entity directory.
func (o *FileOutput) Complete(ctx context.Context) error {
	if err := o.Drain(ctx); err != nil {
		return err
	}

	entities := []string{pipeline.EntityProducts, pipeline.EntityTrades, pipeline.EntityRisks}
	// renamed entries must be durable before a marker can claim them
	for _, entity := range entities {
		if err := syncDir(o.dirs[entity]); err != nil {
			return fmt.Errorf("sync %s: %w", o.dirs[entity], err)
		}
	}

	var written []string
	for _, entity := range entities {
		path := filepath.Join(o.dirs[entity], SuccessMarker)
		if err := writeMarker(path); err != nil {
			for _, p := range written {
				_ = os.Remove(p)
			}
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	logger.L().Info().Strs("dirs", written).Msg("output complete")
	return nil
}

// Abort drains what is buffered and waits for in-flight flushes. It never
// writes success markers.
func (o *FileOutput) Abort(ctx context.Context) error {
	err := o.Drain(ctx)
	logger.L().Warn().Err(err).Msg("output aborted, success markers not written")
	return err
}

// writeFile writes to a hidden temp file and renames it to {seq}.{ext}, so a
// failed flush never leaves a partial file under its final name.
func (o *FileOutput) writeFile(entity string, seq int64, write func(io.Writer) error) (err error) {
	dir := o.dirs[entity]
	ext := o.format.Extension()
	tmp := filepath.Join(dir, fmt.Sprintf(".%d.%s.tmp", seq, ext))
	final := filepath.Join(dir, fmt.Sprintf("%d.%s", seq, ext))

	f, err := createFile(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	bw := bufio.NewWriterSize(f, writeBufferSize)
	if err = write(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return renameFile(tmp, final)
}

func writeMarker(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	return f.Close()
}

// fsyncDir flushes directory entries (renames, creates) to stable storage.
func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return err
	}
	return d.Close()
}
