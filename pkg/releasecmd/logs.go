package releasecmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// writeStageLog archives a stage's combined output to
// `<logDir>/<stage>.log.gz`, creating logDir as needed.
func writeStageLog(logDir, stage, output string) error {
	err := os.MkdirAll(logDir, 0o750)
	if err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	path := filepath.Join(logDir, stage+".log.gz")

	f, err := os.Create(path) //nolint:gosec // Path is derived from the configured log dir.
	if err != nil {
		return fmt.Errorf("create stage log: %w", err)
	}

	zw := gzip.NewWriter(f)

	_, err = zw.Write([]byte(output))
	if err != nil {
		_ = zw.Close()
		_ = f.Close()

		return fmt.Errorf("write stage log: %w", err)
	}

	err = zw.Close()
	if err != nil {
		_ = f.Close()

		return fmt.Errorf("close stage log: %w", err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("close stage log: %w", err)
	}

	return nil
}
