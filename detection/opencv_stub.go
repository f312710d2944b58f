//go:build !opencv

package detection

import (
	"errors"

	"go.uber.org/zap"
)

func newOpenCVDetector(DetectorConfig, []string, *zap.Logger) (Detector, error) {
	return nil, errors.New("opencv backend not compiled in; rebuild with -tags opencv")
}
