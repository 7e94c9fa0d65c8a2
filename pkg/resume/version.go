package resume

import (
	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// CheckVersion verifies that a snapshot written as got can be resumed by a
// consumer expecting want.
func CheckVersion(strategy Strategy, want, got string) error {
	switch strategy {
	case StrategyIgnore:
		return nil
	case StrategyStrict:
		if got != want {
			return errors.New("E030").WithDetailf("snapshot version %q, want exactly %q", got, want)
		}
		return nil
	case StrategyCompatible:
		gm, ok := reactive.MajorVersion(got)
		if !ok {
			return errors.New("E031").WithDetailf("snapshot version %q", got)
		}
		wm, ok := reactive.MajorVersion(want)
		if !ok {
			return errors.New("E031").WithDetailf("expected version %q", want)
		}
		if gm != wm {
			return errors.New("E030").WithDetailf("snapshot version %q is not compatible with %q", got, want)
		}
		return nil
	default:
		return errors.New("E031").WithDetailf("unknown strategy %q", strategy)
	}
}
