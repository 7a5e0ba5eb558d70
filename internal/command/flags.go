package command

import (
	"strconv"
	"time"

	"github.com/joeycumines/usage-capture/internal/config"
)

// secondsValue is a flag.Value holding a duration written either as whole
// or fractional seconds ("30", "2.5") or as a Go duration ("1m", "500ms").
type secondsValue struct {
	d *time.Duration
}

func newSecondsValue(d *time.Duration) *secondsValue {
	return &secondsValue{d: d}
}

func (v *secondsValue) Set(s string) error {
	d, err := config.ParseSeconds(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

func (v *secondsValue) String() string {
	if v == nil || v.d == nil {
		return ""
	}
	return formatSeconds(*v.d)
}

// formatSeconds renders whole seconds as a bare number, like the flag
// accepts them, and anything else as a Go duration.
func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return strconv.FormatInt(int64(d/time.Second), 10)
	}
	return d.String()
}
