package command

import (
	"os"
	"testing"

	"github.com/joeycumines/usage-capture/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.MaybeRunFakeTUI()
	os.Exit(m.Run())
}
