package queue

import (
	"io"
	"os"
	"testing"

	"github.com/Strum355/log"
)

func TestMain(m *testing.M) {
	log.InitSimpleLogger(&log.Config{Output: io.Discard})
	os.Exit(m.Run())
}
