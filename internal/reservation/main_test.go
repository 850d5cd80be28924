package reservation

import (
	"os"
	"testing"

	"github.com/leobar37/welllink-sub003/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}
