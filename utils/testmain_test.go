package utils

import (
	"os"
	"testing"
	"time"

	"github.com/coinpulse/backend/config"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret")
	if err := InitLogger(config.Load()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// pinNow fixes the package time source for one test.
func pinNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := Now
	Now = func() time.Time { return at }
	t.Cleanup(func() { Now = prev })
}
