package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("ROLESVC_TEST_MODE") == "" {
			_ = os.Setenv("ROLESVC_TEST_MODE", "1")
		}
	})
}
