package endpoint

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atul-1602/memecraft/version"
)

var processStart = time.Now()

const mib = 1 << 20

// Info reports the service name, short version and uptime.
func Info(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   service,
			"version":   version.Short(),
			"uptime":    time.Since(processStart).Round(time.Second).String(),
			"timestamp": now(),
		})
	}
}

// Version reports the full build information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}

// Runtime reports goroutine and heap statistics. OpenTelemetry metrics are
// exported separately over OTLP.
func Runtime() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		c.JSON(http.StatusOK, gin.H{
			"timestamp":  now(),
			"goroutines": runtime.NumGoroutine(),
			"heap_mb":    ms.HeapAlloc / mib,
			"sys_mb":     ms.Sys / mib,
			"gc_runs":    ms.NumGC,
		})
	}
}
