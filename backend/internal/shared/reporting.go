package shared

import (
	"log/slog"
	"os"

	"github.com/rollbar/rollbar-go"
)

var reportingEnabled bool

// InitReporting configures Rollbar when a token is present. Without a token
// ReportError only logs.
func InitReporting(config *ServiceConfig) {
	if config.Reporting.RollbarToken == "" {
		rollbar.SetEnabled(false)
		return
	}

	host, _ := os.Hostname()
	rollbar.SetToken(config.Reporting.RollbarToken)
	rollbar.SetEnvironment(config.Environment)
	rollbar.SetCodeVersion(config.Reporting.CodeVersion)
	rollbar.SetServerHost(host)
	rollbar.SetEnabled(true)
	reportingEnabled = true
}

// ReportError logs err and forwards it to Rollbar when reporting is enabled.
func ReportError(err error, extras map[string]interface{}) {
	if err == nil {
		return
	}
	slog.Error("unexpected error", "error", err, "extras", extras)
	if reportingEnabled {
		rollbar.Error(err, extras)
	}
}

// FlushReporting waits for queued reports to be sent.
func FlushReporting() {
	if reportingEnabled {
		rollbar.Wait()
	}
}
