package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// WriteStartupErrorFile records a startup error in a plain file so it
// is visible even when neither the logger nor the Event Log is usable.
// Each call overwrites the file; only the latest error is kept.
func WriteStartupErrorFile(logDir string, err error) {
	_ = os.MkdirAll(logDir, 0755)

	path := filepath.Join(logDir, "startup-error.log")
	f, ferr := os.Create(path)
	if ferr != nil {
		return
	}
	defer f.Close()

	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] STARTUP ERROR\n%v\n", ts, err)
}
