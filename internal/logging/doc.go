// Package logger provides leveled logging for Koru CLI commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags:
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Without flags, only warnings and errors are shown.
//
// Commands typically create a logger in their PersistentPreRun and pass it
// to internal functions:
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Fetched %d secrets", count)
package logger
