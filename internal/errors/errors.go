package errors

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/julianstephens/ticktask/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix.
// Field validation errors are listed one per line beneath the prefix.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var fieldErrs criterio.FieldErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		var b strings.Builder
		b.WriteString("Error: invalid input")
		for _, fe := range fieldErrs {
			fmt.Fprintf(&b, "\n  - %s: %v", fe.Field, fe.Err)
		}
		return b.String()
	}

	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
