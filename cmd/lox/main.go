package main

import (
	"os"

	"github.com/picvet/lox/internal/models"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   err.Error(),
				"code":    models.ErrorCode(err),
			})
		} else {
			printError("Error: %v", err)
		}
		os.Exit(1)
	}
}
