package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/picvet/lox/internal/clipboard"
	"github.com/picvet/lox/internal/password"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a password without touching the vault",
	Long: `Generate prints a random password built from the configured character
classes. The vault is not opened and nothing is stored.`,
	Example: `  lox generate
  lox generate -l 32 --no-symbols`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var (
	genLength      int
	genNoSymbols   bool
	genNoDigits    bool
	genNoUppercase bool
	genNoClipboard bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVarP(&genLength, "length", "l", 0, "Password length (default from config)")
	generateCmd.Flags().BoolVar(&genNoSymbols, "no-symbols", false, "Generate without symbols")
	generateCmd.Flags().BoolVar(&genNoDigits, "no-digits", false, "Generate without digits")
	generateCmd.Flags().BoolVar(&genNoUppercase, "no-uppercase", false, "Generate without uppercase letters")
	generateCmd.Flags().BoolVar(&genNoClipboard, "no-clipboard", false, "Skip the clipboard copy")
}

// generatorOptions merges config defaults with command flags.
func generatorOptions(length int, noUppercase, noDigits, noSymbols bool) password.Options {
	opts := password.Options{
		Length:         cfg.Generator.Length,
		Uppercase:      cfg.Generator.Uppercase,
		Digits:         cfg.Generator.Digits,
		Symbols:        cfg.Generator.Symbols,
		ExcludeSimilar: cfg.Generator.ExcludeSimilar,
	}

	if length > 0 {
		opts.Length = length
	}
	if noUppercase {
		opts.Uppercase = false
	}
	if noDigits {
		opts.Digits = false
	}
	if noSymbols {
		opts.Symbols = false
	}

	return opts
}

func runGenerate(cmd *cobra.Command, args []string) error {
	pw, err := password.Generate(generatorOptions(genLength, genNoUppercase, genNoDigits, genNoSymbols))
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"password": pw,
			"length":   len(pw),
		})
		return nil
	}

	fmt.Println(pw)
	deliverToClipboard(clipboard.NewService(logger), pw, genNoClipboard)
	return nil
}
