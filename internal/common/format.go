package common

import (
	"fmt"
	"strings"

	"transfer-hook-vault-go/internal/models"
	"transfer-hook-vault-go/internal/vault"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// PrintOperationResult prints a submitted batch's outcome, including the error code on rejection
func PrintOperationResult(title string, result *models.OperationResult, width int) {
	if result.Success {
		PrintHeader(title+" SUCCEEDED", width)
		fmt.Printf("Batch:        %s\n", result.BatchId)
	} else {
		PrintHeader(title+" FAILED", width)
	}
	if result.User != "" {
		fmt.Printf("User:         %s\n", result.User)
	}
	if !result.Amount.IsZero() {
		fmt.Printf("Amount:       %s\n", result.Amount.String())
	}
	if result.Success {
		fmt.Printf("New Balance:  %s\n", result.NewBalance.String())
	} else {
		fmt.Printf("Error:        %s\n", result.Error)
		if result.ErrorCode != 0 {
			code := vault.Code(result.ErrorCode)
			fmt.Printf("Code:         %d %s (%s)\n", result.ErrorCode, code, code.Category())
		}
	}
	PrintSeparator("=", width)
}
