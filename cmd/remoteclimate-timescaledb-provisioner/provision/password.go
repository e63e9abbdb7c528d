package provision

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// PasswordLength is how long generated passwords are by default.
	PasswordLength = 24

	// passwordCharset is the alphabet for generated passwords. No quotes,
	// backslashes or spaces: the password is embedded in a key/value DSN
	// and in a quoted SQL literal.
	passwordCharset = "abcdefghijklmnopqrstuvwxyz" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"0123456789" +
		"!@#$%^&*()-_=+[]{}|;:,.<>?"
)

// ANSI escapes used across the provisioner's console output.
const (
	ColorReset        = "\033[0m"
	ColorBrightYellow = "\033[93m"
	ColorBrightCyan   = "\033[96m"
	ColorBold         = "\033[1m"
)

// GeneratePassword draws length characters from the password alphabet using
// crypto/rand.
func GeneratePassword(length int) (string, error) {
	if length <= 0 {
		length = PasswordLength
	}

	alphabet := big.NewInt(int64(len(passwordCharset)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		idx, err := rand.Int(rand.Reader, alphabet)
		if err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}
		b.WriteByte(passwordCharset[idx.Int64()])
	}

	return b.String(), nil
}

// DisplayPasswordWarning shows the generated password in a banner the
// operator cannot miss. It is printed exactly once.
func DisplayPasswordWarning(password string) {
	fmt.Println()
	fmt.Printf("%s%s🔐 Generated Password%s\n", ColorBold, ColorBrightYellow, ColorReset)
	for _, line := range []string{
		"╔══════════════════════════════════════════════════╗",
		"║  ⚠️  SAVE THIS PASSWORD - IT WON'T BE SHOWN AGAIN ║",
		"╚══════════════════════════════════════════════════╝",
	} {
		fmt.Printf("%s%s%s\n", ColorBrightYellow, line, ColorReset)
	}
	fmt.Println()
	fmt.Printf("  %sPassword: %s%s%s\n", ColorBold, ColorBrightCyan, password, ColorReset)
	fmt.Println()
	fmt.Println("The password is saved to config.db and used by remoteclimate")
	fmt.Println("automatically.")
	fmt.Println()
}
