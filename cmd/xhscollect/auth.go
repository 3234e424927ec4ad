package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xhscollect/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Xiaohongshu session credentials",
	Long: `Manage stored Xiaohongshu session credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (XHS_COOKIES, read-only)

Never share your cookies or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Store session cookies securely",
	Long: `Store a Xiaohongshu web session in the system keychain or an encrypted
file.

You will be prompted for the full Cookie header of a logged-in
xiaohongshu.com browser session; the guide printed first shows where to
find it. The cookie value is hidden as you type.`,
	Example: `  # Store the default session
  xhscollect auth login

  # Store a second account under a label
  xhscollect auth login research`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Long:  `List all stored sessions with the cookie values masked.`,
	Run:   runList,
}

// removeCmd represents the auth remove command
var removeCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a stored session",
	Long:  `Remove a stored session from every credential store that holds it.`,
	Args:  cobra.ExactArgs(1),
	Run:   runRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(removeCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("failed to open credential store", err)
	}

	label := auth.DefaultLabel
	if len(args) > 0 {
		label = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	auth.ShowCookieExtractionGuide()

	fmt.Print("Ready to paste your cookies? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.EqualFold(strings.TrimSpace(ready), "n") {
		fmt.Println("\nRun 'xhscollect auth login' when you're ready.")
		return
	}

	if existing, _ := manager.Retrieve(label); existing != nil {
		fmt.Printf("\nSession '%s' already exists. Update it? (y/N): ", label)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	var cookies string
	for {
		fmt.Print("\nCookie header value: ")
		cookies, err = readSecret()
		if err != nil {
			fatal("failed to read cookies", err)
		}
		cookies = strings.TrimSpace(cookies)

		if !strings.Contains(cookies, "web_session=") || !strings.Contains(cookies, "a1=") {
			fmt.Println("\nThat doesn't look like a full Xiaohongshu cookie header.")
			fmt.Println("It must contain at least the a1 and web_session cookies.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.EqualFold(strings.TrimSpace(retry), "n") {
				os.Exit(1)
			}
			continue
		}
		break
	}

	fmt.Print("\nUser Agent (press Enter to use the default): ")
	userAgent, _ := reader.ReadString('\n')
	userAgent = strings.TrimSpace(userAgent)

	creds := &auth.Credentials{
		Label:     label,
		Cookies:   cookies,
		UserAgent: userAgent,
	}

	if err := manager.Store(creds); err != nil {
		fatal("failed to store credentials", err)
	}

	fmt.Println("\nSession stored successfully!")
	if auth.IsKeyringAvailable() {
		fmt.Println("Location: system keychain")
	} else {
		fmt.Println("Location: encrypted file under your config directory")
	}
	fmt.Println("\nStart collecting with:")
	fmt.Println("  xhscollect collect")
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("failed to open credential store", err)
	}

	sessions, err := manager.List()
	if err != nil {
		fatal("failed to list sessions", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No stored sessions. Use 'xhscollect auth login' to add one.")
		return
	}

	fmt.Println("Stored sessions:")
	fmt.Println()
	for i, creds := range sessions {
		sanitized := auth.SanitizeCredentials(creds)
		fmt.Printf("%d. %s\n", i+1, sanitized.Label)
		fmt.Printf("   Cookies: %s\n", sanitized.Cookies)
		if sanitized.UserAgent != "" {
			fmt.Printf("   User Agent: %s\n", sanitized.UserAgent)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func runRemove(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fatal("failed to open credential store", err)
	}

	label := args[0]
	if err := manager.Delete(label); err != nil {
		fatal("failed to remove session", err)
	}
	fmt.Println("Session removed:", label)
}

// readSecret reads a line from stdin without echoing when attached to a
// terminal.
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(secret), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
