package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for extracting cookies
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 XIAOHONGSHU COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("This tool needs your Xiaohongshu web session cookies to call the API.")
	fmt.Println("Follow these steps to extract them from your browser:")
	fmt.Println()

	fmt.Println("🌐 STEP 1: Open Xiaohongshu in your browser")
	fmt.Println("   - Go to https://www.xiaohongshu.com")
	fmt.Println("   - Log in with your account (scan the QR code)")
	fmt.Println("   - Make sure the explore feed loads")
	fmt.Println()

	fmt.Println("🔧 STEP 2: Open Developer Tools")
	fmt.Println("   • Chrome/Edge/Brave: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Firefox: Press F12 or Ctrl+Shift+I (Cmd+Option+I on Mac)")
	fmt.Println("   • Safari: Enable Developer menu in Preferences, then Cmd+Option+I")
	fmt.Println()

	fmt.Println("📡 STEP 3: Go to the Network tab")
	fmt.Println("   - Click on the 'Network' tab in Developer Tools")
	fmt.Println("   - If it's empty, refresh the page (F5)")
	fmt.Println()

	fmt.Println("🍪 STEP 4: Copy the full cookie header")
	fmt.Println("   1. Look for any request to 'edith.xiaohongshu.com'")
	fmt.Println("   2. Click on it")
	fmt.Println("   3. Go to 'Headers' section")
	fmt.Println("   4. Scroll to 'Request Headers'")
	fmt.Println("   5. Copy the ENTIRE value of the 'Cookie:' line")
	fmt.Println()

	fmt.Println("🔑 STEP 5: What a valid cookie string contains:")
	fmt.Println("   It is a single line of 'name=value; name=value; ...' pairs and")
	fmt.Println("   must include at least these entries:")
	fmt.Println("   • a1            device fingerprint")
	fmt.Println("   • web_session  the logged-in session token")
	fmt.Println("   • webId        browser identifier")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Paste the whole header, do not pick individual cookies apart")
	fmt.Println("   • Sessions expire after a few weeks; re-run 'auth login' when")
	fmt.Println("     requests start failing with login errors")
	fmt.Println("   • Use a secondary account for collection work")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • These cookies give FULL access to your Xiaohongshu account")
	fmt.Println("   • NEVER share them with anyone")
	fmt.Println("   • Store them securely (this tool encrypts them)")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickExtractGuide shows a condensed version for experienced users
func ShowQuickExtractGuide() {
	fmt.Println("\n🍪 Quick Guide: F12 → Network tab → Refresh → Click any edith.xiaohongshu.com request → Headers → Cookie")
	fmt.Println("   Copy the entire Cookie header value (must contain a1 and web_session)")
	fmt.Println("   Type 'help' for detailed instructions")
}
