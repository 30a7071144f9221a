package bot

import (
	"fmt"
	"strings"

	"github.com/kbukum/transcribot/store"
)

// User-facing replies.
const (
	MsgAccepted   = "✅ Your request has been logged and will be processed shortly."
	MsgTooLong    = "⚠️ The media file is too long. Please send a file that is less than 10 minutes."
	MsgFailed     = "❌ Failed to process your request. Please try again later."
	MsgRestricted = "⛔ This command is not available to you."

	welcome = "🎤 Welcome! Send me an audio or video file to convert it to text."
)

func welcomeText(contact string) string {
	if contact == "" {
		return welcome
	}
	return fmt.Sprintf("%s\n\n💬 If you have any questions, please feel free to ask @%s.", welcome, strings.TrimPrefix(contact, "@"))
}

// usersPage renders one /users message. Entries are numbered from 1 within
// the page.
func usersPage(total int64, accounts []store.Account) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Total number of users: %d\n\n", total)
	for i, a := range accounts {
		fmt.Fprintf(&b, "\n%d️⃣ User ID: %d\n", i+1, a.ID)
		fmt.Fprintf(&b, "👤 Username: @%s\n", orDash(a.Username))
		fmt.Fprintf(&b, "📛 First Name: %s\n", orDash(a.FirstName))
		fmt.Fprintf(&b, "💬 Chat Type: %s\n", orDash(a.ChatType))
		fmt.Fprintf(&b, "🌐 Language Code: %s\n\n", orDash(a.LanguageCode))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
