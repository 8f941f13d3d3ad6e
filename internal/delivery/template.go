package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/counsel/internal/session"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// SaveTemplate writes msg to a text file in dir for review and returns the
// file's path. dir is created if missing.
func SaveTemplate(dir string, msg *session.FollowUp) (string, error) {
	return saveTemplate(dir, msg, time.Now())
}

func saveTemplate(dir string, msg *session.FollowUp, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create template dir: %w", err)
	}

	name := "follow_up_email_"
	if id := unsafeFileChars.ReplaceAllString(msg.SessionSummary.SessionID, "_"); id != "" {
		name += id + "_"
	}
	name += now.Format("20060102_150405") + ".txt"
	path := filepath.Join(dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\n", msg.ToEmail)
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "Generated: %s\n", msg.GeneratedAt.Format(time.RFC3339))
	b.WriteString(strings.Repeat("-", 50) + "\n")
	b.WriteString(msg.Body)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write template: %w", err)
	}
	return path, nil
}
