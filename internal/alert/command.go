package alert

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Command runs a shell command template for each alert, e.g.
// "notify-send rdtrack {{.Asset}}". Placeholders expand to single-quoted
// shell words, so they must not be wrapped in quotes again.
type Command struct {
	Template string
}

// Notify implements Notifier.
func (c Command) Notify(ctx context.Context, a Alert) error {
	if c.Template == "" {
		return nil
	}
	cmdStr := templateAlert(c.Template, a)
	cmd := exec.CommandContext(ctx, "sh", "-c", cmdStr)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("alert: command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateAlert replaces placeholders in the command template with
// shell-quoted alert values. Asset names are user input.
func templateAlert(command string, a Alert) string {
	name := a.AssetName
	if name == "" {
		name = a.AssetID
	}
	r := strings.NewReplacer(
		"{{.Asset}}", shellQuote(name),
		"{{.AssetID}}", shellQuote(a.AssetID),
		"{{.Score}}", shellQuote(fmt.Sprintf("%.2f", a.Score)),
		"{{.Threshold}}", shellQuote(fmt.Sprintf("%.2f", a.Threshold)),
		"{{.Severity}}", shellQuote(a.Severity()),
	)
	return r.Replace(command)
}

// shellQuote wraps s in single quotes, closing and escaping any embedded quote.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
