package notification

import (
	"log"

	"fyne.io/fyne/v2"
)

const maxBodyRunes = 200

// Notify posts a desktop notification through the running fyne app, or logs
// it when no app is running.
func Notify(title, message string) {
	body := truncate(message)
	if a := fyne.CurrentApp(); a != nil {
		a.SendNotification(fyne.NewNotification(title, body))
		return
	}
	log.Printf("%s: %s", title, body)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxBodyRunes {
		return s
	}
	return string(r[:maxBodyRunes]) + "..."
}
