package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/schollz/progressbar/v3"

	"github.com/yourusername/mediagrab-go/internal/app"
)

// streamMessage covers both the initial snapshot and the events after it
type streamMessage struct {
	app.StatusEvent
	Snapshot *app.StatusSnapshot `json:"snapshot,omitempty"`
}

// watchStatus follows the status stream until the download controls are
// enabled again
func watchStatus(out io.Writer) error {
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/api/v1/downloads/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to status stream: %w", err)
	}
	defer conn.Close()

	return followStatus(conn, out)
}

func followStatus(conn *websocket.Conn, out io.Writer) error {
	var (
		bar        *progressbar.ProgressBar
		lastStatus string
	)

	finish := func() error {
		if bar != nil {
			_ = bar.Finish()
			fmt.Fprintln(out)
		}
		if lastStatus != "" {
			fmt.Fprintln(out, lastStatus)
		}
		if isFailure(lastStatus) {
			return errors.New(lastStatus)
		}
		return nil
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return finish()
			}
			return fmt.Errorf("status stream closed: %w", err)
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "snapshot":
			if msg.Snapshot == nil {
				continue
			}
			lastStatus = msg.Snapshot.Status
			if msg.Snapshot.Controls.Download {
				// Nothing running; report how the last request ended
				return finish()
			}
			bar = newProgressBar(out)
			_ = bar.Set(msg.Snapshot.Percent)
			bar.Describe(lastStatus)

		case app.EventProgress:
			if p := msg.Progress; p != nil && !p.Indeterminate && bar != nil {
				_ = bar.Set(p.Percent)
			}

		case app.EventStatus:
			lastStatus = msg.Status
			if bar != nil {
				bar.Describe(msg.Status)
			}

		case app.EventControls:
			if msg.Controls != nil && msg.Controls.Download {
				return finish()
			}
		}
	}
}

func newProgressBar(out io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetPredictTime(false),
	)
}

func isFailure(status string) bool {
	return strings.HasPrefix(status, "Error") || status == app.MsgCancelled
}
