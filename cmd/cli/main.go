package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediagrab-go/api/handlers"
	"github.com/yourusername/mediagrab-go/internal/app"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

var (
	serverURL   string
	configFile  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "mediagrab",
		Short: "mediagrab CLI - download audio and video with yt-dlp",
		Long: `A command-line client for the mediagrab server. Downloads run one at a
time on the server; videos are transcoded to H.264 when needed.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8765", "Server URL")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file passed to an auto-started server")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(encodersCmd)
	rootCmd.AddCommand(baseDirCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(logsCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Download a URL as audio or video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		mode, _ := cmd.Flags().GetString("mode")
		quality, _ := cmd.Flags().GetString("quality")
		dest, _ := cmd.Flags().GetString("dest")
		watch, _ := cmd.Flags().GetBool("watch")

		payload := handlers.SubmitRequest{
			URL:         args[0],
			Mode:        mode,
			Quality:     quality,
			Destination: dest,
		}

		var status handlers.StatusResponse
		must(call(http.MethodPost, "/api/v1/downloads", payload, &status))
		fmt.Println("Download started")

		if watch {
			must(watchStatus(os.Stdout))
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the running download",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		err := call(http.MethodPost, "/api/v1/downloads/cancel", nil, nil)
		if err != nil && err.Error() == app.MsgNothingToCancel {
			fmt.Println(app.MsgNothingToCancel)
			return
		}
		must(err)
		fmt.Println(app.MsgCancellationRequested)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current download status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var status handlers.StatusResponse
		must(call(http.MethodGet, "/api/v1/downloads/status", nil, &status))

		fmt.Printf("State:    %s\n", status.State)
		if status.Indeterminate {
			fmt.Printf("Progress: unknown\n")
		} else {
			fmt.Printf("Progress: %d%%\n", status.Percent)
		}
		fmt.Printf("Status:   %s\n", status.Status)
		fmt.Printf("Updated:  %s\n", status.UpdatedAt.Format(time.RFC3339))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the running download until it finishes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		must(watchStatus(os.Stdout))
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent downloads",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")

		var result struct {
			Records []domain.DownloadRecord `json:"records"`
		}
		must(call(http.MethodGet, "/api/v1/downloads/history?limit="+strconv.Itoa(limit), nil, &result))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tMODE\tSTATUS\tCREATED\tDETAIL")
		for _, r := range result.Records {
			detail := r.FilePath
			if r.ErrorMessage != "" {
				detail = r.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(r.ID, 8),
				truncate(r.URL, 40),
				r.Mode,
				r.Status,
				r.CreatedAt.Format("2006-01-02 15:04"),
				detail)
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var stats domain.HistoryStats
		must(call(http.MethodGet, "/api/v1/downloads/stats", nil, &stats))

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:      %d\n", stats.Total)
		fmt.Printf("  Running:    %d\n", stats.Running)
		fmt.Printf("  Completed:  %d\n", stats.Completed)
		fmt.Printf("  Failed:     %d\n", stats.Failed)
		fmt.Printf("  Cancelled:  %d\n", stats.Cancelled)
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show today's download or error log",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		limit, _ := cmd.Flags().GetInt("limit")
		date, _ := cmd.Flags().GetString("date")

		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		if date != "" {
			query.Set("date", date)
		}

		var result struct {
			Entries []struct {
				Timestamp string                 `json:"ts"`
				Level     string                 `json:"level"`
				Message   string                 `json:"msg"`
				Fields    map[string]interface{} `json:"fields"`
			} `json:"entries"`
		}
		must(call(http.MethodGet, "/api/v1/logs/"+url.PathEscape(args[0])+"?"+query.Encode(), nil, &result))

		for _, e := range result.Entries {
			fmt.Printf("%s %-5s %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf(" %s=%v", k, v)
			}
			fmt.Println()
		}
	},
}

func init() {
	getCmd.Flags().StringP("mode", "m", string(domain.ModeAudio), "Download mode (audio, video)")
	getCmd.Flags().StringP("quality", "q", "", "Audio bitrate in kbps or video height (e.g. 192, 720p)")
	getCmd.Flags().StringP("dest", "d", "", "Destination folder (default: server base directory)")
	getCmd.Flags().BoolP("watch", "w", false, "Follow progress until the download finishes")
	historyCmd.Flags().IntP("limit", "n", 20, "Number of records to show")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
	logsCmd.Flags().String("date", "", "Log date (YYYY-MM-DD, default today)")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
