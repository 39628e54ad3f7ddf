package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediagrab-go/api/handlers"
	"github.com/yourusername/mediagrab-go/internal/app"
	"github.com/yourusername/mediagrab-go/internal/domain"
)

var encodersCmd = &cobra.Command{
	Use:   "encoders",
	Short: "List the video encoders that work on this machine",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var result struct {
			Ready     bool                   `json:"ready"`
			Current   domain.EncoderChoice   `json:"current"`
			Available []domain.EncoderChoice `json:"available"`
		}
		must(call(http.MethodGet, "/api/v1/encoders", nil, &result))

		if !result.Ready {
			fmt.Println("Encoder probe still running; using CPU")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tENCODER\tBACKEND\tLABEL")
		for _, e := range result.Available {
			marker := ""
			if e.Encoder == result.Current.Encoder {
				marker = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, e.Encoder, e.Backend, e.Label)
		}
		w.Flush()
	},
}

var encodersUseCmd = &cobra.Command{
	Use:   "use [encoder]",
	Short: "Use an available encoder for transcoding",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var choice domain.EncoderChoice
		must(call(http.MethodPut, "/api/v1/encoders/current", handlers.UseEncoderRequest{Name: args[0]}, &choice))
		fmt.Printf("Using %s (%s)\n", choice.Encoder, choice.Label)
	},
}

var baseDirCmd = &cobra.Command{
	Use:   "base-dir [path]",
	Short: "Show or change the default download folder",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		var result struct {
			BaseDir string `json:"base_dir"`
		}
		if len(args) == 0 {
			must(call(http.MethodGet, "/api/v1/settings/base-dir", nil, &result))
		} else {
			path, err := filepath.Abs(args[0])
			must(err)
			must(call(http.MethodPut, "/api/v1/settings/base-dir", handlers.BaseDirRequest{Path: path}, &result))
		}
		fmt.Println(result.BaseDir)
	},
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Read or write title, artist and album tags",
}

var tagsGetCmd = &cobra.Command{
	Use:   "get [file]",
	Short: "Print the title tag of a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		path, err := filepath.Abs(args[0])
		must(err)

		query := url.Values{}
		query.Set("path", path)
		query.Set("mode", modeForFile(cmd, path))

		var result struct {
			Title string `json:"title"`
		}
		must(call(http.MethodGet, "/api/v1/metadata/title?"+query.Encode(), nil, &result))
		fmt.Println(result.Title)
	},
}

var tagsSetCmd = &cobra.Command{
	Use:   "set [file]",
	Short: "Write tags to a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		path, err := filepath.Abs(args[0])
		must(err)
		title, _ := cmd.Flags().GetString("title")
		artist, _ := cmd.Flags().GetString("artist")
		album, _ := cmd.Flags().GetString("album")

		var result struct {
			Message string `json:"message"`
		}
		must(call(http.MethodPost, "/api/v1/metadata/tags", handlers.TagsRequest{
			Path:   path,
			Mode:   modeForFile(cmd, path),
			Title:  title,
			Artist: artist,
			Album:  album,
		}, &result))
		fmt.Println(result.Message)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename [folder]",
	Short: "Rename the files in a folder after their title tags",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		folder, err := filepath.Abs(args[0])
		must(err)
		mode, _ := cmd.Flags().GetString("mode")
		artist, _ := cmd.Flags().GetString("artist")
		album, _ := cmd.Flags().GetString("album")
		format, _ := cmd.Flags().GetString("format")

		var result struct {
			Results []app.RenameResult `json:"results"`
		}
		must(call(http.MethodPost, "/api/v1/metadata/rename", handlers.RenameRequest{
			Folder: folder,
			Mode:   mode,
			Artist: artist,
			Album:  album,
			Format: format,
		}, &result))

		for _, r := range result.Results {
			fmt.Println(r.Message)
		}
	},
}

// modeForFile uses --mode when given, otherwise the file extension
func modeForFile(cmd *cobra.Command, path string) string {
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		return mode
	}
	if m, ok := domain.ParseMode(strings.TrimPrefix(filepath.Ext(path), ".")); ok {
		return string(m)
	}
	return string(domain.ModeAudio)
}

func init() {
	encodersCmd.AddCommand(encodersUseCmd)
	tagsCmd.AddCommand(tagsGetCmd)
	tagsCmd.AddCommand(tagsSetCmd)

	tagsCmd.PersistentFlags().StringP("mode", "m", "", "File kind (audio, video); default from the extension")
	tagsSetCmd.Flags().StringP("title", "t", "", "Title")
	tagsSetCmd.Flags().StringP("artist", "a", "", "Artist")
	tagsSetCmd.Flags().StringP("album", "b", "", "Album")

	renameCmd.Flags().StringP("mode", "m", string(domain.ModeAudio), "File kind (audio, video)")
	renameCmd.Flags().StringP("artist", "a", "", "Artist used by the title-artist format")
	renameCmd.Flags().StringP("album", "b", "", "Album used by the title-album format")
	renameCmd.Flags().StringP("format", "f", "title-artist", "Name format (title-artist, title-album, title)")
}
