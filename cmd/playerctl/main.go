// Package main provides the player control CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/19player/internal/api/connect"
	"github.com/osa030/19player/internal/app/playback"
)

var (
	app    = kingpin.New("19player-ctl", "19player control client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set CONTROL_TOKEN env)").Envar("CONTROL_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show the player status")

	// tracks command
	tracksCmd   = app.Command("tracks", "List tracks").Alias("ls")
	tracksQuery = tracksCmd.Arg("query", "Filter by title or artist").String()

	// play command
	playCmd     = app.Command("play", "Play a track")
	playTrackID = playCmd.Arg("track-id", "Track ID").Required().String()

	// toggle command
	toggleCmd = app.Command("toggle", "Toggle play/pause")

	// seek command
	seekCmd      = app.Command("seek", "Seek the current track")
	seekPosition = seekCmd.Arg("position", "Position as seconds or m:ss").Required().String()

	// next / prev commands
	nextCmd = app.Command("next", "Play the next track")
	prevCmd = app.Command("prev", "Play the previous track").Alias("previous")

	// volume command
	volumeCmd     = app.Command("volume", "Set the volume")
	volumePercent = volumeCmd.Arg("percent", "Volume 0-100").Required().Int()

	// sleep command
	sleepCmd      = app.Command("sleep", "Pause playback after a while (0 cancels)")
	sleepDuration = sleepCmd.Arg("duration", "Duration, e.g. 30m").Required().Duration()

	// watch command
	watchCmd = app.Command("watch", "Stream playback events")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Create client
	client := apiconnect.NewPlayerClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(*token)),
	)

	ctx := context.Background()

	// Execute command
	var (
		st  *apiconnect.StatusView
		err error
	)
	switch command {
	case statusCmd.FullCommand():
		st, err = client.GetStatus(ctx)
	case tracksCmd.FullCommand():
		err = listTracks(ctx, client, *tracksQuery)
	case playCmd.FullCommand():
		st, err = client.Play(ctx, *playTrackID)
	case toggleCmd.FullCommand():
		st, err = client.TogglePlayPause(ctx)
	case seekCmd.FullCommand():
		var seconds float64
		seconds, err = parsePosition(*seekPosition)
		if err == nil {
			st, err = client.Seek(ctx, seconds)
		}
	case nextCmd.FullCommand():
		st, err = client.Next(ctx)
	case prevCmd.FullCommand():
		st, err = client.Previous(ctx)
	case volumeCmd.FullCommand():
		st, err = client.SetVolume(ctx, *volumePercent)
	case sleepCmd.FullCommand():
		st, err = client.SetSleepTimer(ctx, *sleepDuration)
	case watchCmd.FullCommand():
		err = watch(ctx, client)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if st != nil {
		printStatus(st)
	}
}

func listTracks(ctx context.Context, client *apiconnect.PlayerClient, query string) error {
	tracks, err := client.ListTracks(ctx, query)
	if err != nil {
		return err
	}

	if len(tracks) == 0 {
		fmt.Println("No tracks")
		return nil
	}
	for i, t := range tracks {
		name := t.Title
		if t.Artist != "" {
			name = t.Artist + " - " + t.Title
		}
		fmt.Printf("%3d. %-12s %s\n", i+1, t.ID, name)
	}
	return nil
}

func watch(ctx context.Context, client *apiconnect.PlayerClient) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		cancel()
	}()

	fmt.Println("Watching playback events. Press Ctrl+C to exit.")
	err := client.SubscribeEvents(ctx, func(ev apiconnect.EventView) error {
		printEvent(ev)
		return nil
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printStatus(st *apiconnect.StatusView) {
	fmt.Println("\n=== PLAYER STATUS ===")
	fmt.Printf("State: %s\n", formatState(st.State, st.Loading))
	fmt.Printf("Volume: %d%%\n", st.Volume)
	if st.SleepRemainingSec > 0 {
		fmt.Printf("Sleep in: %s\n", playback.FormatTime(st.SleepRemainingSec))
	}

	if st.Track != nil {
		fmt.Printf("\nCurrent Track:\n")
		fmt.Printf("  Track ID: %s\n", st.Track.ID)
		fmt.Printf("  Title: %s\n", st.Track.Title)
		fmt.Printf("  Artist: %s\n", st.Track.Artist)
		if st.Track.CoverURL != "" {
			fmt.Printf("  Cover: %s\n", st.Track.CoverURL)
		}
		fmt.Printf("  Position: %s / %s (%.0f%%)\n",
			playback.FormatTime(st.Position), playback.FormatTime(st.Duration), st.Progress)
	} else {
		fmt.Println("\nNo track loaded")
	}
	fmt.Println()
}

func printEvent(ev apiconnect.EventView) {
	fmt.Printf("[Sequence: %d] %s", ev.SequenceNo, ev.Type)

	st := ev.Status
	if st.Track != nil {
		fmt.Printf(" track=%s", st.Track.ID)
	}
	switch ev.Type {
	case playback.EventPositionChanged.String(), playback.EventDurationKnown.String():
		fmt.Printf(" %s / %s", playback.FormatTime(st.Position), playback.FormatTime(st.Duration))
	case playback.EventVolumeChanged.String():
		fmt.Printf(" volume=%d%%", st.Volume)
	case playback.EventStateChanged.String(), apiconnect.EventInitialState:
		fmt.Printf(" state=%s", st.State)
	}
	if ev.Error != "" {
		fmt.Printf(" error[%s]=%s", ev.ErrorKind, ev.Error)
	}
	fmt.Println()
}

func formatState(state string, loading bool) string {
	if loading {
		return "⏳ Loading"
	}
	switch state {
	case playback.StatePlaying.String():
		return "▶️  Playing"
	case playback.StatePaused.String():
		return "⏸  Paused"
	case playback.StateStopped.String():
		return "⏹  Stopped"
	default:
		return "❓ Unknown"
	}
}

// parsePosition parses "90", "90.5" or "1:30" into seconds.
func parsePosition(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if m, sec, ok := strings.Cut(s, ":"); ok {
		minutes, err := strconv.Atoi(m)
		if err != nil || minutes < 0 {
			return 0, errors.Newf("invalid position: %s", s)
		}
		seconds, err := strconv.ParseFloat(sec, 64)
		if err != nil || seconds < 0 || seconds >= 60 {
			return 0, errors.Newf("invalid position: %s", s)
		}
		return float64(minutes)*60 + seconds, nil
	}

	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil || seconds < 0 {
		return 0, errors.Newf("invalid position: %s", s)
	}
	return seconds, nil
}
