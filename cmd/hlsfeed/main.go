package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/RavensCloud/hlsfeed"
	"github.com/RavensCloud/hlsfeed/config"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file (default: search for hlsfeed.yml)")
	base := flag.String("base", "", "Feed service base URL, e.g. http://192.168.0.21:5000")
	host := flag.String("host", "", "Reachable host substituted into stream URLs")
	feedPath := flag.String("feed-path", "", "Feed endpoint path (/api/videos or /videos)")
	proxyURL := flag.String("proxy", "", "Proxy URL (http/https/socks5)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs here while the viewer runs")
	list := flag.Bool("list", false, "Print the feed and exit")
	like := flag.Int("like", 0, "Like the video with this id and exit")
	player := flag.String("player", "mpv", "External player used to open streams in the viewer")
	flag.Parse()

	cfg, err := config.LoadRaw(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Explicit flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base":
			cfg.BaseURL = *base
		case "host":
			cfg.ReachableHost = *host
		case "feed-path":
			cfg.FeedPath = *feedPath
		case "proxy":
			cfg.Proxy = *proxyURL
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := cfg.NewLogger()
	client, err := cfg.NewClient(logger)
	if err != nil {
		log.Fatalf("new client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if *list || *like != 0 {
		feed := hlsfeed.NewFeed(client, hlsfeed.WithFeedLogger(logger))
		if err := feed.Load(ctx); err != nil {
			log.Fatalf("load feed: %v", err)
		}
		if *like != 0 {
			if err := feed.Like(ctx, *like); err != nil {
				log.Fatalf("like: %v", err)
			}
		}
		printVideos(feed.Snapshot().Records)
		return
	}

	// The viewer owns the terminal; logs go to a file or nowhere.
	logger.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Fatalf("open log file: %v", err)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	feed := hlsfeed.NewFeed(client, hlsfeed.WithFeedLogger(logger))
	defer feed.Close()

	p := tea.NewProgram(newViewer(feed, *player, logger), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("viewer: %v", err)
	}
}

func printVideos(videos []hlsfeed.Video) {
	for i, v := range videos {
		fmt.Printf("[%d] #%d %s (%d likes)\n    %s\n", i+1, v.ID, v.Filename, v.Likes, v.StreamURL)
	}
	fmt.Printf("\nTotal: %d videos\n", len(videos))
}
