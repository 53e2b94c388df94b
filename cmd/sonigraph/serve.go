package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satindergrewal/sonigraph/internal/api"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/config"
	"github.com/satindergrewal/sonigraph/internal/live"
	"github.com/satindergrewal/sonigraph/internal/quote"
	"github.com/satindergrewal/sonigraph/internal/session"
	"github.com/satindergrewal/sonigraph/internal/stream"
)

var (
	servePort   int
	serveSample string
	serveLive   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sonification server",
	Long: `Run the sonification server.

Settings come from SONIGRAPH_* environment variables; flags override a few.
Audio is streamed at /stream (MP3, needs ffmpeg) and /offer (WebRTC Opus),
chart events at /events and controls under /api.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if cmd.Flags().Changed("port") {
			cfg.Port = servePort
		}
		if debug {
			cfg.Debug = true
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP listen port")
	serveCmd.Flags().StringVar(&serveSample, "sample", "", "sample dataset to load at startup")
	serveCmd.Flags().BoolVar(&serveLive, "live", false, "connect to live data at startup")
	rootCmd.AddCommand(serveCmd)
}

func serve(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("sonigraph starting up...")

	// Audio engine
	engine, err := audio.NewEngine(cfg.Instrument, cfg.Volume, cfg.MaxVoices)
	if err != nil {
		return err
	}
	go engine.Run(ctx)

	// Broadcaster: fan-out PCM frames to all listeners
	broadcaster := stream.NewBroadcaster[[]int16](stream.FrameBuffer)
	go broadcaster.Run(ctx, engine.Frames())

	// Live feed: a quote API when configured, otherwise the simulator
	var feed live.Feed
	if cfg.LiveAPIURL != "" {
		client := quote.NewClient(cfg.LiveAPIURL, cfg.LiveAPIKey, cfg.LiveSymbol)
		readyCtx, readyCancel := context.WithTimeout(ctx, 30*time.Second)
		if client.WaitForReady(readyCtx, 2*time.Second) {
			log.Printf("Quote API connected: %s", cfg.LiveAPIURL)
		} else {
			log.Printf("Quote API not reachable yet: %s", cfg.LiveAPIURL)
		}
		readyCancel()
		feed = client
	} else {
		feed = live.NewSimulator(cfg.LiveBasePrice, cfg.LiveFailureRate)
		log.Println("Quote API not configured (set SONIGRAPH_LIVE_API_URL), using simulated prices")
	}

	events := stream.NewEventHub(15 * time.Second)

	sess, err := session.New(session.Options{
		Tempo:        cfg.Tempo,
		Scale:        cfg.Scale,
		Instrument:   cfg.Instrument,
		BaseOctave:   cfg.BaseOctave,
		NoteLength:   cfg.NoteLength,
		LiveBuffer:   cfg.LiveBuffer,
		LiveInterval: cfg.LiveInterval,
		LiveSymbol:   cfg.LiveSymbol,
		Debug:        cfg.Debug,
	}, engine, feed, events)
	if err != nil {
		return err
	}
	defer sess.Close()

	if serveSample != "" {
		if err := sess.LoadSample(serveSample); err != nil {
			return err
		}
	}
	if serveLive {
		if err := sess.ConnectLive(ctx, cfg.LiveSymbol); err != nil {
			log.Printf("Live data not available: %v", err)
		}
	}

	webrtcHandler := stream.NewWebRTCHandler(broadcaster, cfg.StreamBitrate, "sonigraph")

	handler := api.New(sess, api.Options{
		Events: events,
		Stream: stream.NewHTTPHandler(broadcaster, cfg.StreamBitrate, "sonigraph"),
		Offer:  webrtcHandler,
		Listeners: func() int {
			return broadcaster.ListenerCount() + webrtcHandler.PeerCount()
		},
		RefreshRate: cfg.RefreshRate,
		Volume:      cfg.Volume,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("sonigraph live on %s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}
