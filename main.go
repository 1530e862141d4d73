// worklens records what you do and say at your desk: screen video,
// foreground-app usage, and a voice pipeline that turns narrated work
// into structured automation workflows.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"worklens/assistant"
	"worklens/audio"
	"worklens/config"
	"worklens/llm"
	"worklens/log"
	"worklens/metrics"
	"worklens/recorder"
	"worklens/relay"
	"worklens/server"
	"worklens/shutdown"
	"worklens/tracker"
	"worklens/transcriber"
	"worklens/vision"
	"worklens/workflow"
)

var version = "dev"

func main() {
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	formatFlag := flag.String("format", "", "Audio upload format: wav or flac (default from config)")
	langFlag := flag.String("lang", "", "Language code for transcription (e.g., en, es, fr)")
	addrFlag := flag.String("addr", "", "HTTP listen address (default from config)")
	dataFlag := flag.String("data", "", "Data directory (default from config)")
	noTrackFlag := flag.Bool("notrack", false, "Disable foreground app usage tracking")
	noScreenFlag := flag.Bool("noscreen", false, "Disable screen recording and screenshots")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println("worklens", version)
		return
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logDir)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()
	log.Infof("worklens %s starting", version)

	cfg, err := config.Load()
	if err != nil {
		fatal("Error loading config: %v", err)
	}
	if *formatFlag != "" {
		cfg.UploadFormat = *formatFlag
	}
	if *langFlag != "" {
		cfg.Language = *langFlag
	}
	if *addrFlag != "" {
		cfg.HTTPAddr = *addrFlag
	}
	if *dataFlag != "" {
		cfg.DataDir = *dataFlag
	}

	trans, err := transcriber.New()
	if err != nil {
		fatal("%v\n\nSet OPENAI_API_KEY or GROQ_API_KEY and try again.", err)
	}
	trans.SetLanguage(cfg.Language)
	log.Infof("transcriber: %s (%s, %s)", trans.Name(), cfg.UploadFormat, cfg.Language)

	actx, err := audio.NewContext()
	if err != nil {
		fatal("Error initializing audio: %v", err)
	}
	defer actx.Close()

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		fatal("OPENAI_API_KEY is required for workflow generation")
	}
	chat := llm.NewOpenAI(openaiKey)

	var analyzer *vision.Analyzer
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		analyzer = vision.New(llm.NewAnthropic(key))
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, video analysis disabled")
	}

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	hub := relay.NewHub(met)
	defer hub.Close()

	store := workflow.NewStore(cfg.DataDir)
	engine := workflow.NewEngine(chat, cfg, store, met)
	asst := assistant.New(cfg, actx, trans, engine, chat, hub, met)

	switch {
	case *setupFlag:
		dev, err := audio.SelectDevice(actx)
		if err != nil {
			fatal("Error selecting device: %v", err)
		}
		asst.UseDevice(*dev)
		log.Infof("using device: %s", dev.Name)
	case *deviceFlag != "":
		dev, err := audio.FindDevice(actx, *deviceFlag)
		if err != nil {
			fatal("%v", err)
		}
		asst.UseDevice(*dev)
		log.Infof("using device: %s", dev.Name)
	}

	var screen *recorder.Screen
	if !*noScreenFlag {
		screen = recorder.NewScreen(recorder.NewFFmpeg(), cfg.DataDir, cfg.RecordFPS)
	}

	usage := tracker.NewJSONL(cfg.DataDir)
	var track *tracker.Tracker
	if !*noTrackFlag {
		track = tracker.New(tracker.ActiveApp, usage)
		track.Start()
	}

	srv := server.New(cfg, asst, screen, analyzer, engine, store, usage, hub, reg)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	shutdown.Notify(sig)
	go func() {
		<-sig
		log.Info("shutdown signal received")
		cancel()
	}()

	fmt.Printf("worklens listening on http://%s\n", cfg.HTTPAddr)
	err = srv.Run(ctx)

	asst.Stop()
	asst.Drain()
	if track != nil {
		track.Stop()
	}
	if screen != nil {
		screen.Stop()
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		fatal("Server error: %v", err)
	}
	log.Info("worklens stopped")
}

func fatal(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	log.Close()
	os.Exit(1)
}
