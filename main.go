package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
	"murmur/media"
	"murmur/notify"
	"murmur/shutdown"
	"murmur/trainlog"
	"murmur/transcriber"
)

var version = "dev"

// uiNotifier fans session notifications out to the TUI and, when enabled, to
// the desktop notification daemon. The TUI always sees every outcome.
type uiNotifier struct {
	desktop Notifier // nil when desktop notifications are disabled
}

func (n *uiNotifier) Notify(kind notify.Kind, message string) error {
	switch kind {
	case notify.Started:
		tuiSend(RecordingStartMsg{})
	case notify.Stopped:
		tuiSend(RecordingStopMsg{})
	case notify.Transcribed:
		tuiSend(TranscriptionMsg{Text: message})
	case notify.NoSpeech:
		tuiSend(TranscriptionMsg{Text: "(no speech detected)", NoSpeech: true})
	case notify.Error:
		logToTUI("Error: %s", message)
		tuiSend(TranscriptionMsg{Text: message, NoSpeech: true})
	}
	if n.desktop == nil {
		return nil
	}
	return n.desktop.Notify(kind, message)
}

func main() {
	configFlag := flag.String("config", "", "Config file path (default: OS-specific location)")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location, use ./ for current dir)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	autoPasteFlag := flag.Bool("autopaste", false, "Auto-paste to focused window after transcription")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	configPath := *configFlag
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot resolve config path: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	} else {
		log.SessionStart(cfg.Model, cfg.Device, cfg.Language)
	}

	if !cfg.FeedbackBeeps {
		beep.Disable()
	}
	go beep.Init()

	autoPaste := *autoPasteFlag
	if autoPaste {
		if err := clipboard.Init(); err != nil {
			fmt.Printf("Warning: paste init failed, auto-paste disabled: %v\n", err)
			log.Warnf("paste init failed: %v", err)
			autoPaste = false
		}
	}

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer audioCtx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Printf("Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: uint32(cfg.SampleRate),
		Channels:   1,
	}
	captureDevice, err := audioCtx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Printf("Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer captureDevice.Close()

	engine := transcriber.NewWhisper(transcriber.Config{
		Model:     cfg.Model,
		ModelPath: cfg.ModelPath,
		Device:    cfg.Device,
		Language:  cfg.Language,
		Threads:   runtime.NumCPU(),
	})
	defer engine.Close()
	go func() {
		start := time.Now()
		if err := engine.Preload(); err != nil {
			log.Errorf("model preload error: %v", err)
			logToTUI("Model load failed: %v", err)
			return
		}
		log.Info(fmt.Sprintf("model_loaded: %s in %.1fs", cfg.Model, time.Since(start).Seconds()))
		logToTUI("Model %s ready", cfg.Model)
	}()

	var tl *trainlog.Logger
	if cfg.EnableLogging {
		dir, err := trainlog.DefaultDir()
		if err == nil {
			tl, err = trainlog.New(dir, cfg.AudioFormat)
		}
		if err != nil {
			log.Warnf("training log unavailable: %v", err)
			fmt.Printf("Warning: training log unavailable: %v\n", err)
		} else if count, secs, err := tl.Stats(); err == nil && count > 0 {
			log.Info(fmt.Sprintf("training_data: %d utterances, %.0fs audio", count, secs))
		}
	}

	notifier := &uiNotifier{}
	if cfg.EnableNotifications {
		notifier.desktop = notify.NewDesktop()
	}

	var mediaCtl *media.Controller
	if cfg.PauseMedia {
		mediaCtl = media.NewController()
	}
	// Hooks run on the orchestrator loop; keep them off it.
	hooks := SessionHooks{
		RecordingStarted: func() {
			go beep.PlayStart()
			if mediaCtl != nil {
				go func() {
					if err := mediaCtl.Pause(); err != nil {
						log.Warnf("media pause failed: %v", err)
					}
				}()
			}
		},
		RecordingStopped: func() {
			go beep.PlayEnd()
			if mediaCtl != nil {
				go func() {
					if err := mediaCtl.Resume(); err != nil {
						log.Warnf("media resume failed: %v", err)
					}
				}()
			}
		},
		Failure: func() { go beep.PlayError() },
	}

	hk, err := hotkey.New(cfg.Hotkey)
	if err != nil {
		fmt.Printf("Error: invalid hotkey %q: %v\n", cfg.Hotkey, err)
		os.Exit(1)
	}
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	orch := NewOrchestrator(cfg, captureDevice, engine, notifier, Sinks(cfg, notifier, tl, autoPaste), hooks)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown.OnSignal(cancel)

	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(cfg.Hotkey)
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			cancel()
		}()

		<-tuiReady
	}

	tuiSend(ModeLineMsg{Text: modeLine(cfg)})
	tuiSend(DeviceLineMsg{Text: deviceLine(selectedDevice)})

	orch.Run(runCtx, hk.Toggle())

	if n := orch.Completed(); n > 0 {
		log.SessionEnd(n)
	}
	log.Close()
	if tuiProgram != nil {
		tuiProgram.Quit()
	}
}

func modeLine(cfg config.Config) string {
	label := fmt.Sprintf("[whisper-%s | %s", cfg.Model, cfg.Device)
	if cfg.Language != "" {
		label += " | " + cfg.Language
	}
	return label + "]"
}

func deviceLine(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}
